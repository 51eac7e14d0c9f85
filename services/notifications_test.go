package services

import (
	"testing"
	"time"

	"homemeal-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationHubDelivery(t *testing.T) {
	hub := NewNotificationHub()

	first := hub.Subscribe()
	second := hub.Subscribe()
	assert.Equal(t, 2, hub.SubscriberCount())

	hub.Publish(models.Notification{Type: "booking", Title: "Booking Accepted"})

	for _, ch := range []chan models.Notification{first, second} {
		select {
		case n := <-ch:
			assert.Equal(t, "booking", n.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestNotificationHubUnsubscribe(t *testing.T) {
	hub := NewNotificationHub()

	ch := hub.Subscribe()
	hub.Unsubscribe(ch)
	assert.Equal(t, 0, hub.SubscriberCount())

	// Publishing after unsubscribe must not panic or reach the channel
	hub.Publish(models.Notification{Type: "booking"})

	select {
	case <-ch:
		t.Fatal("unsubscribed channel received an event")
	default:
	}
}

func TestNotificationHubDoesNotBlockOnSlowSubscriber(t *testing.T) {
	hub := NewNotificationHub()

	ch := hub.Subscribe()

	// Overfill the subscriber buffer; Publish must drop rather than block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(models.Notification{Type: "booking"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	require.NotEmpty(t, ch)
}
