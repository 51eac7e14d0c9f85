package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"homemeal-server/models"
	"homemeal-server/storage"
)

// NotificationHub is an explicit subscriber registry for live notification
// delivery. Every open SSE connection subscribes a channel; Publish
// broadcasts to all of them, dropping events for subscribers that cannot
// keep up. Persistence happens before broadcast so a missed event can still
// be read from the notification log.
type NotificationHub struct {
	mu          sync.Mutex
	subscribers map[chan models.Notification]struct{}
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		subscribers: make(map[chan models.Notification]struct{}),
	}
}

// Subscribe registers and returns a buffered channel for live events.
func (h *NotificationHub) Subscribe() chan models.Notification {
	ch := make(chan models.Notification, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *NotificationHub) Unsubscribe(ch chan models.Notification) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
}

// Publish broadcasts to every subscriber without blocking; slow consumers
// miss the event.
func (h *NotificationHub) Publish(n models.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- n:
		default:
		}
	}
}

// SubscriberCount reports the number of open subscriptions.
func (h *NotificationHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Hub is the process-wide notification hub.
var Hub = NewNotificationHub()

// notify persists the notification, then broadcasts it to open streams.
func notify(n models.Notification) {
	if err := storage.DB.Create(&n).Error; err != nil {
		log.Printf("notification persist failed for user %d: %v", n.UserID, err)
		return
	}
	Hub.Publish(n)
}

// NotifyBookingDecided tells the guest their booking was accepted or
// rejected by the host.
func NotifyBookingDecided(booking *models.Booking, meal *models.Meal, status string) {
	var message string
	if status == models.BookingStatusAccepted {
		message = fmt.Sprintf(
			"Your meal order for %q is accepted and it will be delivered in the given time (%s).",
			meal.Name, meal.ServingTime.Format(time.RFC1123))
	} else {
		message = fmt.Sprintf(
			"Your meal order for %q has been rejected or cancelled by the host.", meal.Name)
	}

	servingTime := meal.ServingTime
	notify(models.Notification{
		UserID:      booking.GuestID,
		Type:        "booking",
		Title:       "Booking " + status,
		Message:     message,
		RefType:     "booking",
		RefID:       booking.ID,
		MealTitle:   meal.Name,
		ServingTime: &servingTime,
	})
}

// NotifyBookingCancelledByHost tells the guest the host cancelled their
// booking. Guest-initiated cancellations do not notify anyone.
func NotifyBookingCancelledByHost(booking *models.Booking, meal *models.Meal) {
	servingTime := meal.ServingTime
	notify(models.Notification{
		UserID:      booking.GuestID,
		Type:        "booking",
		Title:       "Booking cancelled",
		Message:     fmt.Sprintf("Your meal order for %q has been cancelled by the host.", meal.Name),
		RefType:     "booking",
		RefID:       booking.ID,
		MealTitle:   meal.Name,
		ServingTime: &servingTime,
	})
}
