package services

import (
	"errors"
	"time"

	"homemeal-server/models"
)

// AdminCutRate is the platform commission withheld from the host payout.
const AdminCutRate = 0.10

// BookingLeadTime is the minimum advance between booking creation and the
// meal's serving time.
const BookingLeadTime = 2 * time.Hour

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrNotPending    = errors.New("booking is not pending")
	ErrClosed        = errors.New("booking is closed")
	ErrNotAccepted   = errors.New("booking is not accepted")
)

// AdminCut returns the platform commission for a meal price.
func AdminCut(price float64) float64 {
	return price * AdminCutRate
}

// HostPayout returns the amount owed to the host after the platform cut.
func HostPayout(price float64) float64 {
	return price - AdminCut(price)
}

// BookingWindowOpen reports whether a booking may still be created for a
// meal served at servingTime. The window closes exactly two hours before
// serving: at the boundary the booking is rejected.
func BookingWindowOpen(now, servingTime time.Time) bool {
	return now.Before(servingTime.Add(-BookingLeadTime))
}

// NewBooking builds a pending booking for the meal with payment fields
// derived from the meal price and the optional payment id.
func NewBooking(meal *models.Meal, guestID uint, paymentID string, now time.Time) models.Booking {
	paymentStatus := models.PaymentStatusPending
	if paymentID != "" {
		paymentStatus = models.PaymentStatusCompleted
	}

	return models.Booking{
		MealID:        meal.ID,
		GuestID:       guestID,
		HostID:        meal.HostID,
		Status:        models.BookingStatusPending,
		PaymentStatus: paymentStatus,
		PaymentAmount: meal.Price,
		PaymentID:     paymentID,
		AdminCut:      AdminCut(meal.Price),
		BookingTime:   now,
	}
}

// ApplyDecision moves a pending booking to accepted or rejected. A rejected
// booking with a completed payment is marked refunded in full; executing
// the refund against a payment provider is out of scope.
func ApplyDecision(b *models.Booking, status string) error {
	if status != models.BookingStatusAccepted && status != models.BookingStatusRejected {
		return ErrInvalidStatus
	}
	if b.Status != models.BookingStatusPending {
		return ErrNotPending
	}

	b.Status = status

	if status == models.BookingStatusRejected && b.PaymentStatus == models.PaymentStatusCompleted {
		b.PaymentStatus = models.PaymentStatusRefunded
		b.RefundAmount = b.PaymentAmount
		// TODO: process the actual refund through the payment provider
	}

	return nil
}

// ApplyCancellation cancels a pending or accepted booking. Refund is full
// when the host cancels, or when the guest cancels before serving time;
// otherwise no refund.
func ApplyCancellation(b *models.Booking, byHost bool, servingTime, now time.Time) error {
	if b.Closed() {
		return ErrClosed
	}

	b.Status = models.BookingStatusCancelled
	cancelTime := now
	b.CancellationTime = &cancelTime
	if byHost {
		b.CancelledBy = models.CancelledByHost
	} else {
		b.CancelledBy = models.CancelledByGuest
	}

	if b.PaymentStatus == models.PaymentStatusCompleted {
		if byHost || now.Before(servingTime) {
			b.PaymentStatus = models.PaymentStatusRefunded
			b.RefundAmount = b.PaymentAmount
			// TODO: process the actual refund through the payment provider
		} else {
			b.RefundAmount = 0
		}
	}

	return nil
}

// ApplyCompletion marks an accepted booking completed. No payment side
// effects beyond the status change.
func ApplyCompletion(b *models.Booking) error {
	if b.Status != models.BookingStatusAccepted {
		return ErrNotAccepted
	}
	b.Status = models.BookingStatusCompleted
	return nil
}
