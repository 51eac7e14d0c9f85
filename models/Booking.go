package models

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusAccepted  = "accepted"
	BookingStatusRejected  = "rejected"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
	// Carried over from the legacy payment flow; not produced by any
	// current transition but still valid values in stored rows.
	BookingStatusPendingPaymentConfirmation = "pending_payment_confirmation"
	BookingStatusPaymentReceived            = "payment_received"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
	// Legacy UPI sub-states, same situation as above.
	PaymentStatusUPIPending   = "upi_pending"
	PaymentStatusUPIConfirmed = "upi_confirmed"
)

const (
	CancelledByGuest = "guest"
	CancelledByHost  = "host"
)

// Booking joins a guest, a host and a meal. Rows are never deleted;
// terminal states are rejected, cancelled and completed.
type Booking struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	MealID           uint       `json:"mealID" gorm:"not null;index"`
	Meal             Meal       `json:"meal" gorm:"foreignKey:MealID"`
	GuestID          uint       `json:"guestID" gorm:"not null;index"`
	Guest            User       `json:"guest" gorm:"foreignKey:GuestID"`
	HostID           uint       `json:"hostID" gorm:"not null;index"`
	Host             User       `json:"host" gorm:"foreignKey:HostID"`
	Status           string     `json:"status" gorm:"type:varchar(32);default:pending;index"`
	PaymentStatus    string     `json:"paymentStatus" gorm:"type:varchar(16);default:pending"`
	PaymentAmount    float64    `json:"paymentAmount"`
	PaymentID        string     `json:"paymentId"`
	AdminCut         float64    `json:"adminCut"`
	RefundAmount     float64    `json:"refundAmount"`
	BookingTime      time.Time  `json:"bookingTime"`
	CancellationTime *time.Time `json:"cancellationTime"`
	CancelledBy      string     `json:"cancelledBy" gorm:"type:varchar(8)"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Closed reports whether the booking reached a state that forbids
// cancellation.
func (b *Booking) Closed() bool {
	return b.Status == BookingStatusRejected ||
		b.Status == BookingStatusCancelled ||
		b.Status == BookingStatusCompleted
}
