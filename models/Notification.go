package models

import "time"

// Notification is the persisted record of a booking-status event, readable
// by the client after the fact; live delivery goes through the notification
// hub's SSE stream.
type Notification struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"userID" gorm:"not null;index"`
	User   User `json:"user" gorm:"foreignKey:UserID"`

	Type    string `json:"type" gorm:"size:32;index"` // booking
	Title   string `json:"title" gorm:"size:100"`
	Message string `json:"message" gorm:"size:500"`

	// Reference data
	RefType string `json:"refType" gorm:"size:32"` // booking, meal
	RefID   uint   `json:"refID"`

	// Meal metadata snapshot, so the client can render without a join
	MealTitle   string     `json:"mealTitle" gorm:"size:200"`
	ServingTime *time.Time `json:"servingTime"`

	IsRead    bool       `json:"isRead" gorm:"default:false"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt"`
}
