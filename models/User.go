package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

const (
	RoleGuest = "guest"
	RoleHost  = "host"
)

type User struct {
	gorm.Model
	Name          string    `json:"name"`
	Email         string    `json:"email" gorm:"uniqueIndex"`
	Password      string    `json:"-"`
	Age           int       `json:"age"`
	ContactNumber string    `json:"contactNumber"`
	Role          string    `json:"role" gorm:"type:varchar(10);index"` // guest, host
	BankDetails   Bank      `json:"bankDetails" gorm:"embedded;embeddedPrefix:bank_"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	Address       string    `json:"address"`
	Meals         []Meal    `json:"meals" gorm:"foreignKey:HostID;references:ID"`
	Bookings      []Booking `json:"bookings" gorm:"foreignKey:GuestID;references:ID"`
}

// Bank holds the payout account for hosts. Empty for guests.
type Bank struct {
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
}

func (b Bank) Empty() bool {
	return b.AccountNumber == "" && b.BankName == ""
}

// Custom JSON marshaling to hide empty bank details and avoid circular references
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		BankDetails *Bank     `json:"bankDetails,omitempty"`
		Meals       []Meal    `json:"meals,omitempty"`
		Bookings    []Booking `json:"bookings,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(u),
	}

	if !u.BankDetails.Empty() {
		bank := u.BankDetails
		aux.BankDetails = &bank
	}

	// Associations are included only when explicitly preloaded
	if len(u.Meals) > 0 {
		aux.Meals = u.Meals
	}
	if len(u.Bookings) > 0 {
		aux.Bookings = u.Bookings
	}

	return json.Marshal(aux)
}

// PublicProfile strips payout and credential data for responses visible to
// other users (nearby host listings, booking counterparts).
func (u *User) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"ID":            u.ID,
		"name":          u.Name,
		"contactNumber": u.ContactNumber,
		"lat":           u.Lat,
		"lng":           u.Lng,
		"address":       u.Address,
	}
}
