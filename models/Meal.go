package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MealStatusActive  = "active"
	MealStatusExpired = "expired"
	MealStatusSoldOut = "sold_out"
)

type Meal struct {
	gorm.Model
	HostID             uint           `json:"hostID" gorm:"index"`
	Host               User           `json:"host" gorm:"foreignKey:HostID;references:ID"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Category           string         `json:"category" gorm:"type:varchar(20)"` // breakfast, lunch, dinner, snacks, dessert
	Cuisine            string         `json:"cuisine" gorm:"type:varchar(20)"`
	DietaryPreferences datatypes.JSON `json:"dietaryPreferences"`
	SpicyLevel         string         `json:"spicyLevel" gorm:"type:varchar(12);default:medium"`
	Ingredients        datatypes.JSON `json:"ingredients"`
	Allergens          string         `json:"allergens"`
	ServingTime        time.Time      `json:"servingTime" gorm:"index"`
	ExpiryTime         time.Time      `json:"expiryTime" gorm:"index"`
	Price              float64        `json:"price"`
	Image              string         `json:"image"` // URL after upload, or raw value passed through
	MaxServings        int            `json:"maxServings"`
	RemainingServings  int            `json:"remainingServings"`
	PreparationTime    int            `json:"preparationTime"` // minutes
	Lat                float64        `json:"lat"`
	Lng                float64        `json:"lng"`
	Address            string         `json:"address"`
	Status             string         `json:"status" gorm:"type:varchar(12);default:active;index"` // active, expired, sold_out
}

// VisibleMeals is the single visibility predicate for guest-facing listings
// and the booking availability check: active, servings left, not yet expired.
func VisibleMeals(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ? AND remaining_servings > 0 AND expiry_time > ?", MealStatusActive, now)
	}
}

// Bookable reports whether the meal passes the visibility predicate at the
// given instant. The booking window check is separate (services package).
func (m *Meal) Bookable(now time.Time) bool {
	return m.Status == MealStatusActive &&
		m.RemainingServings > 0 &&
		now.Before(m.ExpiryTime)
}

// Custom JSON marshaling to render JSON columns as arrays and keep the host
// summary out of responses unless it was preloaded
func (m *Meal) MarshalJSON() ([]byte, error) {
	type Alias Meal
	aux := &struct {
		DietaryPreferences []string               `json:"dietaryPreferences"`
		Ingredients        []string               `json:"ingredients"`
		Host               map[string]interface{} `json:"host,omitempty"`
		*Alias
	}{
		DietaryPreferences: []string{},
		Ingredients:        []string{},
		Alias:              (*Alias)(m),
	}

	if m.DietaryPreferences != nil {
		var prefs []string
		if err := json.Unmarshal(m.DietaryPreferences, &prefs); err == nil {
			aux.DietaryPreferences = prefs
		}
	}

	if m.Ingredients != nil {
		var ingredients []string
		if err := json.Unmarshal(m.Ingredients, &ingredients); err == nil {
			aux.Ingredients = ingredients
		}
	}

	if m.Host.ID > 0 {
		aux.Host = m.Host.PublicProfile()
	}

	return json.Marshal(aux)
}
