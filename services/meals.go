package services

import (
	"log"
	"time"

	"homemeal-server/models"
	"homemeal-server/storage"
)

// StartMealExpirySweep periodically marks past-expiry meals as expired.
// This replaces a database TTL delete: meals are kept so booking history
// stays intact, they just stop being visible.
func StartMealExpirySweep(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			sweepExpiredMeals(time.Now())
		}
	}()
}

func sweepExpiredMeals(now time.Time) {
	result := storage.DB.Model(&models.Meal{}).
		Where("status IN ? AND expiry_time <= ?", []string{models.MealStatusActive, models.MealStatusSoldOut}, now).
		Update("status", models.MealStatusExpired)
	if result.Error != nil {
		log.Printf("meal expiry sweep failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("meal expiry sweep: %d meals expired", result.RowsAffected)
	}
}
