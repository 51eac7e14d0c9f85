package routes

import (
	"errors"
	"fmt"
	"time"

	"homemeal-server/models"
	"homemeal-server/services"
	"homemeal-server/storage"
	"homemeal-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

func CreateBooking(ctx iris.Context) {
	guestID := ctx.Values().Get("userID").(uint)

	var input CreateBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var meal models.Meal
	if err := storage.DB.First(&meal, input.MealID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Meal not found", ctx)
		return
	}

	now := time.Now()
	if !meal.Bookable(now) {
		utils.CreateError(iris.StatusBadRequest, "Unavailable", "Meal is no longer available", ctx)
		return
	}
	if !services.BookingWindowOpen(now, meal.ServingTime) {
		utils.CreateError(iris.StatusBadRequest, "Unavailable",
			"Booking period closed. Bookings must be made at least 2 hours before serving time", ctx)
		return
	}

	// Claim a serving only if one is left, so concurrent bookings cannot
	// oversell the meal.
	claim := storage.DB.Model(&models.Meal{}).
		Where("id = ? AND remaining_servings > 0", meal.ID).
		UpdateColumn("remaining_servings", gorm.Expr("remaining_servings - 1"))
	if claim.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if claim.RowsAffected == 0 {
		utils.CreateError(iris.StatusConflict, "Conflict", "Meal is sold out", ctx)
		return
	}

	storage.DB.Model(&models.Meal{}).
		Where("id = ? AND remaining_servings = 0 AND status = ?", meal.ID, models.MealStatusActive).
		UpdateColumn("status", models.MealStatusSoldOut)

	booking := services.NewBooking(&meal, guestID, input.PaymentID, now)
	if err := storage.DB.Create(&booking).Error; err != nil {
		// Hand the claimed serving back so the counter stays truthful
		restoreServing(meal.ID)
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DB.Preload("Meal").Preload("Meal.Host").First(&booking, booking.ID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"booking": &booking,
		"message": "Booking placed. Waiting for the host to accept.",
	})
}

// GetUserBookings returns the caller's bookings. Hosts see bookings made
// against their meals, guests see bookings they placed.
func GetUserBookings(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	userRole := ctx.Values().GetStringDefault("userRole", models.RoleGuest)

	query := storage.DB.Preload("Meal").Order("booking_time DESC")
	if userRole == models.RoleHost {
		query = query.Preload("Guest").Where("host_id = ?", userID)
	} else {
		query = query.Preload("Meal.Host").Where("guest_id = ?", userID)
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(bookings)
}

func GetBookingByID(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	id := ctx.Params().GetUintDefault("id", 0)

	var booking models.Booking
	if err := storage.DB.Preload("Meal").Preload("Meal.Host").Preload("Guest").
		First(&booking, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Booking not found", ctx)
		return
	}

	if booking.GuestID != userID && booking.HostID != userID {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Not authorized", ctx)
		return
	}

	ctx.JSON(&booking)
}

// UpdateBookingStatus lets the host accept or reject a pending booking.
func UpdateBookingStatus(ctx iris.Context) {
	hostID := ctx.Values().Get("userID").(uint)
	id := ctx.Params().GetUintDefault("id", 0)

	var input UpdateBookingStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var booking models.Booking
	if err := storage.DB.Preload("Meal").First(&booking, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Booking not found", ctx)
		return
	}
	if booking.HostID != hostID {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Not authorized", ctx)
		return
	}

	if err := services.ApplyDecision(&booking, input.Status); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid status", ctx)
		case errors.Is(err, services.ErrNotPending):
			utils.CreateError(iris.StatusConflict, "Conflict",
				fmt.Sprintf("Booking has already been %s", booking.Status), ctx)
		default:
			utils.CreateInternalServerError(ctx)
		}
		return
	}

	if err := storage.DB.Save(&booking).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if booking.Status == models.BookingStatusRejected {
		restoreServing(booking.MealID)
	}

	go services.NotifyBookingDecided(&booking, &booking.Meal, booking.Status)

	ctx.JSON(iris.Map{"message": "Booking " + booking.Status, "booking": &booking})
}

// CancelBooking cancels a booking on behalf of either party and settles the
// refund according to who cancelled and when.
func CancelBooking(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	id := ctx.Params().GetUintDefault("id", 0)

	var booking models.Booking
	if err := storage.DB.Preload("Meal").First(&booking, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Booking not found", ctx)
		return
	}
	if booking.GuestID != userID && booking.HostID != userID {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Not authorized", ctx)
		return
	}

	byHost := booking.HostID == userID
	now := time.Now()
	previousStatus := booking.Status
	if err := services.ApplyCancellation(&booking, byHost, booking.Meal.ServingTime, now); err != nil {
		if errors.Is(err, services.ErrClosed) {
			utils.CreateError(iris.StatusBadRequest, "Conflict",
				fmt.Sprintf("Booking has already been %s", previousStatus), ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := storage.DB.Save(&booking).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if now.Before(booking.Meal.ServingTime) {
		restoreServing(booking.MealID)
	}

	if byHost {
		go services.NotifyBookingCancelledByHost(&booking, &booking.Meal)
	}

	ctx.JSON(iris.Map{"message": "Booking cancelled", "booking": &booking})
}

// CompleteBooking marks an accepted booking as served.
func CompleteBooking(ctx iris.Context) {
	hostID := ctx.Values().Get("userID").(uint)
	id := ctx.Params().GetUintDefault("id", 0)

	var booking models.Booking
	if err := storage.DB.Preload("Meal").First(&booking, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Booking not found", ctx)
		return
	}
	if booking.HostID != hostID {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Not authorized", ctx)
		return
	}

	previousStatus := booking.Status
	if err := services.ApplyCompletion(&booking); err != nil {
		utils.CreateError(iris.StatusBadRequest, "Conflict",
			fmt.Sprintf("Cannot complete a booking that is %s", previousStatus), ctx)
		return
	}

	if err := storage.DB.Save(&booking).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"message": "Booking completed", "booking": &booking})
}

// restoreServing hands a claimed serving back to the meal and reactivates a
// sold out listing.
func restoreServing(mealID uint) {
	storage.DB.Model(&models.Meal{}).
		Where("id = ?", mealID).
		UpdateColumn("remaining_servings", gorm.Expr("remaining_servings + 1"))
	storage.DB.Model(&models.Meal{}).
		Where("id = ? AND status = ?", mealID, models.MealStatusSoldOut).
		UpdateColumn("status", models.MealStatusActive)
}

type CreateBookingInput struct {
	MealID    uint   `json:"mealId" validate:"required"`
	PaymentID string `json:"paymentId"`
}

type UpdateBookingStatusInput struct {
	Status string `json:"status" validate:"required"`
}
