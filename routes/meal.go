package routes

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"homemeal-server/models"
	"homemeal-server/services"
	"homemeal-server/storage"
	"homemeal-server/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
	"gorm.io/datatypes"
)

// MinServingLead is the minimum advance between meal creation and its
// serving time.
const MinServingLead = 5 * time.Hour

// MinVisibilityWindow is the minimum span between serving and expiry.
const MinVisibilityWindow = time.Hour

var mealCategories = []string{"breakfast", "lunch", "dinner", "snacks", "dessert"}
var mealCuisines = []string{"indian", "chinese", "italian", "mexican", "thai", "japanese", "american", "other"}

func CreateMeal(ctx iris.Context) {
	hostID := ctx.Values().Get("userID").(uint)

	var input CreateMealInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	now := time.Now()
	if input.ServingTime.Before(now.Add(MinServingLead)) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Serving time must be at least 5 hours from now", ctx)
		return
	}
	if !input.ExpiryTime.After(input.ServingTime) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Expiry time must be after serving time", ctx)
		return
	}
	if input.ExpiryTime.Sub(input.ServingTime) < MinVisibilityWindow {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Meal must be visible for at least 1 hour", ctx)
		return
	}

	category := input.Category
	if category == "" {
		category = "dinner"
	}
	if !slices.Contains(mealCategories, category) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Unknown meal category", ctx)
		return
	}
	cuisine := input.Cuisine
	if cuisine == "" {
		cuisine = "other"
	}
	if !slices.Contains(mealCuisines, cuisine) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Unknown cuisine", ctx)
		return
	}

	image, imageErr := storage.ResolveMealImage(input.Image, fmt.Sprintf("meals/%d/%d", hostID, now.UnixMilli()))
	if imageErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", imageErr.Error(), ctx)
		return
	}

	// Ensure arrays are never null
	prefs := input.DietaryPreferences
	if prefs == nil {
		prefs = []string{}
	}
	prefsJSON, _ := json.Marshal(prefs)

	ingredients := input.Ingredients
	if len(ingredients) == 0 {
		ingredients = []string{"Not specified"}
	}
	ingredientsJSON, _ := json.Marshal(ingredients)

	preparationTime := input.PreparationTime
	if preparationTime <= 0 {
		preparationTime = 30
	}

	meal := models.Meal{
		HostID:             hostID,
		Name:               input.Name,
		Description:        input.Description,
		Category:           category,
		Cuisine:            cuisine,
		DietaryPreferences: datatypes.JSON(prefsJSON),
		SpicyLevel:         input.SpicyLevel,
		Ingredients:        datatypes.JSON(ingredientsJSON),
		Allergens:          input.Allergens,
		ServingTime:        input.ServingTime,
		ExpiryTime:         input.ExpiryTime,
		Price:              input.Price,
		Image:              image,
		MaxServings:        input.MaxServings,
		RemainingServings:  input.MaxServings,
		PreparationTime:    preparationTime,
		Status:             models.MealStatusActive,
	}
	if meal.SpicyLevel == "" {
		meal.SpicyLevel = "medium"
	}
	if input.Location != nil {
		meal.Lat = input.Location.Lat
		meal.Lng = input.Location.Lng
		meal.Address = input.Location.Address
	}

	if err := storage.DB.Create(&meal).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	hoursRemaining := int(math.Max(0, math.Round(meal.ExpiryTime.Sub(now).Hours())))
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"meal":          &meal,
		"message":       "Meal hosted successfully",
		"visibleUntil":  meal.ExpiryTime,
		"timeRemaining": fmt.Sprintf("%d hours", hoursRemaining),
	})
}

// GetActiveMeals lists every meal passing the shared visibility predicate.
// Public endpoint.
func GetActiveMeals(ctx iris.Context) {
	now := time.Now()

	var meals []models.Meal
	if err := storage.DB.Scopes(models.VisibleMeals(now)).
		Preload("Host").
		Order("serving_time ASC").
		Find(&meals).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"meals": annotateMeals(meals, now),
		"count": len(meals),
	})
}

// GetNearbyMeals lists visible meals within the requested radius, nearest
// first.
func GetNearbyMeals(ctx iris.Context) {
	longitude, lngErr := ctx.URLParamFloat64("longitude")
	latitude, latErr := ctx.URLParamFloat64("latitude")
	if lngErr != nil || latErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "longitude and latitude are required", ctx)
		return
	}

	radius := ctx.URLParamFloat64Default("radius", services.DefaultSearchRadiusKm)
	if radius <= 0 {
		radius = services.DefaultSearchRadiusKm
	}

	now := time.Now()
	var meals []models.Meal
	if err := storage.DB.Scopes(models.VisibleMeals(now)).
		Preload("Host").
		Find(&meals).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	type mealWithDistance struct {
		meal       models.Meal
		distanceKm float64
	}
	within := make([]mealWithDistance, 0, len(meals))
	for i := range meals {
		d := services.CalculateDistance(latitude, longitude, meals[i].Lat, meals[i].Lng)
		if d <= radius {
			within = append(within, mealWithDistance{meal: meals[i], distanceKm: d})
		}
	}
	sort.Slice(within, func(i, j int) bool { return within[i].distanceKm < within[j].distanceKm })

	response := make([]iris.Map, 0, len(within))
	for i := range within {
		entry := annotateMeal(&within[i].meal, now)
		entry["distanceKm"] = within[i].distanceKm
		response = append(response, entry)
	}

	ctx.JSON(response)
}

// GetHostMeals lists all of the authenticated host's meals regardless of
// visibility, annotated with their current visibility state.
func GetHostMeals(ctx iris.Context) {
	hostID := ctx.Values().Get("userID").(uint)

	var meals []models.Meal
	if err := storage.DB.Where("host_id = ?", hostID).
		Order("serving_time DESC").
		Find(&meals).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	now := time.Now()
	response := make([]iris.Map, 0, len(meals))
	for i := range meals {
		entry := annotateMeal(&meals[i], now)
		entry["visibleToGuests"] = meals[i].Bookable(now)
		response = append(response, entry)
	}

	ctx.JSON(response)
}

func GetMealByID(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var meal models.Meal
	if err := storage.DB.Preload("Host").First(&meal, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Meal not found", ctx)
		return
	}

	ctx.JSON(&meal)
}

func UpdateMeal(ctx iris.Context) {
	hostID := ctx.Values().Get("userID").(uint)
	id := ctx.Params().GetUintDefault("id", 0)

	meal := getOwnedMeal(id, hostID, ctx)
	if meal == nil {
		return
	}

	var input UpdateMealInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	// A meal with active bookings cannot be pulled from sale
	if input.Status != nil && *input.Status != models.MealStatusActive && hasActiveBookings(meal.ID) {
		utils.CreateError(iris.StatusBadRequest, "Conflict", "Cannot mark meal unavailable when there are active bookings", ctx)
		return
	}

	if input.Name != "" {
		meal.Name = input.Name
	}
	if input.Description != "" {
		meal.Description = input.Description
	}
	if input.Price != nil {
		meal.Price = *input.Price
	}
	if input.Image != "" {
		image, imageErr := storage.ResolveMealImage(input.Image, fmt.Sprintf("meals/%d/%d", hostID, time.Now().UnixMilli()))
		if imageErr != nil {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", imageErr.Error(), ctx)
			return
		}
		meal.Image = image
	}
	if input.ServingTime != nil {
		now := time.Now()
		if input.ServingTime.Before(now.Add(MinServingLead)) {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Serving time must be at least 5 hours from now", ctx)
			return
		}
		meal.ServingTime = *input.ServingTime
	}
	if input.ExpiryTime != nil {
		meal.ExpiryTime = *input.ExpiryTime
	}
	if !meal.ExpiryTime.After(meal.ServingTime) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Expiry time must be after serving time", ctx)
		return
	}
	if meal.ExpiryTime.Sub(meal.ServingTime) < MinVisibilityWindow {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Meal must be visible for at least 1 hour", ctx)
		return
	}
	if input.Location != nil {
		meal.Lat = input.Location.Lat
		meal.Lng = input.Location.Lng
		meal.Address = input.Location.Address
	}
	if input.Status != nil {
		meal.Status = *input.Status
	}

	if err := storage.DB.Save(meal).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(meal)
}

func UpdateMealStatus(ctx iris.Context) {
	hostID := ctx.Values().Get("userID").(uint)
	id := ctx.Params().GetUintDefault("id", 0)

	meal := getOwnedMeal(id, hostID, ctx)
	if meal == nil {
		return
	}

	var input UpdateMealStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Status != models.MealStatusActive && hasActiveBookings(meal.ID) {
		utils.CreateError(iris.StatusBadRequest, "Conflict", "Cannot mark meal unavailable when there are active bookings", ctx)
		return
	}

	meal.Status = input.Status
	if err := storage.DB.Save(meal).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"message": "Meal status updated successfully", "meal": meal})
}

func DeleteMeal(ctx iris.Context) {
	hostID := ctx.Values().Get("userID").(uint)
	id := ctx.Params().GetUintDefault("id", 0)

	meal := getOwnedMeal(id, hostID, ctx)
	if meal == nil {
		return
	}

	var bookingCount int64
	storage.DB.Model(&models.Booking{}).Where("meal_id = ?", meal.ID).Count(&bookingCount)
	if bookingCount > 0 {
		utils.CreateError(iris.StatusBadRequest, "Conflict", "Cannot delete meal with existing bookings", ctx)
		return
	}

	if err := storage.DB.Delete(meal).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"message": "Meal deleted successfully"})
}

// hasActiveBookings reports whether the meal still has pending or accepted
// bookings against it.
func hasActiveBookings(mealID uint) bool {
	var count int64
	storage.DB.Model(&models.Booking{}).
		Where("meal_id = ? AND status IN ?", mealID, []string{models.BookingStatusPending, models.BookingStatusAccepted}).
		Count(&count)
	return count > 0
}

// getOwnedMeal loads a meal and enforces host ownership, writing the error
// response itself when it returns nil.
func getOwnedMeal(id uint, hostID uint, ctx iris.Context) *models.Meal {
	var meal models.Meal
	if err := storage.DB.First(&meal, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Meal not found", ctx)
		return nil
	}
	if meal.HostID != hostID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Not authorized", ctx)
		return nil
	}
	return &meal
}

func annotateMeals(meals []models.Meal, now time.Time) []iris.Map {
	response := make([]iris.Map, 0, len(meals))
	for i := range meals {
		response = append(response, annotateMeal(&meals[i], now))
	}
	return response
}

func annotateMeal(meal *models.Meal, now time.Time) iris.Map {
	hoursRemaining := int(math.Max(0, math.Round(meal.ExpiryTime.Sub(now).Hours())))
	return iris.Map{
		"meal":           meal,
		"isActive":       meal.Bookable(now),
		"visibleUntil":   meal.ExpiryTime,
		"timeRemaining":  fmt.Sprintf("%d hours", hoursRemaining),
		"isExpiringSoon": meal.ExpiryTime.Sub(now) <= 2*time.Hour,
	}
}

type CreateMealInput struct {
	Name               string         `json:"name" validate:"required,max=200"`
	Description        string         `json:"description" validate:"required"`
	Category           string         `json:"category"`
	Cuisine            string         `json:"cuisine"`
	DietaryPreferences []string       `json:"dietaryPreferences"`
	SpicyLevel         string         `json:"spicyLevel"`
	Ingredients        []string       `json:"ingredients"`
	Allergens          string         `json:"allergens"`
	ServingTime        time.Time      `json:"servingTime" validate:"required"`
	ExpiryTime         time.Time      `json:"expiryTime" validate:"required"`
	Price              float64        `json:"price" validate:"required,gt=0"`
	Image              string         `json:"image" validate:"required"`
	MaxServings        int            `json:"maxServings" validate:"required,min=1"`
	PreparationTime    int            `json:"preparationTime"`
	Location           *LocationInput `json:"location"`
}

type UpdateMealInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       *float64       `json:"price"`
	Image       string         `json:"image"`
	ServingTime *time.Time     `json:"servingTime"`
	ExpiryTime  *time.Time     `json:"expiryTime"`
	Location    *LocationInput `json:"location"`
	Status      *string        `json:"status"`
}

type UpdateMealStatusInput struct {
	Status string `json:"status" validate:"required,oneof=active expired sold_out"`
}
