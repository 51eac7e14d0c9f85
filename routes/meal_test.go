package routes

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"homemeal-server/models"
	"homemeal-server/storage"
)

func TestCreateMealHostOnly(t *testing.T) {
	app := buildTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/meals", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken("guest"))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for guest role, got %d", resp.Code)
	}
}

func TestCreateMealValidatesInput(t *testing.T) {
	app := buildTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/meals", strings.NewReader(`{"name":"Dal"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken("host"))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete meal payload, got %d", resp.Code)
	}
}

func TestUpdateMealKeepsVisibilityWindow(t *testing.T) {
	app := buildTestApp()
	setupTestDB(t)
	meal := createTestHostWithMeal(t, 3)

	// Shrinking expiry to 30 minutes after serving breaks the 1 hour window
	expiry := meal.ServingTime.Add(30 * time.Minute).Format(time.RFC3339)
	payload := fmt.Sprintf(`{"expiryTime":%q}`, expiry)

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/meals/%d", meal.ID), strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken("host"))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when the visibility window shrinks below 1 hour, got %d", resp.Code)
	}

	var after models.Meal
	if err := storage.DB.First(&after, meal.ID).Error; err != nil {
		t.Fatalf("failed to reload meal: %v", err)
	}
	if !after.ExpiryTime.Equal(meal.ExpiryTime) {
		t.Fatal("expiry time must not change on a rejected update")
	}
}

func TestUpdateMealStatusBlockedByActiveBookings(t *testing.T) {
	app := buildTestApp()
	setupTestDB(t)
	meal := createTestHostWithMeal(t, 3)

	booking := models.Booking{
		MealID:      meal.ID,
		GuestID:     2,
		HostID:      meal.HostID,
		Status:      models.BookingStatusPending,
		BookingTime: time.Now(),
	}
	if err := storage.DB.Create(&booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/meals/%d/status", meal.ID), strings.NewReader(`{"status":"expired"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken("host"))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 while a pending booking exists, got %d", resp.Code)
	}

	var after models.Meal
	if err := storage.DB.First(&after, meal.ID).Error; err != nil {
		t.Fatalf("failed to reload meal: %v", err)
	}
	if after.Status != models.MealStatusActive {
		t.Fatalf("expected meal to stay active, got %q", after.Status)
	}

	// Once the booking is decided the status change goes through
	storage.DB.Model(&models.Booking{}).Where("id = ?", booking.ID).Update("status", models.BookingStatusRejected)

	req2 := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/meals/%d/status", meal.ID), strings.NewReader(`{"status":"expired"}`))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("Authorization", "Bearer "+signTestToken("host"))
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusOK {
		t.Fatalf("expected 200 with no active bookings, got %d", resp2.Code)
	}
}
