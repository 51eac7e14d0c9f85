package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"homemeal-server/models"
	"homemeal-server/storage"
	"homemeal-server/utils"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// buildTestApp creates a minimal Iris app with the user, meal and booking
// routes behind the real JWT verifier and role middlewares, wired the same
// way as main.
func buildTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	os.Setenv("REFRESH_TOKEN_SECRET", "testrefreshsecret")
	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	user := app.Party("/api/users")
	{
		user.Post("/register", Register)
		user.Post("/login", Login)
	}

	meal := app.Party("/api/meals")
	{
		meal.Get("/active", GetActiveMeals)
		meal.Get("/nearby", accessTokenVerifierMiddleware, GetNearbyMeals)
		meal.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, utils.HostOnlyMiddleware, CreateMeal)
		meal.Get("/{id:uint}", accessTokenVerifierMiddleware, GetMealByID)
		meal.Put("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, utils.HostOnlyMiddleware, UpdateMeal)
		meal.Put("/{id:uint}/status", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, utils.HostOnlyMiddleware, UpdateMealStatus)
	}

	booking := app.Party("/api/bookings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		booking.Post("/", utils.GuestOnlyMiddleware, CreateBooking)
	}

	app.Build()
	return app
}

// setupTestDB points storage.DB at a fresh in-memory sqlite database.
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Meal{}, &models.Booking{}, &models.Notification{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	storage.DB = db
	storage.InitializeRedis()
}

// signTestToken returns a signed JWT for user 1 with the given role
func signTestToken(role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(utils.AccessToken{ID: 1, Role: role})
	return string(token)
}

func createTestHostWithMeal(t *testing.T, remainingServings int) models.Meal {
	t.Helper()

	host := models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleHost}
	if err := storage.DB.Create(&host).Error; err != nil {
		t.Fatalf("failed to create host: %v", err)
	}

	now := time.Now()
	meal := models.Meal{
		HostID:            host.ID,
		Name:              "Rajma Chawal",
		Description:       "Home style",
		Category:          "dinner",
		Cuisine:           "indian",
		ServingTime:       now.Add(6 * time.Hour),
		ExpiryTime:        now.Add(8 * time.Hour),
		Price:             10,
		MaxServings:       remainingServings,
		RemainingServings: remainingServings,
		Status:            models.MealStatusActive,
	}
	if err := storage.DB.Create(&meal).Error; err != nil {
		t.Fatalf("failed to create meal: %v", err)
	}
	return meal
}

func TestCreateBookingRequiresToken(t *testing.T) {
	app := buildTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{"mealId":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestCreateBookingGuestOnly(t *testing.T) {
	app := buildTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{"mealId":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken("host"))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for host role, got %d", resp.Code)
	}
}

func TestCreateBookingValidatesInput(t *testing.T) {
	app := buildTestApp()

	// Missing mealId fails validation before anything else runs
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken("guest"))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing mealId, got %d", resp.Code)
	}
}

func TestCreateBookingRestoresServingOnFailure(t *testing.T) {
	app := buildTestApp()
	setupTestDB(t)
	meal := createTestHostWithMeal(t, 2)

	// Make the booking insert fail after the serving has been claimed
	if err := storage.DB.Migrator().DropTable(&models.Booking{}); err != nil {
		t.Fatalf("failed to drop bookings table: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{"mealId":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken("guest"))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the insert fails, got %d", resp.Code)
	}

	var after models.Meal
	if err := storage.DB.First(&after, meal.ID).Error; err != nil {
		t.Fatalf("failed to reload meal: %v", err)
	}
	if after.RemainingServings != 2 {
		t.Fatalf("expected the claimed serving to be restored, got %d remaining", after.RemainingServings)
	}
}

func TestNearbyMealsRequiresToken(t *testing.T) {
	app := buildTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/meals/nearby?longitude=77.2&latitude=28.6", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestGetMealByIDRequiresToken(t *testing.T) {
	app := buildTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/meals/1", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body %q: %v", resp.Body.String(), err)
	}
	return body
}
