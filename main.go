package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"homemeal-server/routes"
	"homemeal-server/services"
	"homemeal-server/storage"
	"homemeal-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, x-auth-token")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// JWT verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifier.Extractors = append(accessTokenVerifier.Extractors, func(ctx iris.Context) string {
		return ctx.GetHeader("x-auth-token")
	})
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Expired listings are swept in the background
	services.StartMealExpirySweep(time.Minute)

	app.Get("/", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"message": "HomeMeal API is running"})
	})
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/users")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Get("/me", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetCurrentUser)
		user.Put("/profile", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateProfile)
		user.Get("/hosts/nearby", routes.GetNearbyHosts)
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
	}

	meal := app.Party("/api/meals")
	{
		meal.Get("/active", routes.GetActiveMeals)
		meal.Get("/nearby", accessTokenVerifierMiddleware, routes.GetNearbyMeals)
		meal.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, utils.HostOnlyMiddleware, routes.CreateMeal)
		meal.Get("/host", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, utils.HostOnlyMiddleware, routes.GetHostMeals)
		meal.Get("/{id:uint}", accessTokenVerifierMiddleware, routes.GetMealByID)
		meal.Put("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, utils.HostOnlyMiddleware, routes.UpdateMeal)
		meal.Put("/{id:uint}/status", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, utils.HostOnlyMiddleware, routes.UpdateMealStatus)
		meal.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, utils.HostOnlyMiddleware, routes.DeleteMeal)
	}

	booking := app.Party("/api/bookings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		booking.Post("/", utils.GuestOnlyMiddleware, routes.CreateBooking)
		booking.Get("/", routes.GetUserBookings)
		booking.Get("/{id:uint}", routes.GetBookingByID)
		booking.Put("/{id:uint}/status", utils.HostOnlyMiddleware, routes.UpdateBookingStatus)
		booking.Put("/{id:uint}/cancel", routes.CancelBooking)
		booking.Put("/{id:uint}/complete", utils.HostOnlyMiddleware, routes.CompleteBooking)
	}

	notifications := app.Party("/api/notifications")
	{
		notifications.Get("/stream", routes.StreamNotifications)
		notifications.Get("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetNotifications)
		notifications.Put("/{id:uint}/read", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.MarkNotificationRead)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
