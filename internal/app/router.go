package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dormride/internal/handler"
	"dormride/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler    *handler.RideHandler
	BookingHandler *handler.BookingHandler
	AdminHandler   *handler.AdminHandler
	AdminToken     string
	RedisClient    *redis.Client         // Optional: enables Idempotency-Key replay
	NewRelicApp    *newrelic.Application // Optional
	StartedAt      time.Time
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", handler.Health(deps.StartedAt))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.GET("", deps.RideHandler.ListAvailable)
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.DELETE("/:id", deps.RideHandler.DeleteRide)
			rides.GET("/:id/bookings", deps.BookingHandler.ListByRide)
		}

		// Driver routes.
		v1.GET("/drivers/:id/rides", deps.RideHandler.ListByDriver)

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.DELETE("/:id", deps.BookingHandler.DeleteBooking)
		}

		// Passenger routes.
		v1.GET("/passengers/:id/bookings", deps.BookingHandler.ListByPassenger)

		// Admin routes.
		admin := v1.Group("/admin", middleware.AdminTokenMiddleware(deps.AdminToken))
		{
			admin.GET("/rides", deps.AdminHandler.AllRides)
			admin.GET("/bookings", deps.AdminHandler.AllBookings)
			admin.POST("/cleanup", deps.AdminHandler.Cleanup)
		}
	}

	registerWebAppRoutes(router, deps)

	return router
}

// registerWebAppRoutes serves the paths the Telegram web app calls.
// Handlers are shared with /v1.
func registerWebAppRoutes(router *gin.Engine, deps RouterDeps) {
	api := router.Group("/api")

	rides := api.Group("/rides")
	{
		rides.GET("", deps.RideHandler.ListAvailable)
		rides.POST("", deps.RideHandler.CreateRide)
		rides.GET("/driver/:id", deps.RideHandler.ListByDriver)
		rides.DELETE("/:id", deps.RideHandler.DeleteRide)
	}

	bookings := api.Group("/bookings")
	{
		bookings.POST("", deps.BookingHandler.CreateBooking)
		bookings.GET("/ride/:id", deps.BookingHandler.ListByRide)
		bookings.GET("/user/:id", deps.BookingHandler.ListByPassenger)
		bookings.DELETE("/:id", deps.BookingHandler.DeleteBooking)
	}

	admin := api.Group("/admin", middleware.AdminTokenMiddleware(deps.AdminToken))
	{
		admin.GET("/rides", deps.AdminHandler.AllRides)
		admin.GET("/bookings", deps.AdminHandler.AllBookings)
		admin.POST("/cleanup", deps.AdminHandler.Cleanup)
	}
}
