package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dormride/internal/app"
	"dormride/internal/config"
	"dormride/internal/events"
	"dormride/internal/handler"
	internalRedis "dormride/internal/redis"
	"dormride/internal/repository"
	"dormride/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	startedAt := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Error("failed to initialize New Relic", "error", err)
		} else {
			logger.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	// PostgreSQL is only needed by the postgres document store.
	var db *sql.DB
	if cfg.Store.Backend == config.StoreBackendPostgres {
		db, err = app.NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			fatal(logger, "failed to connect to database", err)
		}
		defer db.Close()
		logger.Info("connected to PostgreSQL", "host", cfg.Database.Host, "db", cfg.Database.DBName)
	}

	// Redis backs the sweep lock, idempotency replay and optionally the store.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			fatal(logger, "failed to connect to redis", err)
		}
		defer redisClient.Close()
		logger.Info("connected to Redis", "addr", cfg.Redis.Addr)
	}

	store, err := app.NewDatasetStore(ctx, cfg.Store, db, redisClient)
	if err != nil {
		fatal(logger, "failed to create dataset store", err)
	}

	publisher, err := app.NewPublisher(cfg.Events, logger)
	if err != nil {
		fatal(logger, "failed to create notification publisher", err)
	}
	defer publisher.Close()

	loc, err := time.LoadLocation(cfg.Sweeper.TimeZone)
	if err != nil {
		fatal(logger, "invalid sweeper time zone", err)
	}

	// Wire dependencies.
	rideService, sweeper, server := wireServer(store, publisher, redisClient, nrApp, loc, startedAt, cfg, logger)

	if err := rideService.Load(ctx, cfg.Store.StrictLoad); err != nil {
		fatal(logger, "failed to load dataset", err)
	}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	if cfg.Sweeper.Enabled {
		go sweeper.Run(runCtx)
	}

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Backend, "broker", cfg.Events.Broker)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	stopRun()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		fatal(logger, "server forced to shutdown", err)
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the ride service, the
// expiry sweeper and the HTTP server.
func wireServer(
	store repository.DatasetStore,
	publisher events.Publisher,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	loc *time.Location,
	startedAt time.Time,
	cfg *config.Config,
	logger *slog.Logger,
) (*service.RideService, *service.ExpirySweeper, *http.Server) {
	// Redis lock keeps replicas from sweeping at the same time.
	var lockStore internalRedis.LockStoreInterface
	if redisClient != nil {
		lockStore = internalRedis.NewLockStore(redisClient)
	}

	// Initialize services.
	notificationService := service.NewNotificationService(publisher, logger)

	rideConfig := service.DefaultRideServiceConfig()
	rideConfig.Location = loc
	rideService := service.NewRideService(store, notificationService, logger, rideConfig)

	sweeper := service.NewExpirySweeper(rideService, lockStore, nrApp, cfg.Sweeper.Interval, logger)

	// Initialize handlers.
	rideHandler := handler.NewRideHandler(rideService)
	bookingHandler := handler.NewBookingHandler(rideService)
	adminHandler := handler.NewAdminHandler(rideService, sweeper)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:    rideHandler,
		BookingHandler: bookingHandler,
		AdminHandler:   adminHandler,
		AdminToken:     cfg.Admin.Token,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		StartedAt:      startedAt,
	})

	// Create HTTP server.
	return rideService, sweeper, &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// newLogger builds the process-wide JSON logger.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
