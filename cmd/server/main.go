package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"courier/internal/app"
	"courier/internal/config"
	"courier/internal/handler"
	"courier/internal/ledger"
	internalRedis "courier/internal/redis"
	"courier/internal/repository/postgres"
	"courier/internal/route"
	"courier/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

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
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	driverRepo := postgres.NewDriverRepository(db)
	deliveryRepo := postgres.NewDeliveryRepository(db)
	balanceRepo := postgres.NewBalanceRepository(db)
	remittanceRepo := postgres.NewRemittanceRepository(db)

	// Commission ledger. No live rate source is wired yet, so every
	// statement uses the configured fallback rate and is flagged as such.
	commissionLedger := ledger.New(cfg.Remittance.OverdueAfter, nil, cfg.Remittance.FallbackRate)

	// Initialize services.
	notificationService := service.NewNotificationService()
	transitionService := service.NewTransitionService(
		deliveryRepo,
		lockStore,
		cacheStore,
		notificationService,
		service.RetryPolicy{
			MaxAttempts: cfg.Transition.MaxAttempts,
			BaseBackoff: cfg.Transition.BaseBackoff,
		},
	)
	trackingService := service.NewTrackingService(
		locationStore,
		route.NewStraightLinePlanner(),
		notificationService,
		service.TrackingConfig{
			OffRouteThresholdMeters: cfg.Tracking.OffRouteThresholdMeters,
			Debounce: route.DebounceConfig{
				MinInterval:    cfg.Tracking.RerouteMinInterval,
				MinMovedMeters: cfg.Tracking.RerouteMinMovedMeters,
			},
		},
	)
	transitionService.SetSessionEnder(trackingService)
	driverService := service.NewDriverService(locationStore, driverRepo)
	gateway := service.NewMockSettlementGateway()
	remittanceService := service.NewRemittanceService(
		balanceRepo,
		remittanceRepo,
		commissionLedger,
		gateway,
		notificationService,
		cacheStore,
		cfg.Remittance.Window,
	)
	statementService := service.NewStatementService(commissionLedger, balanceRepo, driverRepo, notificationService)

	// Initialize handlers.
	deliveryHandler := handler.NewDeliveryHandler(transitionService, trackingService, statementService)
	driverHandler := handler.NewDriverHandler(driverService, driverRepo)
	remittanceHandler := handler.NewRemittanceHandler(remittanceService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		DeliveryHandler:   deliveryHandler,
		DriverHandler:     driverHandler,
		RemittanceHandler: remittanceHandler,
		RedisClient:       redisClient,
		NewRelicApp:       nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
