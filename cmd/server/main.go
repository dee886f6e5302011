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

	"aventon/internal/app"
	"aventon/internal/config"
	"aventon/internal/handler"
	internalRedis "aventon/internal/redis"
	"aventon/internal/repository/postgres"
	"aventon/internal/service"
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

	// Background refresh loops stop when this context is cancelled.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// Wire dependencies.
	server := wireServer(appCtx, db, redisClient, nrApp, cfg)

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
func wireServer(ctx context.Context, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Service catalog: file override or the built-in tiers.
	catalog := config.DefaultCatalog()
	if cfg.Liquidation.CatalogPath != "" {
		loaded, err := config.LoadCatalog(cfg.Liquidation.CatalogPath)
		if err != nil {
			log.Fatalf("failed to load service catalog: %v", err)
		}
		catalog = loaded
	}

	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	rateStore := internalRedis.NewRateStore(redisClient)

	// Initialize repositories.
	driverRepo := postgres.NewDriverRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	liquidationRepo := postgres.NewLiquidationRepository(db)
	eventRepo := postgres.NewTripEventRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	liquidator := service.NewLiquidator(catalog, service.RateTable{
		CommissionRate: cfg.Liquidation.CommissionRate,
		IncomeTaxRate:  cfg.Liquidation.IncomeTaxRate,
		VATRate:        cfg.Liquidation.VATRate,
	})

	rateSource := service.NewHTTPRateSource(cfg.Exchange.SourceURL, cfg.Exchange.SourceField)
	exchangeService := service.NewExchangeService(rateSource, rateStore, cfg.Exchange.FallbackRate, cfg.Exchange.RefreshInterval)
	exchangeService.Start(ctx)

	matchingService := service.NewMatchingService(service.MatchingConfig{
		RadiiKm:      cfg.Matching.RadiiKm,
		TierWait:     cfg.Matching.TierWait,
		PollInterval: cfg.Matching.PollInterval,
	}, catalog, locationStore, lockStore, tripRepo, driverRepo, eventRepo, notificationService)

	tripService := service.NewTripService(tripRepo, driverRepo, liquidationRepo, eventRepo,
		liquidator, exchangeService, matchingService, notificationService)
	driverService := service.NewDriverService(locationStore, driverRepo, tripRepo)

	// Initialize handlers.
	tripHandler := handler.NewTripHandler(tripService)
	driverHandler := handler.NewDriverHandler(driverService)
	pricingHandler := handler.NewPricingHandler(liquidator, exchangeService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TripHandler:    tripHandler,
		DriverHandler:  driverHandler,
		PricingHandler: pricingHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
