package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/ridehail/backend/internal/application/finance"
	incentiveapp "github.com/ridehail/backend/internal/application/incentive"
	"github.com/ridehail/backend/internal/domain/payout"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/infrastructure/cache"
	"github.com/ridehail/backend/internal/infrastructure/config"
	"github.com/ridehail/backend/internal/infrastructure/logger"
	"github.com/ridehail/backend/internal/infrastructure/payment"
	"github.com/ridehail/backend/internal/infrastructure/persistence"
	"github.com/ridehail/backend/internal/infrastructure/scheduler"
	"github.com/ridehail/backend/internal/infrastructure/telemetry"
	"github.com/ridehail/backend/internal/interfaces/http/handler"
	"github.com/ridehail/backend/internal/interfaces/http/middleware"
	"github.com/ridehail/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Ride Finance API
//	@version		1.0
//	@description	Driver earnings ledger, settlement, and payout service for a ride-hailing platform.

//	@contact.name	API Support
//	@contact.url	https://github.com/ridehail/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Ride Finance Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel, logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Transaction scope shared by every finance service: one Execute call is
	// one database transaction over all ledger repositories.
	scope := persistence.NewGormTransactionScope(db.DB)

	// Campaign repositories are read outside the finance transaction scope
	campaignRepo := persistence.NewGormCampaignRepository(db.DB)
	incentiveRepo := persistence.NewGormDriverIncentiveRepository(db.DB)
	metricRepo := persistence.NewGormDriverMetricRepository(db.DB)

	// Core finance services
	postingService := financeapp.NewPostingService(scope, log)
	walletService := financeapp.NewWalletService(scope, log)
	settlementService := financeapp.NewSettlementService(scope, walletService, cfg.Finance.SettlementDays, log)
	settlementService.SetSweepBatchSize(cfg.Scheduler.SweepBatch)
	commissionService := financeapp.NewCommissionService(cfg.Finance.CommissionRate, campaignRepo, log)
	eventService := financeapp.NewEventService(scope, postingService, settlementService, walletService, log)
	integrityService := financeapp.NewIntegrityService(scope, log)

	// Incentive service doubles as the ride metrics tracker for campaigns
	incentiveService := incentiveapp.NewService(
		campaignRepo, incentiveRepo, metricRepo,
		scope, postingService, settlementService, walletService, log,
	)

	ridePaymentService := financeapp.NewRidePaymentService(
		scope, postingService, commissionService, settlementService, walletService,
		incentiveService, log,
	)

	// Payment rail: real Pix adapter or the simulator, by config
	gateway, err := buildPayoutGateway(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize payout gateway", zap.Error(err))
	}
	log.Info("Payout gateway initialized", zap.String("provider", cfg.Payout.Provider))

	// Idempotency store guards payout execution against double transfers.
	// Redis is preferred; outside production a single-instance in-memory
	// store is an acceptable fallback.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	payoutService := financeapp.NewPayoutService(
		scope, postingService, walletService, gateway,
		idempotencyStore,
		shared.IdempotencyConfig{
			TTL:     cfg.Finance.IdempotencyTTL,
			Enabled: cfg.Finance.IdempotencyEnable,
		},
		log,
	)

	// Settlement sweep releases due D+N holds in the background
	sweepScheduler := scheduler.NewSettlementSweepScheduler(settlementService, log, scheduler.SettlementSweepConfig{
		Enabled:      cfg.Scheduler.Enabled,
		Interval:     cfg.Scheduler.SweepInterval,
		SweepTimeout: 2 * time.Minute,
	})
	if err := sweepScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start settlement sweep scheduler", zap.Error(err))
	}
	defer func() {
		if err := sweepScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping settlement sweep scheduler", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	walletHandler := handler.NewWalletHandler(walletService)
	payoutHandler := handler.NewPayoutHandler(payoutService)
	rideHandler := handler.NewRideHandler(ridePaymentService)
	eventHandler := handler.NewEventHandler(eventService)
	campaignHandler := handler.NewCampaignHandler(incentiveService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	auditHandler := handler.NewAuditHandler(integrityService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Driver-scoped read and money endpoints
	driverRoutes := router.NewDomainGroup("drivers", "/drivers")
	driverRoutes.GET("/:driverID/wallet", walletHandler.GetWallet)
	driverRoutes.POST("/:driverID/wallet/refresh", walletHandler.RefreshWallet)
	driverRoutes.PUT("/:driverID/wallet/blocked", walletHandler.SetBlockedBalance)
	driverRoutes.GET("/:driverID/payouts", payoutHandler.ListDriverPayouts)
	driverRoutes.GET("/:driverID/payouts/outstanding", payoutHandler.GetOutstandingPayouts)
	driverRoutes.GET("/:driverID/events", eventHandler.GetDriverHistory)
	driverRoutes.GET("/:driverID/incentives", campaignHandler.GetDriverProgress)
	driverRoutes.POST("/:driverID/credits", campaignHandler.GrantCredit)

	// Ride settlement entry points
	rideRoutes := router.NewDomainGroup("rides", "/rides")
	rideRoutes.POST("/complete", rideHandler.CompleteRide)
	rideRoutes.POST("/cancellation-fee", rideHandler.ChargeCancellationFee)
	rideRoutes.POST("/:id/confirm-cash", rideHandler.ConfirmCashPayment)

	// Financial event lifecycle
	ledgerRoutes := router.NewDomainGroup("ledger", "")
	ledgerRoutes.POST("/events", eventHandler.CreateEvent)
	ledgerRoutes.GET("/events/:id", eventHandler.GetEvent)
	ledgerRoutes.POST("/events/:id/complete", eventHandler.CompleteEvent)
	ledgerRoutes.POST("/events/:id/fail", eventHandler.FailEvent)
	ledgerRoutes.POST("/events/:id/reverse", eventHandler.ReverseEvent)
	ledgerRoutes.POST("/adjustments", eventHandler.ApplyAdjustment)

	// Payout lifecycle
	payoutRoutes := router.NewDomainGroup("payouts", "/payouts")
	payoutRoutes.POST("", payoutHandler.RequestPayout)
	payoutRoutes.GET("/:id", payoutHandler.GetPayout)
	payoutRoutes.POST("/:id/execute", payoutHandler.ExecutePayout)

	// Settlement releases (on-demand; the scheduler covers the steady state)
	settlementRoutes := router.NewDomainGroup("settlements", "/settlements")
	settlementRoutes.POST("/release-due", settlementHandler.ReleaseDue)
	settlementRoutes.POST("/:id/release", settlementHandler.ReleaseNow)

	// Incentive campaigns and rewards
	campaignRoutes := router.NewDomainGroup("campaigns", "")
	campaignRoutes.POST("/campaigns", campaignHandler.CreateCampaign)
	campaignRoutes.GET("/campaigns", campaignHandler.ListCampaigns)
	campaignRoutes.GET("/campaigns/:id", campaignHandler.GetCampaign)
	campaignRoutes.POST("/campaigns/:id/disable", campaignHandler.DisableCampaign)
	campaignRoutes.POST("/incentives/:id/pay", campaignHandler.PayReward)

	// Ledger integrity audit
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.POST("/ledger/audit", auditHandler.RunAudit)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(driverRoutes).
		Register(rideRoutes).
		Register(ledgerRoutes).
		Register(payoutRoutes).
		Register(settlementRoutes).
		Register(campaignRoutes).
		Register(adminRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildPayoutGateway selects the payment rail adapter from configuration.
// Production validation rejects the simulator, so "pix" is the only provider
// that survives into a real deployment.
func buildPayoutGateway(cfg *config.Config, log *zap.Logger) (payout.Gateway, error) {
	switch cfg.Payout.Provider {
	case "pix":
		return payment.NewPixAdapter(&payment.PixConfig{
			BaseURL:        cfg.Payout.BaseURL,
			APIKey:         cfg.Payout.APIKey,
			RequestTimeout: cfg.Payout.RequestTimeout,
		})
	default:
		log.Warn("Using simulated payment rail", zap.String("provider", cfg.Payout.Provider))
		return payment.NewPixSimulator(
			payment.WithDelay(cfg.Payout.SimulateDelay),
			payment.WithFailureRate(cfg.Payout.FailureRate),
		), nil
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		body := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			body["pool"] = stats
		}
		c.JSON(http.StatusOK, body)
	}
}
