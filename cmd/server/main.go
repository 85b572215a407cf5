package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-revenue-scanner/internal/config"
	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/events"
	"github.com/niaga-platform/service-revenue-scanner/internal/handlers"
	applogger "github.com/niaga-platform/service-revenue-scanner/internal/logger"
	"github.com/niaga-platform/service-revenue-scanner/internal/middleware"
	"github.com/niaga-platform/service-revenue-scanner/internal/monitoring"
	shopifyprovider "github.com/niaga-platform/service-revenue-scanner/internal/providers/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/routes"
	"github.com/niaga-platform/service-revenue-scanner/internal/scanner"
	"github.com/niaga-platform/service-revenue-scanner/internal/services"
)

func main() {
	// Load .env file in development
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := applogger.NewLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Sentry for error tracking
	sentryMonitor, err := monitoring.NewSentryMonitor(&monitoring.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		ServiceName:      "revenue-scanner-service",
		TracesSampleRate: 0.1,
	}, logger)
	if err != nil {
		logger.Warn("Failed to initialize Sentry", zap.Error(err))
	}
	defer sentryMonitor.Flush(2 * time.Second)

	// Connect to Redis (optional - recovery ledger runs permissive without it)
	var redisClient *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Failed to connect to Redis, recovery cooldowns disabled", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			logger.Info("Connected to Redis", zap.String("addr", addr))
			defer redisClient.Close()
		}
		cancel()
	}

	// Connect to NATS (optional - only if configured)
	var natsConn *nats.Conn
	var eventPublisher *events.Publisher
	var eventSubscriber *events.Subscriber

	if cfg.NATS.URL != "" {
		natsConn, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			logger.Warn("Failed to connect to NATS, recovery actions disabled", zap.Error(err))
		} else {
			logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
			eventPublisher = events.NewPublisher(natsConn, logger)
			defer natsConn.Close()
		}
	}

	// Shopify Admin API
	retryPolicy := shopifydomain.DefaultRetryPolicy().WithMaxAttempts(cfg.Scan.MaxRetries)
	shopifyClient := shopifyprovider.NewClient(&shopifyprovider.ClientConfig{
		APIVersion:     cfg.Shopify.APIVersion,
		RequestTimeout: cfg.Scan.RequestTimeout,
		Logger:         logger,
		RetryPolicy:    retryPolicy,
		RateLimiter:    shopifydomain.NewRateLimiter(shopifydomain.DefaultRateLimitConfig()),
	})
	store := shopifyprovider.NewStore(shopifyClient)

	tokenVerifier := shopifydomain.NewSessionTokenVerifier(cfg.Shopify.APIKey, cfg.Shopify.APISecret)
	tokenExchanger := shopifyprovider.NewTokenExchanger(&shopifyprovider.ExchangeConfig{
		APIKey:         cfg.Shopify.APIKey,
		APISecret:      cfg.Shopify.APISecret,
		RequestTimeout: cfg.Scan.RequestTimeout,
		RetryPolicy:    retryPolicy,
		Logger:         logger,
	})

	// Initialize services
	storeScanner := scanner.NewScanner(store, &scanner.Config{
		OrderLookbackDays: cfg.Scan.OrderLookbackDays,
	}, logger)
	scanService := services.NewScanService(storeScanner, eventPublisher, logger)

	recoveryService := services.NewRecoveryService(
		services.NewRecoveryLedger(redisClient, logger),
		eventPublisher,
		&services.RecoveryServiceConfig{
			ReminderCooldown: cfg.Recovery.ReminderCooldown,
			DiscountTTL:      cfg.Recovery.DiscountTTL,
			DiscountPrefix:   cfg.Recovery.DiscountPrefix,
		},
		logger,
	)

	// Start NATS subscriber if connected
	if natsConn != nil {
		eventSubscriber = events.NewSubscriber(natsConn, recoveryService, logger)
		if err := eventSubscriber.Start(); err != nil {
			logger.Warn("Failed to start event subscriber", zap.Error(err))
		} else {
			defer eventSubscriber.Stop()
		}
	}

	// Initialize handlers
	appHandler := handlers.NewAppHandler(scanService, recoveryService, store, logger)
	webhookHandler := handlers.NewWebhookHandler(
		shopifyprovider.NewWebhookParser(cfg.Shopify.APISecret),
		eventPublisher,
		recoveryService,
		logger,
	)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Apply global middleware
	router.Use(sentryMonitor.GinMiddleware())
	router.Use(sentryMonitor.RecoveryMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.CORSWithOrigins(cfg.CORS.Origins()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "revenue-scanner",
			"time":    time.Now().UTC(),
			"redis":   redisClient != nil,
			"nats":    natsConn != nil && natsConn.IsConnected(),
		})
	})

	// Setup routes using the routes package
	routes.SetupRoutes(router, &routes.RouteConfig{
		AppHandler:        appHandler,
		WebhookHandler:    webhookHandler,
		SessionMiddleware: middleware.ShopifySession(tokenVerifier, tokenExchanger, logger),
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Revenue scanner service starting on port " + cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
