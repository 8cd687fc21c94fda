package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"poolride/internal/config"
	"poolride/internal/handlers"
	"poolride/internal/middleware"
	"poolride/internal/repositories/mongodb"
	"poolride/internal/services"
	"poolride/pkg/cache"
	"poolride/pkg/database"
	"poolride/pkg/logger"
	"poolride/pkg/payment"
	"poolride/pkg/push"
	"poolride/pkg/websocket"
	"poolride/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// .env is optional; real deployments inject environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// MongoDB
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx); err != nil {
		appLogger.Fatalf("Failed to create indexes: %v", err)
	}
	cancelIndexes()

	// Redis
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Payment gateway
	gateway, err := payment.NewStripeGateway(cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.WebhookSecret)
	if err != nil {
		appLogger.Fatalf("Failed to initialize payment gateway: %v", err)
	}

	// Push provider is optional; booking notifications degrade gracefully
	var pusher push.Provider
	if cfg.Push.FCM.Credentials != "" {
		fcm, err := push.NewFCMProvider(cfg.Push.FCM.Credentials)
		if err != nil {
			appLogger.WithError(err).Warn("FCM unavailable, push notifications disabled")
		} else {
			pusher = fcm
		}
	}

	// Repositories
	userRepo := mongodb.NewUserRepository(db.Database, redisCache)
	rideRepo := mongodb.NewRideRepository(db.Database)
	bookingRepo := mongodb.NewBookingRepository(db.Database)
	payoutRepo := mongodb.NewPayoutRepository(db.Database)

	// Services
	locationService := services.NewLocationService(redisCache)
	wsHandler := websocket.NewHandler(locationService)

	earningsService := services.NewEarningsService(services.FeeSchedule{
		ProcessingFeePercent: cfg.Payment.ProcessingFeePercent,
		ProcessingFeeFixed:   cfg.Payment.ProcessingFeeFixed,
		CommissionPerRide:    cfg.Payment.CommissionPerRide,
	})

	authService := services.NewAuthService(userRepo, cfg.Security.JWTSecret, appLogger)
	rideService := services.NewRideService(rideRepo, bookingRepo, gateway, wsHandler, appLogger)
	bookingService := services.NewBookingService(bookingRepo, rideRepo, userRepo, gateway, pusher, cfg.Payment.Currency, appLogger)
	paymentService := services.NewPaymentService(bookingRepo, rideRepo, userRepo, gateway, cfg.Payment.Currency, appLogger)
	payoutService := services.NewPayoutService(
		userRepo, rideRepo, bookingRepo, payoutRepo,
		earningsService, gateway, redisCache,
		cfg.Payout, cfg.Payment.Currency, appLogger,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	rideHandler := handlers.NewRideHandler(rideService, locationService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	payoutHandler := handlers.NewPayoutHandler(payoutService, gateway, cfg.Payout.WindowDays)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, authHandler, cfg.Security.JWTSecret)
		routes.SetupRideRoutes(v1, rideHandler, bookingHandler, cfg.Security.JWTSecret)
		routes.SetupPaymentRoutes(v1, paymentHandler, payoutHandler, cfg.Security.JWTSecret)
	}

	// Live updates over websocket
	router.GET("/ws", middleware.AuthRequired(cfg.Security.JWTSecret), wsHandler.HandleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
		})
	})

	// Hourly due-check: the cron only decides *when* to run; the payout
	// service decides *whether* it is the configured weekday/hour.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Payout.CheckSchedule, func() {
		if !payoutService.IsDue(time.Now()) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()

		if _, err := payoutService.RunWeeklyPayouts(ctx); err != nil {
			appLogger.WithError(err).Error("Scheduled payout run failed")
		}
	})
	if err != nil {
		appLogger.Fatalf("Failed to schedule payout check: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	appLogger.Infof("Starting server on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		appLogger.Fatalf("Server failed: %v", err)
	}
}
