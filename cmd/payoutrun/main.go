package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"poolride/internal/config"
	"poolride/internal/repositories/mongodb"
	"poolride/internal/services"
	"poolride/pkg/cache"
	"poolride/pkg/database"
	"poolride/pkg/logger"
	"poolride/pkg/payment"

	"github.com/joho/godotenv"
)

// payoutrun is the operator-invoked one-shot payout trigger. It runs the same
// weekly orchestration the scheduler does, prints a per-driver summary, and
// exits 0 if a report was produced; individual driver failures do not fail the
// process.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		Output: "stderr",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

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

	gateway, err := payment.NewStripeGateway(cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.WebhookSecret)
	if err != nil {
		appLogger.Fatalf("Failed to initialize payment gateway: %v", err)
	}

	userRepo := mongodb.NewUserRepository(db.Database, redisCache)
	rideRepo := mongodb.NewRideRepository(db.Database)
	bookingRepo := mongodb.NewBookingRepository(db.Database)
	payoutRepo := mongodb.NewPayoutRepository(db.Database)

	earningsService := services.NewEarningsService(services.FeeSchedule{
		ProcessingFeePercent: cfg.Payment.ProcessingFeePercent,
		ProcessingFeeFixed:   cfg.Payment.ProcessingFeeFixed,
		CommissionPerRide:    cfg.Payment.CommissionPerRide,
	})

	payoutService := services.NewPayoutService(
		userRepo, rideRepo, bookingRepo, payoutRepo,
		earningsService, gateway, redisCache,
		cfg.Payout, cfg.Payment.Currency, appLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	report, err := payoutService.RunWeeklyPayouts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "payout run failed: %v\n", err)
		os.Exit(1)
	}

	printReport(report)
}

func printReport(report *services.PayoutRunReport) {
	fmt.Printf("Payout run %s to %s\n",
		report.PeriodStart.Format("2006-01-02"),
		report.PeriodEnd.Format("2006-01-02"))
	fmt.Printf("Drivers: %d  Paid: %d  Skipped: %d  Failed: %d  Total: $%.2f\n",
		report.Drivers, report.Paid, report.Skipped, report.Failed, report.TotalAmount)
	fmt.Println()

	for _, result := range report.Results {
		switch {
		case result.Error != nil:
			fmt.Printf("  %s  FAILED   %v\n", result.DriverID.Hex(), result.Error)
		case result.Skipped:
			fmt.Printf("  %s  skipped  %s\n", result.DriverID.Hex(), result.SkipReason)
		default:
			fmt.Printf("  %s  paid     $%.2f  (payout %s)\n",
				result.DriverID.Hex(), result.Amount, result.PayoutID)
		}
	}

	fmt.Printf("\nFinished in %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
}
