package config

type PaymentConfig struct {
	Stripe   *StripeConfig `yaml:"stripe"`
	Currency string        `yaml:"currency"`

	// Fee schedule applied to every completed ride. The percentage+fixed
	// pair mirrors the card processing cost; the commission is charged once
	// per ride regardless of seat count.
	ProcessingFeePercent float64 `yaml:"processing_fee_percent"`
	ProcessingFeeFixed   float64 `yaml:"processing_fee_fixed"`
	CommissionPerRide    float64 `yaml:"commission_per_ride"`
}

type StripeConfig struct {
	PublishableKey string `yaml:"publishable_key"`
	SecretKey      string `yaml:"secret_key"`
	WebhookSecret  string `yaml:"webhook_secret"`
}

type PayoutConfig struct {
	WindowDays     int    `yaml:"window_days"`
	Weekday        int    `yaml:"weekday"` // 0 = Sunday, matches time.Weekday
	Hour           int    `yaml:"hour"`
	CheckSchedule  string `yaml:"check_schedule"` // cron expression for the hourly due-check
	MaxConcurrency int64  `yaml:"max_concurrency"`
}

func loadPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		Stripe: &StripeConfig{
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Currency:             getEnv("PAYMENT_CURRENCY", "usd"),
		ProcessingFeePercent: getEnvAsFloat64("PROCESSING_FEE_PERCENT", 0.029),
		ProcessingFeeFixed:   getEnvAsFloat64("PROCESSING_FEE_FIXED", 0.30),
		CommissionPerRide:    getEnvAsFloat64("COMMISSION_PER_RIDE", 2.00),
	}
}

func loadPayoutConfig() *PayoutConfig {
	return &PayoutConfig{
		WindowDays:     getEnvAsInt("PAYOUT_WINDOW_DAYS", 7),
		Weekday:        getEnvAsInt("PAYOUT_WEEKDAY", 5), // Friday
		Hour:           getEnvAsInt("PAYOUT_HOUR", 9),
		CheckSchedule:  getEnv("PAYOUT_CHECK_SCHEDULE", "0 * * * *"),
		MaxConcurrency: int64(getEnvAsInt("PAYOUT_MAX_CONCURRENCY", 5)),
	}
}
