package utils

import "time"

// Application Constants
const (
	AppName    = "PoolRide"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "usd"
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 7 * 24 * time.Hour
	PasswordMinLength  = 8

	// Ride Constants
	MaxSeatsPerRide    = 8
	MaxSeatsPerBooking = 4
	MaxRideDistance    = 1000.0 // kilometers

	// Earnings Constants
	// Processing fee mirrors the card processor's percentage+fixed pricing;
	// the commission is a flat platform cut charged once per ride.
	ProcessingFeePercentage = 0.029
	ProcessingFeeFixed      = 0.30
	CommissionPerRide       = 2.00

	// Payout Constants
	PayoutWindowDays     = 7
	PayoutLockTTL        = 10 * time.Minute
	DriverLocationExpiry = 2 * time.Minute
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrUserNotFound       = "user not found"
	ErrUserExists         = "user already exists"
	ErrInvalidToken       = "invalid token"
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrValidationFailed   = "validation failed"
	ErrPaymentFailed      = "payment failed"
	ErrRideNotFound       = "ride not found"
	ErrBookingNotFound    = "booking not found"
	ErrDriverNotFound     = "driver not found"
	ErrNoSeatsAvailable   = "no seats available"
)

// Cache Keys
const (
	CacheUserPrefix     = "user:"
	CacheRidePrefix     = "ride:"
	CacheLocationPrefix = "driver_location:"
	PayoutLockPrefix    = "payout:driver:"
)
