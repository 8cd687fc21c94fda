package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string
type BookingPaymentStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"

	BookingPaymentPending           BookingPaymentStatus = "pending"
	BookingPaymentAuthorized        BookingPaymentStatus = "authorized"
	BookingPaymentCaptured          BookingPaymentStatus = "captured"
	BookingPaymentFailed            BookingPaymentStatus = "failed"
	BookingPaymentRefunded          BookingPaymentStatus = "refunded"
	BookingPaymentPartiallyRefunded BookingPaymentStatus = "partially_refunded"
)

type Booking struct {
	ID              primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	RideID          primitive.ObjectID   `json:"ride_id" bson:"ride_id" validate:"required"`
	RiderID         primitive.ObjectID   `json:"rider_id" bson:"rider_id" validate:"required"`
	NumberOfSeats   int                  `json:"number_of_seats" bson:"number_of_seats" default:"1"`
	PricePerSeat    *float64             `json:"price_per_seat" bson:"price_per_seat"`
	Status          BookingStatus        `json:"status" bson:"status" default:"confirmed"`
	PaymentIntentID string               `json:"payment_intent_id" bson:"payment_intent_id"`
	PaymentStatus   BookingPaymentStatus `json:"payment_status" bson:"payment_status" default:"pending"`
	PaidAmount      float64              `json:"paid_amount" bson:"paid_amount"`
	Currency        string               `json:"currency" bson:"currency" default:"USD"`
	RefundAmount    float64              `json:"refund_amount" bson:"refund_amount" default:"0"`
	RefundedAt      *time.Time           `json:"refunded_at" bson:"refunded_at"`
	CreatedAt       time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at" bson:"updated_at"`
}

// Seats returns the number of reserved seats, treating unset values as a
// single seat for rows created before the field existed.
func (b *Booking) Seats() int {
	if b.NumberOfSeats <= 0 {
		return 1
	}
	return b.NumberOfSeats
}

// EffectivePrice returns the price-per-seat locked in at booking time. The
// locked-in price is immutable; the ride's current price is only consulted
// for legacy rows that never captured one.
func (b *Booking) EffectivePrice(ridePrice float64) float64 {
	if b.PricePerSeat != nil {
		return *b.PricePerSeat
	}
	return ridePrice
}

// CountsTowardEarnings reports whether the booking contributes to driver
// earnings. Cancelled bookings never do.
func (b *Booking) CountsTowardEarnings() bool {
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusCompleted
}
