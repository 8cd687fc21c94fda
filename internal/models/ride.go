package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string

const (
	RideStatusScheduled  RideStatus = "scheduled"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

type Location struct {
	Address   string  `json:"address" bson:"address"`
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

type Ride struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverID       primitive.ObjectID `json:"driver_id" bson:"driver_id" validate:"required"`
	Origin         Location           `json:"origin" bson:"origin" validate:"required"`
	Destination    Location           `json:"destination" bson:"destination" validate:"required"`
	DepartureTime  time.Time          `json:"departure_time" bson:"departure_time" validate:"required"`
	SeatsTotal     int                `json:"seats_total" bson:"seats_total" validate:"required,min=1"`
	SeatsAvailable int                `json:"seats_available" bson:"seats_available"`
	PricePerSeat   float64            `json:"price_per_seat" bson:"price_per_seat" validate:"required,min=0"`
	Currency       string             `json:"currency" bson:"currency" default:"USD"`
	DistanceKm     float64            `json:"distance_km" bson:"distance_km"`
	Status         RideStatus         `json:"status" bson:"status" default:"scheduled"`
	StartedAt      *time.Time         `json:"started_at" bson:"started_at"`
	CompletedAt    *time.Time         `json:"completed_at" bson:"completed_at"`
	CancelledAt    *time.Time         `json:"cancelled_at" bson:"cancelled_at"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsEarnable reports whether the ride can contribute to driver earnings.
// Only rides the driver actually completed settle into a payout.
func (r *Ride) IsEarnable() bool {
	return r.Status == RideStatusCompleted
}
