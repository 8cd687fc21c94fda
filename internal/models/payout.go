package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
	PayoutStatusCanceled   PayoutStatus = "canceled"
)

// Payout records one settlement attempt to a driver. It is created once per
// successful transfer+payout pair and updated later by processor webhooks.
type Payout struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverID         primitive.ObjectID `json:"driver_id" bson:"driver_id" validate:"required"`
	StripePayoutID   string             `json:"stripe_payout_id" bson:"stripe_payout_id"`
	StripeTransferID string             `json:"stripe_transfer_id" bson:"stripe_transfer_id"`
	Amount           float64            `json:"amount" bson:"amount" validate:"required"`
	Currency         string             `json:"currency" bson:"currency" default:"usd"`
	Status           PayoutStatus       `json:"status" bson:"status" default:"pending"`
	Method           string             `json:"method" bson:"method" default:"standard"`
	Description      string             `json:"description" bson:"description"`
	PeriodStart      time.Time          `json:"period_start" bson:"period_start"`
	PeriodEnd        time.Time          `json:"period_end" bson:"period_end"`
	ArrivalDate      *time.Time         `json:"arrival_date" bson:"arrival_date"`
	FailureCode      string             `json:"failure_code" bson:"failure_code"`
	FailureMessage   string             `json:"failure_message" bson:"failure_message"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsUnsettled reports whether the payout still ties up balance, i.e. its
// amount must be subtracted from the driver's available balance.
func (p *Payout) IsUnsettled() bool {
	return p.Status == PayoutStatusPending || p.Status == PayoutStatusProcessing
}
