package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStatus string
type UserType string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"

	UserTypeRider  UserType = "rider"
	UserTypeDriver UserType = "driver"
	UserTypeAdmin  UserType = "admin"
)

type User struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName        string             `json:"first_name" bson:"first_name" validate:"required,min=2,max=50"`
	LastName         string             `json:"last_name" bson:"last_name" validate:"required,min=2,max=50"`
	Email            string             `json:"email" bson:"email" validate:"required,email"`
	Phone            string             `json:"phone" bson:"phone"`
	Password         string             `json:"-" bson:"password"`
	UserType         UserType           `json:"user_type" bson:"user_type" validate:"required"`
	Status           UserStatus         `json:"status" bson:"status" default:"active"`
	Rating           float64            `json:"rating" bson:"rating" default:"0"`
	StripeCustomerID string             `json:"stripe_customer_id" bson:"stripe_customer_id"`
	StripeAccountID  string             `json:"stripe_account_id" bson:"stripe_account_id"`
	DeviceToken      string             `json:"device_token" bson:"device_token"`
	LastLoginAt      *time.Time         `json:"last_login_at" bson:"last_login_at"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsDriver reports whether the user can offer rides and receive payouts.
func (u *User) IsDriver() bool {
	return u.UserType == UserTypeDriver
}

// HasPayoutAccount reports whether a connected payout account has been
// provisioned for the user. Drivers without one are excluded from payout runs.
func (u *User) HasPayoutAccount() bool {
	return u.StripeAccountID != ""
}
