package interfaces

import (
	"context"

	"poolride/internal/models"
	"poolride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Payment operations
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Booking, error)

	// Earnings operations
	GetEarnableByRideID(ctx context.Context, rideID primitive.ObjectID) ([]*models.Booking, error)

	// Listing
	GetByRiderID(ctx context.Context, riderID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error)
	GetByRideID(ctx context.Context, rideID primitive.ObjectID) ([]*models.Booking, error)
}
