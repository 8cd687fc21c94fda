package interfaces

import (
	"context"
	"time"

	"poolride/internal/models"
	"poolride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PayoutRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, payout *models.Payout) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payout, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Webhook operations
	GetByStripePayoutID(ctx context.Context, stripePayoutID string) (*models.Payout, error)

	// Balance operations
	GetPendingAmount(ctx context.Context, driverID primitive.ObjectID, since time.Time) (float64, error)

	// Listing
	GetByDriverID(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error)
}
