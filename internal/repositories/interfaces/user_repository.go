package interfaces

import (
	"context"

	"poolride/internal/models"
	"poolride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Authentication operations
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Payout operations
	GetPayoutEligibleDrivers(ctx context.Context) ([]*models.User, error)

	// Listing
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error)
}
