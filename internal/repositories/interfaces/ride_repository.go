package interfaces

import (
	"context"
	"time"

	"poolride/internal/models"
	"poolride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RideStatus) error

	// Seat management
	DecrementSeats(ctx context.Context, id primitive.ObjectID, seats int) error
	IncrementSeats(ctx context.Context, id primitive.ObjectID, seats int) error

	// Listing
	GetUpcoming(ctx context.Context, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	GetByDriverID(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)

	// Earnings operations
	GetCompletedInWindow(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) ([]*models.Ride, error)
}
