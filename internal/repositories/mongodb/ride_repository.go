package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"poolride/internal/models"
	"poolride/internal/repositories/interfaces"
	"poolride/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rideRepository struct {
	collection *mongo.Collection
}

func NewRideRepository(db *mongo.Database) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection("rides"),
	}
}

// Basic CRUD operations
func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	ride.ID = primitive.NewObjectID()
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = time.Now()

	if ride.Status == "" {
		ride.Status = models.RideStatusScheduled
	}

	_, err := r.collection.InsertOne(ctx, ride)
	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}

	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New(utils.ErrRideNotFound)
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}

	return nil
}

func (r *rideRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RideStatus) error {
	return r.Update(ctx, id, map[string]interface{}{"status": status})
}

// Seat management

// DecrementSeats reserves seats atomically; the filter refuses the update when
// fewer seats remain than requested.
func (r *rideRepository) DecrementSeats(ctx context.Context, id primitive.ObjectID, seats int) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id":             id,
			"seats_available": bson.M{"$gte": seats},
		},
		bson.M{
			"$inc": bson.M{"seats_available": -seats},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	if result.MatchedCount == 0 {
		return errors.New(utils.ErrNoSeatsAvailable)
	}

	return nil
}

func (r *rideRepository) IncrementSeats(ctx context.Context, id primitive.ObjectID, seats int) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"seats_available": seats},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	return nil
}

// Listing
func (r *rideRepository) GetUpcoming(ctx context.Context, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	filter := bson.M{
		"status":          models.RideStatusScheduled,
		"departure_time":  bson.M{"$gte": time.Now()},
		"seats_available": bson.M{"$gt": 0},
	}

	return r.findRides(ctx, filter, params)
}

func (r *rideRepository) GetByDriverID(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return r.findRides(ctx, bson.M{"driver_id": driverID}, params)
}

// Earnings operations

// GetCompletedInWindow returns the driver's rides that completed inside
// [start, end).
func (r *rideRepository) GetCompletedInWindow(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) ([]*models.Ride, error) {
	filter := bson.M{
		"driver_id": driverID,
		"status":    models.RideStatusCompleted,
		"completed_at": bson.M{
			"$gte": start,
			"$lt":  end,
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "completed_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("failed to decode rides: %w", err)
	}

	return rides, nil
}

func (r *rideRepository) findRides(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, 0, fmt.Errorf("failed to decode rides: %w", err)
	}

	return rides, total, nil
}
