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

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection("bookings"),
	}
}

// Basic CRUD operations
func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	if booking.Status == "" {
		booking.Status = models.BookingStatusConfirmed
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = models.BookingPaymentPending
	}

	_, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New(utils.ErrBookingNotFound)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	return nil
}

// Payment operations
func (r *bookingRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"payment_intent_id": paymentIntentID}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New(utils.ErrBookingNotFound)
		}
		return nil, fmt.Errorf("failed to get booking by payment intent: %w", err)
	}

	return &booking, nil
}

// Earnings operations

// GetEarnableByRideID returns the ride's bookings that count toward driver
// earnings: confirmed or completed. Payment state is deliberately not part of
// the definition; an uncaptured booking still earns, it just settles later.
func (r *bookingRepository) GetEarnableByRideID(ctx context.Context, rideID primitive.ObjectID) ([]*models.Booking, error) {
	filter := bson.M{
		"ride_id": rideID,
		"status": bson.M{"$in": []models.BookingStatus{
			models.BookingStatusConfirmed,
			models.BookingStatusCompleted,
		}},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query earnable bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

// Listing
func (r *bookingRepository) GetByRiderID(ctx context.Context, riderID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	filter := bson.M{"rider_id": riderID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, total, nil
}

func (r *bookingRepository) GetByRideID(ctx context.Context, rideID primitive.ObjectID) ([]*models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"ride_id": rideID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list ride bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}
