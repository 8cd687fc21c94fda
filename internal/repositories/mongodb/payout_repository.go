package mongodb

import (
	"context"
	"fmt"
	"time"

	"poolride/internal/models"
	"poolride/internal/repositories/interfaces"
	"poolride/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type payoutRepository struct {
	collection *mongo.Collection
}

func NewPayoutRepository(db *mongo.Database) interfaces.PayoutRepository {
	return &payoutRepository{
		collection: db.Collection("payouts"),
	}
}

// Basic CRUD operations
func (r *payoutRepository) Create(ctx context.Context, payout *models.Payout) error {
	payout.ID = primitive.NewObjectID()
	payout.CreatedAt = time.Now()
	payout.UpdatedAt = time.Now()

	if payout.Status == "" {
		payout.Status = models.PayoutStatusPending
	}

	_, err := r.collection.InsertOne(ctx, payout)
	if err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}

	return nil
}

func (r *payoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payout, error) {
	var payout models.Payout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payout not found")
		}
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}

	return &payout, nil
}

func (r *payoutRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update payout: %w", err)
	}

	return nil
}

// Webhook operations
func (r *payoutRepository) GetByStripePayoutID(ctx context.Context, stripePayoutID string) (*models.Payout, error) {
	var payout models.Payout
	err := r.collection.FindOne(ctx, bson.M{"stripe_payout_id": stripePayoutID}).Decode(&payout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payout not found")
		}
		return nil, fmt.Errorf("failed to get payout by stripe id: %w", err)
	}

	return &payout, nil
}

// Balance operations

// GetPendingAmount sums the driver's unsettled payouts created since the given
// time. The sum comes back from an aggregation so large histories stay cheap.
func (r *payoutRepository) GetPendingAmount(ctx context.Context, driverID primitive.ObjectID, since time.Time) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"driver_id": driverID,
			"status": bson.M{"$in": bson.A{
				models.PayoutStatusPending,
				models.PayoutStatusProcessing,
			}},
			"created_at": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate pending payouts: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode pending payout total: %w", err)
	}

	if len(results) == 0 {
		return 0, nil
	}

	return results[0].Total, nil
}

// Listing
func (r *payoutRepository) GetByDriverID(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	filter := bson.M{"driver_id": driverID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payouts: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer cursor.Close(ctx)

	var payouts []*models.Payout
	if err := cursor.All(ctx, &payouts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode payouts: %w", err)
	}

	return payouts, total, nil
}
