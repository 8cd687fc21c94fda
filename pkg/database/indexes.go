package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the query paths depend on. Safe to call
// on every startup; Mongo treats existing identical indexes as a no-op.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user_type", Value: 1}, {Key: "stripe_account_id", Value: 1}}},
		},
		"rides": {
			{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "status", Value: 1}, {Key: "completed_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "departure_time", Value: 1}}},
		},
		"bookings": {
			{Keys: bson.D{{Key: "ride_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "rider_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys:    bson.D{{Key: "payment_intent_id", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		},
		"payouts": {
			{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys:    bson.D{{Key: "stripe_payout_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
	}

	for collection, models := range indexes {
		_, err := m.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
