// FILE: database/repository/intent/indexes.go
package intentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the reservation_intents collection.
func (r *mongoIntentRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Sweeper scans pending intents oldest first
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("state_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "itemId", Value: 1}},
			Options: options.Index().SetName("owner_item_idx"),
		},
		// Settled intents expire after thirty days
		{
			Keys:    bson.D{{Key: "updatedAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(30 * 24 * 3600).SetName("updated_ttl"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create intent indexes: %w", err)
	}
	return nil
}
