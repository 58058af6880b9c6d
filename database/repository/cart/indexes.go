// FILE: database/repository/cart/indexes.go
package cartRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the carts collection.
func (r *mongoCartRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_owner"),
		},
		// Lookups of every cart holding an item, used when an item is withdrawn
		{
			Keys:    bson.D{{Key: "items.itemId", Value: 1}, {Key: "items.bookingDate", Value: 1}},
			Options: options.Index().SetName("item_date_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
