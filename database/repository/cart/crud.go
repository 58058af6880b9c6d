// File: database/repository/cart/crud.go
package cartRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studioz/models"
)

func (r *mongoCartRepo) GetByOwner(ctx context.Context, ownerID string) (*models.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cart models.Cart
	if err := r.coll.FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Upsert replaces the owner's cart; concurrent writers are last-write-wins.
func (r *mongoCartRepo) Upsert(ctx context.Context, cart models.Cart) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.ReplaceOne(ctx, bson.M{"ownerId": cart.OwnerID}, cart, options.Replace().SetUpsert(true))
	return err
}

func (r *mongoCartRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.DeleteOne(ctx, bson.M{"ownerId": ownerID})
	return err
}
