// File: database/repository/cart/interface.go
package cartRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"studioz/database"
	"studioz/models"
)

// CartRepository persists carts of authenticated users.
type CartRepository interface {
	GetByOwner(ctx context.Context, ownerID string) (*models.Cart, error)
	Upsert(ctx context.Context, cart models.Cart) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	EnsureIndexes() error
}

type mongoCartRepo struct {
	coll *mongo.Collection
}

// NewMongoCartRepo constructs a new MongoDB CartRepository.
func NewMongoCartRepo() CartRepository {
	return &mongoCartRepo{
		coll: database.DB().Collection("carts"),
	}
}
