// File: database/repository/intent/interface.go
package intentRepo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"studioz/database"
	"studioz/models"
)

// ErrIntentSettled is returned when an intent has already left the pending state.
var ErrIntentSettled = errors.New("reservation intent already settled")

type IntentRepository interface {
	Create(ctx context.Context, intent models.ReservationIntent) error
	GetByID(ctx context.Context, id string) (*models.ReservationIntent, error)
	// Settle moves a pending intent to state; settled intents are never moved again.
	Settle(ctx context.Context, id string, state models.IntentState, reservationID, cause string) (*models.ReservationIntent, error)
	FindStalePending(ctx context.Context, olderThan time.Time, limit int64) ([]models.ReservationIntent, error)
	EnsureIndexes() error
}

type mongoIntentRepo struct {
	coll *mongo.Collection
}

// NewMongoIntentRepo constructs a new MongoDB IntentRepository.
func NewMongoIntentRepo() IntentRepository {
	return &mongoIntentRepo{
		coll: database.DB().Collection("reservation_intents"),
	}
}
