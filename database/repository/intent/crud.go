// File: database/repository/intent/crud.go
package intentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studioz/models"
)

func (r *mongoIntentRepo) Create(ctx context.Context, intent models.ReservationIntent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, intent)
	return err
}

func (r *mongoIntentRepo) GetByID(ctx context.Context, id string) (*models.ReservationIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var intent models.ReservationIntent
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *mongoIntentRepo) Settle(ctx context.Context, id string, state models.IntentState, reservationID, cause string) (*models.ReservationIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"state": state, "updatedAt": time.Now().UTC()}
	if reservationID != "" {
		set["reservationId"] = reservationID
	}
	if cause != "" {
		set["error"] = cause
	}

	filter := bson.M{"id": id, "state": models.IntentPending}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.ReservationIntent
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Not pending: either settled already or never recorded.
	count, cerr := r.coll.CountDocuments(ctx, bson.M{"id": id})
	if cerr != nil {
		return nil, cerr
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIntentSettled, id)
	}
	return nil, mongo.ErrNoDocuments
}

func (r *mongoIntentRepo) FindStalePending(ctx context.Context, olderThan time.Time, limit int64) ([]models.ReservationIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"state": models.IntentPending, "createdAt": bson.M{"$lt": olderThan}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var intents []models.ReservationIntent
	if err := cursor.All(ctx, &intents); err != nil {
		return nil, err
	}
	return intents, nil
}
