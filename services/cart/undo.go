package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"studioz/models"
)

// Undo kinds name the service call that reverses a mutation.
const (
	UndoRemove    = "remove"
	UndoIncrement = "increment"
	UndoDecrement = "decrement"
	UndoAdd       = "add"
	UndoReplace   = "replace"
)

// UndoAction is the stored inverse of one mutation.
type UndoAction struct {
	Kind        string            `json:"kind"`
	Owner       string            `json:"owner"`
	ItemID      string            `json:"itemId,omitempty"`
	BookingDate string            `json:"bookingDate,omitempty"`
	Times       int               `json:"times,omitempty"`
	Lines       []models.CartItem `json:"lines,omitempty"`
}

// UndoStore keeps inverses under single-use tokens.
type UndoStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func undoKey(token string) string { return "cart-undo:" + token }

func (u *UndoStore) Save(ctx context.Context, action UndoAction) (string, error) {
	token := uuid.New().String()
	data, err := json.Marshal(action)
	if err != nil {
		return "", err
	}
	if err := u.Client.Set(ctx, undoKey(token), data, u.TTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Take returns the action and deletes it atomically, so a token replays once.
func (u *UndoStore) Take(ctx context.Context, token string) (*UndoAction, error) {
	data, err := u.Client.GetDel(ctx, undoKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUndoExpired
	}
	if err != nil {
		return nil, err
	}
	var action UndoAction
	if err := json.Unmarshal(data, &action); err != nil {
		return nil, err
	}
	return &action, nil
}
