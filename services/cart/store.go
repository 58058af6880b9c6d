package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"

	cartRepo "studioz/database/repository/cart"
	"studioz/models"
)

// Store loads and saves one owner's cart. Load returns an empty cart when none exists.
type Store interface {
	Load(ctx context.Context, owner models.Owner) (*models.Cart, error)
	Save(ctx context.Context, owner models.Owner, cart *models.Cart) error
	Delete(ctx context.Context, owner models.Owner) error
}

func emptyCart(owner models.Owner) *models.Cart {
	return &models.Cart{OwnerID: owner.ID, Anonymous: owner.Anonymous, Items: []models.CartItem{}}
}

// UserStore keeps authenticated carts in Mongo.
type UserStore struct {
	Repo cartRepo.CartRepository
}

func (s *UserStore) Load(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	c, err := s.Repo.GetByOwner(ctx, owner.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return emptyCart(owner), nil
	}
	if err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return c, nil
}

func (s *UserStore) Save(ctx context.Context, owner models.Owner, c *models.Cart) error {
	c.OwnerID = owner.ID
	c.Anonymous = false
	return s.Repo.Upsert(ctx, *c)
}

func (s *UserStore) Delete(ctx context.Context, owner models.Owner) error {
	return s.Repo.DeleteByOwner(ctx, owner.ID)
}

// SessionStore keeps anonymous carts in Redis with a sliding TTL.
type SessionStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func sessionKey(owner models.Owner) string {
	return "anon-cart:" + owner.ID
}

func (s *SessionStore) Load(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	data, err := s.Client.Get(ctx, sessionKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return emptyCart(owner), nil
	}
	if err != nil {
		return nil, err
	}
	var c models.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return &c, nil
}

func (s *SessionStore) Save(ctx context.Context, owner models.Owner, c *models.Cart) error {
	c.OwnerID = owner.ID
	c.Anonymous = true
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, sessionKey(owner), data, s.TTL).Err()
}

func (s *SessionStore) Delete(ctx context.Context, owner models.Owner) error {
	return s.Client.Del(ctx, sessionKey(owner)).Err()
}

// OwnerStore routes to the user or session store by owner kind.
type OwnerStore struct {
	Users    Store
	Sessions Store
}

func (s *OwnerStore) pick(owner models.Owner) Store {
	if owner.Anonymous {
		return s.Sessions
	}
	return s.Users
}

func (s *OwnerStore) Load(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	return s.pick(owner).Load(ctx, owner)
}

func (s *OwnerStore) Save(ctx context.Context, owner models.Owner, c *models.Cart) error {
	return s.pick(owner).Save(ctx, owner, c)
}

func (s *OwnerStore) Delete(ctx context.Context, owner models.Owner) error {
	return s.pick(owner).Delete(ctx, owner)
}
