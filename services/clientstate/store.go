package clientstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"studioz/models"
	"studioz/utils"
)

var (
	ErrUnknownKey   = errors.New("unknown client state key")
	ErrNotFound     = errors.New("client state entry not found")
	ErrInvalidValue = errors.New("client state value must be JSON")
)

// Store is the per-owner replacement for browser local storage.
type Store interface {
	All(ctx context.Context, owner models.Owner) ([]models.ClientStateEntry, error)
	Get(ctx context.Context, owner models.Owner, key string) (*models.ClientStateEntry, error)
	Put(ctx context.Context, owner models.Owner, key string, value json.RawMessage) (*models.ClientStateEntry, error)
	Delete(ctx context.Context, owner models.Owner, key string) error
}

// RedisStore keeps one hash per owner; session hashes expire after SessionTTL.
type RedisStore struct {
	client     *redis.Client
	SessionTTL time.Duration
	Now        func() time.Time
}

func NewRedisStore(client *redis.Client, sessionTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, SessionTTL: sessionTTL, Now: time.Now}
}

func hashKey(owner models.Owner) string {
	return "client-state:" + owner.Key()
}

type envelope struct {
	Version   *int            `json:"v"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// decode reads a stored field; anything that is not an envelope is a v0 bare value.
func decode(raw string) (int, json.RawMessage, time.Time) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err == nil && env.Version != nil && env.Value != nil {
		return *env.Version, env.Value, env.UpdatedAt
	}
	if json.Valid([]byte(raw)) {
		return 0, json.RawMessage(raw), time.Time{}
	}
	quoted, _ := json.Marshal(raw)
	return 0, quoted, time.Time{}
}

func (s *RedisStore) write(ctx context.Context, owner models.Owner, entry models.ClientStateEntry) error {
	v := entry.Version
	data, err := json.Marshal(envelope{Version: &v, Value: entry.Value, UpdatedAt: entry.UpdatedAt})
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, hashKey(owner), entry.Key, data)
	if owner.Anonymous && s.SessionTTL > 0 {
		pipe.Expire(ctx, hashKey(owner), s.SessionTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// load decodes and, when needed, migrates and rewrites one field.
func (s *RedisStore) load(ctx context.Context, owner models.Owner, key, raw string) (*models.ClientStateEntry, error) {
	version, value, updatedAt := decode(raw)
	entry := models.ClientStateEntry{Key: key, Version: version, Value: value, UpdatedAt: updatedAt}
	if version >= CurrentVersion {
		return &entry, nil
	}

	migrated, err := Migrate(key, version, value)
	if err != nil {
		// Unreadable legacy data is dropped rather than served.
		utils.GetLogger().Warn("Dropping unmigratable client state",
			zap.String("owner", owner.Key()), zap.String("key", key), zap.Error(err))
		_ = s.client.HDel(ctx, hashKey(owner), key).Err()
		return nil, ErrNotFound
	}
	entry.Version = CurrentVersion
	entry.Value = migrated
	entry.UpdatedAt = s.Now().UTC()
	if err := s.write(ctx, owner, entry); err != nil {
		return nil, fmt.Errorf("write migrated %s: %w", key, err)
	}
	return &entry, nil
}

func (s *RedisStore) All(ctx context.Context, owner models.Owner) ([]models.ClientStateEntry, error) {
	fields, err := s.client.HGetAll(ctx, hashKey(owner)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]models.ClientStateEntry, 0, len(fields))
	for key, raw := range fields {
		if !AllowedKey(key) {
			continue
		}
		entry, err := s.load(ctx, owner, key, raw)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (s *RedisStore) Get(ctx context.Context, owner models.Owner, key string) (*models.ClientStateEntry, error) {
	if !AllowedKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	raw, err := s.client.HGet(ctx, hashKey(owner), key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.load(ctx, owner, key, raw)
}

func (s *RedisStore) Put(ctx context.Context, owner models.Owner, key string, value json.RawMessage) (*models.ClientStateEntry, error) {
	if !AllowedKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if len(value) == 0 || !json.Valid(value) {
		return nil, ErrInvalidValue
	}
	entry := models.ClientStateEntry{Key: key, Version: CurrentVersion, Value: value, UpdatedAt: s.Now().UTC()}
	if err := s.write(ctx, owner, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *RedisStore) Delete(ctx context.Context, owner models.Owner, key string) error {
	if !AllowedKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return s.client.HDel(ctx, hashKey(owner), key).Err()
}
