package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"studioz/models"
	"studioz/utils"
)

// Cache holds read-through copies of carts and summaries. A nil Cache is a no-op.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func CartKey(owner models.Owner) string    { return "cart:" + owner.Key() }
func SummaryKey(owner models.Owner) string { return "cart-summary:" + owner.Key() }

func (c *Cache) get(ctx context.Context, key string, out interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (c *Cache) set(ctx context.Context, key string, v interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, key, data, c.TTL).Err(); err != nil {
		utils.GetLogger().Warn("Failed to cache", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}
