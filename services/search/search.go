package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"studioz/services/gateway"
	"studioz/utils"
)

var kinds = map[string]bool{"items": true, "studios": true, "users": true}

type SearchService interface {
	Search(ctx context.Context, kind, q string) (json.RawMessage, error)
}

// DefaultSearchService proxies upstream search with a short Redis cache.
type DefaultSearchService struct {
	Catalogue gateway.Catalogue
	Cache     *redis.Client
	TTL       time.Duration
}

func cacheKey(kind, q string) string {
	return "search:" + kind + ":" + q
}

func (s *DefaultSearchService) Search(ctx context.Context, kind, q string) (json.RawMessage, error) {
	if !kinds[kind] {
		return nil, fmt.Errorf("%w: %q", gateway.ErrUnknownSearch, kind)
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return json.RawMessage("[]"), nil
	}

	key := cacheKey(kind, q)
	if s.Cache != nil {
		if data, err := s.Cache.Get(ctx, key).Bytes(); err == nil {
			return json.RawMessage(data), nil
		}
	}

	raw, err := s.Catalogue.Search(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, []byte(raw), s.TTL).Err(); err != nil {
			utils.GetLogger().Warn("Failed to cache search results", zap.String("key", key), zap.Error(err))
		}
	}
	return raw, nil
}
