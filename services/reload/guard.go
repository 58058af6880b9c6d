package reload

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"studioz/models"
)

type Action string

const (
	ActionReload   Action = "reload"
	ActionSuppress Action = "suppress"
	ActionReport   Action = "report"
)

var staleAssetPatterns = []string{
	"chunkloaderror",
	"loading chunk",
	"loading css chunk",
	"failed to fetch dynamically imported module",
	"importing a module script failed",
	"error loading dynamically imported module",
}

// IsStaleAsset recognizes load failures of bundles removed by a redeploy.
func IsStaleAsset(name, message string) bool {
	text := strings.ToLower(name + " " + message)
	for _, p := range staleAssetPatterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// Marker records that a session was told to reload. Mark returns false when
// a mark younger than ttl already exists.
type Marker interface {
	Mark(ctx context.Context, session string, ttl time.Duration) (bool, error)
}

type RedisMarker struct {
	Client *redis.Client
}

func (m *RedisMarker) Mark(ctx context.Context, session string, ttl time.Duration) (bool, error) {
	return m.Client.SetNX(ctx, "reload-guard:"+session, time.Now().Unix(), ttl).Result()
}

type MemoryMarker struct {
	mu    sync.Mutex
	marks map[string]time.Time
	Now   func() time.Time
}

func NewMemoryMarker() *MemoryMarker {
	return &MemoryMarker{marks: map[string]time.Time{}, Now: time.Now}
}

func (m *MemoryMarker) Mark(_ context.Context, session string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	if at, ok := m.marks[session]; ok && now.Sub(at) < ttl {
		return false, nil
	}
	m.marks[session] = now
	return true, nil
}

// Guard decides how the front end reacts to a render failure.
type Guard struct {
	Marker   Marker
	Cooldown time.Duration
}

// Decide returns reload for the first stale-asset error of a session and
// suppress for any repeat within the cooldown. Marker failures suppress.
func (g *Guard) Decide(ctx context.Context, session string, report models.ClientErrorReport) (Action, error) {
	if !IsStaleAsset(report.Name, report.Message) {
		return ActionReport, nil
	}
	fresh, err := g.Marker.Mark(ctx, session, g.Cooldown)
	if err != nil {
		return ActionSuppress, err
	}
	if !fresh {
		return ActionSuppress, nil
	}
	return ActionReload, nil
}
