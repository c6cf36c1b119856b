package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lastActivityKey = "leads:last_activity"

// DefaultCacheTTL bounds how stale the cached last-activity map may get even
// when an invalidation is missed.
const DefaultCacheTTL = time.Minute

// Cache holds the last-activity-per-lead map in redis so list views don't hit
// the materialized view on every request. A nil Cache disables caching.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached map and whether it was present. Redis errors count
// as a miss; callers fall through to the database.
func (c *Cache) Get(ctx context.Context) (map[uuid.UUID]time.Time, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, lastActivityKey).Bytes()
	if err != nil {
		return nil, false
	}

	var out map[uuid.UUID]time.Time
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Set stores the map with the cache TTL. Failures are ignored; the cache is
// an optimization, not a source of truth.
func (c *Cache) Set(ctx context.Context, m map[uuid.UUID]time.Time) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.client.Set(ctx, lastActivityKey, payload, c.ttl)
}

// Invalidate drops the cached map. Called after every audit-log append so the
// next read recomputes staleness from fresh data.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, lastActivityKey)
}
