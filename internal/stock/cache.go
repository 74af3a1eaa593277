package stock

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// LevelCache fronts the derived stock level with Redis. Concurrent misses
// for the same product collapse into one aggregate query.
type LevelCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewLevelCache constructs a LevelCache.
func NewLevelCache(client *redis.Client, ttl time.Duration) *LevelCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LevelCache{client: client, ttl: ttl}
}

func cacheKey(productID int64) string {
	return "stockyard:stock:" + strconv.FormatInt(productID, 10)
}

// Get returns the cached level or loads it through the loader on a miss.
func (c *LevelCache) Get(ctx context.Context, productID int64, load func(context.Context, int64) (int, error)) (int, error) {
	if c == nil || c.client == nil {
		return load(ctx, productID)
	}

	key := cacheKey(productID)
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		if level, convErr := strconv.Atoi(raw); convErr == nil {
			return level, nil
		}
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		level, err := load(ctx, productID)
		if err != nil {
			return 0, err
		}
		if err := c.client.Set(ctx, key, strconv.Itoa(level), c.ttl).Err(); err != nil {
			return level, nil
		}
		return level, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

// Invalidate drops the cached level after a ledger write.
func (c *LevelCache) Invalidate(ctx context.Context, productID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, cacheKey(productID)).Err()
}
