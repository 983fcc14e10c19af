package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
)

// MenuCache is a read-through cache of restaurant menus kept in Redis.
// Concurrent misses for the same restaurant share one load.
type MenuCache struct {
	rdb   *redis.Client
	ttl   time.Duration
	group singleflight.Group
	log   *logger.Logger
}

func NewMenuCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *MenuCache {
	return &MenuCache{rdb: rdb, ttl: ttl, log: log.WithComponent("menu_cache")}
}

func menuKey(restaurantID uint64) string {
	return fmt.Sprintf("menu:restaurant:%d", restaurantID)
}

func (c *MenuCache) Fetch(ctx context.Context, restaurantID uint64, load func(context.Context) ([]domain.MenuItem, error)) ([]domain.MenuItem, error) {
	key := menuKey(restaurantID)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var items []domain.MenuItem
		if err := json.Unmarshal(cached, &items); err == nil {
			return items, nil
		}
		c.log.Warn("dropping undecodable menu entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("menu cache read failed", "key", key, "error", err)
	}

	v, err, _ := c.group.Do(strconv.FormatUint(restaurantID, 10), func() (any, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(items); err == nil {
			if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.log.Warn("menu cache write failed", "key", key, "error", err)
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.MenuItem), nil
}

func (c *MenuCache) Invalidate(ctx context.Context, restaurantID uint64) error {
	return c.rdb.Del(ctx, menuKey(restaurantID)).Err()
}

// Warmup preloads the menus of the given restaurants. Failures are logged and
// skipped.
func (c *MenuCache) Warmup(ctx context.Context, restaurantIDs []uint64, load func(context.Context, uint64) ([]domain.MenuItem, error)) {
	for _, id := range restaurantIDs {
		items, err := load(ctx, id)
		if err != nil {
			c.log.Warn("menu warmup failed", "restaurant_id", id, "error", err)
			continue
		}
		data, err := json.Marshal(items)
		if err != nil {
			continue
		}
		c.rdb.Set(ctx, menuKey(id), data, c.ttl)
	}
}
