package stats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dashboardTTL = 30 * time.Second

// Cache keeps rendered dashboards in Redis for a short TTL. Every failure is
// a cache miss; the dashboards never depend on Redis being up.
type Cache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewCache(client *redis.Client, log *zap.Logger) *Cache {
	return &Cache{client: client, log: log}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Debug("Dashboard cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, dashboardTTL).Err(); err != nil {
		c.log.Debug("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
