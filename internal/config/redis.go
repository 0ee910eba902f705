package config

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Addr     string
	Password string
}

func NewRedisConfig() *RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	return &RedisConfig{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")}
}

// NewRedisClient connects the dashboard cache. Redis being down is not fatal:
// the stats service falls through to MongoDB when cache calls fail.
func NewRedisClient(lc fx.Lifecycle, config *RedisConfig, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("Redis unreachable, dashboard caching disabled", zap.Error(err))
			} else {
				log.Info("Connected to Redis", zap.String("addr", config.Addr))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}
