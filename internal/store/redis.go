package store

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/ayush/vidvault/internal/config"
)

// NewRedisClient creates and pings the Redis client used for sessions.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}
