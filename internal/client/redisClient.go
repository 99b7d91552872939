package client

import (
	"context"
	"fmt"
	"funnel-engine/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient returns nil when no address is configured.
func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
