package repository

import (
	"context"
	"time"

	"github.com/PrecedenceMarkets/lexgate/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects and pings; callers fall back to memory stores
// when this fails.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
