package pkg

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/profile-service/internal/config"
)

// NewRedisClient connects to REDIS_URL, retrying the first ping like the database does
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	err = backoff.Retry(func() error {
		return client.Ping(context.Background()).Err()
	}, connectBackOff(cfg.DBConnectTimeout))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis not reachable: %w", err)
	}

	return client, nil
}
