package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/balanceledger/internal/infrastructure/retry"
)

// ClientConfig holds Redis connection settings.
type ClientConfig struct {
	URL string
	// ConnectRetries is how many extra pings are attempted before giving up.
	ConnectRetries int
}

// NewClient creates a new Redis client and waits until it answers a ping.
func NewClient(ctx context.Context, cfg ClientConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	r := retry.New(
		retry.WithName("redis ping"),
		retry.WithMaxRetries(cfg.ConnectRetries),
		retry.WithIntervals(100*time.Millisecond, 2*time.Second),
	)

	// Verify connection
	if err := r.Do(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
