package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Options locates the Redis instance holding the credential cache.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect creates a Redis client and verifies the connection. The client is
// closed again when the ping fails.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}
