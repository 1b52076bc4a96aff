// Package sequence provides atomic year-scoped counters backing quote
// number allocation. Both implementations guarantee that concurrent
// creations never observe the same value, replacing the legacy
// count-then-assign read.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAllocator allocates sequence values with a Redis INCR per
// year-scoped key. Suitable for distributed deployments where multiple
// instances share the counter.
type RedisAllocator struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisAllocator creates a Redis-backed allocator and verifies the
// connection
func NewRedisAllocator(cfg RedisConfig) (*RedisAllocator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisAllocator{
		client:    client,
		keyPrefix: "quote:seq:",
	}, nil
}

// NewRedisAllocatorWithClient creates an allocator with an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisAllocatorWithClient(client *redis.Client, keyPrefix string) *RedisAllocator {
	if keyPrefix == "" {
		keyPrefix = "quote:seq:"
	}
	return &RedisAllocator{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Next atomically increments and returns the sequence for the given year
func (a *RedisAllocator) Next(ctx context.Context, year int) (int, error) {
	key := fmt.Sprintf("%s%d", a.keyPrefix, year)
	val, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment quote sequence: %w", err)
	}
	return int(val), nil
}

// Close releases the underlying Redis client
func (a *RedisAllocator) Close() error {
	return a.client.Close()
}
