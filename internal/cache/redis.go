package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const backendKeyPrefix = "ref:"

// RedisBackend stores reference-data values in Redis.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps a connected Redis client.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Get returns the value for a key, reporting absence separately from errors.
func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.Get(ctx, backendKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores the value with the given TTL.
func (b *RedisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, backendKeyPrefix+key, value, ttl).Err()
}
