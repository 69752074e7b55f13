package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements a Redis-backed cache for the API server.
type RedisCache struct {
	client *redis.Client
	config RedisConfig
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix is prepended to all keys
	Prefix string
	// DefaultTTL applies when Set is called with ttl 0
	DefaultTTL time.Duration
}

// DefaultRedisConfig returns a default Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:       "localhost:6379",
		Prefix:     "trsolver:",
		DefaultTTL: 24 * time.Hour,
	}
}

// NewRedisCacheWithConfig connects to Redis and verifies the connection.
func NewRedisCacheWithConfig(config RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, config.Addr, err)
	}

	return NewRedisCacheWithClient(client, config), nil
}

// NewRedisCacheWithClient creates a Redis cache with an existing client.
func NewRedisCacheWithClient(client *redis.Client, config RedisConfig) *RedisCache {
	return &RedisCache{
		client: client,
		config: config,
	}
}

// Get retrieves a value. Transient failures are retried.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	hit := false
	err := RetryWithBackoff(ctx, func() error {
		v, err := r.client.Get(ctx, r.config.Prefix+key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			return nil
		case err != nil:
			return transient(err)
		}
		value, hit = v, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, hit, nil
}

// Set stores a value with a TTL; 0 means the configured default.
func (r *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}
	return RetryWithBackoff(ctx, func() error {
		return transient(r.client.Set(ctx, r.config.Prefix+key, data, ttl).Err())
	})
}

// Delete removes a value.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.config.Prefix+key).Err()
}

// Clear removes every key under the prefix.
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.config.Prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// transient marks errors worth retrying; context errors are final.
func transient(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return Retryable(err)
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
