package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces limiter keys inside a shared Redis instance.
const redisKeyPrefix = "ratelimit:"

// RedisStore is a Redis-backed Store for deployments running more than one
// instance of the service, so all instances count against the same windows.
// Entries are stored as JSON with a TTL matching the window, so Redis evicts
// stale windows on its own.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store over the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the entry for key, or (nil, nil) if absent.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode rate limit entry: %w", err)
	}
	return &e, nil
}

// Set stores the entry for key with the given TTL. A non-positive TTL falls
// back to the remaining window so the key always expires.
func (s *RedisStore) Set(ctx context.Context, key string, e Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Until(e.Reset)
		if ttl <= 0 {
			ttl = time.Second
		}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode rate limit entry: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the entry for key. Missing keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
