package test

import (
	"context"

	"github.com/testcontainers/testcontainers-go/modules/redis"
)

// StartRedisContainer starts a Redis container for testing. It returns the
// container and any error encountered during startup.
func StartRedisContainer(ctx context.Context) (*redis.RedisContainer, error) {
	return redis.Run(ctx, "redis:7")
}
