package ratelimit

import (
	"context"
	"fmt"
	"time"

	appintegration "github.com/flowcreate/backend/internal/application/integration"
	"github.com/flowcreate/backend/internal/domain/integration"
	"github.com/flowcreate/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter enforces per-integration rate limits with a fixed one
// minute window counter in Redis. Suitable for distributed deployments
// where several instances execute integrations concurrently.
type RedisLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLimiter creates a limiter connected to the configured Redis
func NewRedisLimiter(cfg *config.RedisConfig) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLimiter{client: client, keyPrefix: "ratelimit:integration:"}, nil
}

// NewRedisLimiterWithClient creates a limiter using an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisLimiterWithClient(client *redis.Client, keyPrefix string) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:integration:"
	}
	return &RedisLimiter{client: client, keyPrefix: keyPrefix}
}

// Allow reports whether one more call may proceed under the limits.
// The burst size is honored on top of the per-minute budget so short
// spikes are not rejected outright.
func (l *RedisLimiter) Allow(ctx context.Context, integrationID uuid.UUID, limits integration.RateLimits) (bool, error) {
	if limits.RequestsPerMinute <= 0 {
		return true, nil
	}

	window := time.Now().Unix() / 60
	key := fmt.Sprintf("%s%s:%d", l.keyPrefix, integrationID, window)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	if count == 1 {
		// First hit in this window; expire the counter two windows out
		// so clock skew between instances cannot orphan keys
		l.client.Expire(ctx, key, 2*time.Minute)
	}

	budget := int64(limits.RequestsPerMinute + limits.BurstSize)
	return count <= budget, nil
}

// Close releases the underlying Redis connection
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// Ensure RedisLimiter implements the application port
var _ appintegration.RateLimiter = (*RedisLimiter)(nil)
