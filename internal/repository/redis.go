package repository

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/config"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "shareit:writes:"

// RedisRateLimitRepository counts requests in fixed windows with INCR and
// EXPIRE, so the quota is shared by every API instance.
type RedisRateLimitRepository struct {
	client *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisRateLimitRepository(client *redis.Client) *RedisRateLimitRepository {
	return &RedisRateLimitRepository{client: client}
}

func (r *RedisRateLimitRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("%s%d", rateLimitKeyPrefix, userID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	} else if ttl, err := r.client.TTL(ctx, key).Result(); err == nil && ttl < 0 {
		// a previous EXPIRE was lost; never let a counter live forever
		r.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
