package ipblock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ipblock:"

// RedisRegistry stores IP blocks in Redis so blocks survive restarts and are
// shared across instances. Expiry is delegated to the key TTL.
type RedisRegistry struct {
	client *redis.Client
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func (r *RedisRegistry) Block(ctx context.Context, ip string, ttl time.Duration) error {
	if ip == "" {
		return nil
	}
	if err := r.client.Set(ctx, keyPrefix+ip, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to block ip: %w", err)
	}
	return nil
}

func (r *RedisRegistry) IsBlocked(ctx context.Context, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, keyPrefix+ip).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check ip block: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRegistry) Unblock(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}
	if err := r.client.Del(ctx, keyPrefix+ip).Err(); err != nil {
		return fmt.Errorf("failed to unblock ip: %w", err)
	}
	return nil
}
