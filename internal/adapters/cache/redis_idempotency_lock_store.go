package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyLockStore implements the in-flight request lock with SETNX.
// The TTL is the safety net: a crashed worker releases its lock by expiry.
type RedisIdempotencyLockStore struct {
	client *redis.Client
}

func NewRedisIdempotencyLockStore(client *redis.Client) *RedisIdempotencyLockStore {
	return &RedisIdempotencyLockStore{client: client}
}

func (s *RedisIdempotencyLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

func (s *RedisIdempotencyLockStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
