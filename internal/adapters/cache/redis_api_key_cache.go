package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onerouter/gateway/internal/ports"
)

// RedisAPIKeyCache caches validated API key state keyed by the key's SHA-256
// hash. The raw key never enters Redis.
type RedisAPIKeyCache struct {
	client *redis.Client
}

func NewRedisAPIKeyCache(client *redis.Client) *RedisAPIKeyCache {
	return &RedisAPIKeyCache{client: client}
}

func (c *RedisAPIKeyCache) Get(ctx context.Context, keyHash string) (ports.CachedAPIKey, bool, error) {
	raw, err := c.client.Get(ctx, "apikey:"+keyHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.CachedAPIKey{}, false, nil
	}
	if err != nil {
		return ports.CachedAPIKey{}, false, err
	}

	var key ports.CachedAPIKey
	if err := json.Unmarshal(raw, &key); err != nil {
		// A corrupt entry is treated as a miss; the authoritative row wins.
		return ports.CachedAPIKey{}, false, nil
	}
	return key, true, nil
}

func (c *RedisAPIKeyCache) Put(ctx context.Context, keyHash string, key ports.CachedAPIKey, ttl time.Duration) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "apikey:"+keyHash, raw, ttl).Err()
}
