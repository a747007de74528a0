package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onerouter/gateway/internal/domain"
)

// RedisCredentialCache stores encrypted credential blobs keyed by tenant,
// provider and environment. Values are ciphertext as produced by the vault;
// nothing readable ever lands in Redis.
type RedisCredentialCache struct {
	client *redis.Client
}

func NewRedisCredentialCache(client *redis.Client) *RedisCredentialCache {
	return &RedisCredentialCache{client: client}
}

func credentialKey(tenantID string, provider domain.Provider, env domain.Environment) string {
	return fmt.Sprintf("creds:%s:%s:%s", tenantID, provider, env)
}

func (c *RedisCredentialCache) Get(ctx context.Context, tenantID string, provider domain.Provider, env domain.Environment) ([]byte, bool, error) {
	blob, err := c.client.Get(ctx, credentialKey(tenantID, provider, env)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

func (c *RedisCredentialCache) Put(ctx context.Context, tenantID string, provider domain.Provider, env domain.Environment, blob []byte, ttl time.Duration) error {
	return c.client.Set(ctx, credentialKey(tenantID, provider, env), blob, ttl).Err()
}

func (c *RedisCredentialCache) Invalidate(ctx context.Context, tenantID string, provider domain.Provider, env domain.Environment) error {
	return c.client.Del(ctx, credentialKey(tenantID, provider, env)).Err()
}
