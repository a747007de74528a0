package ports

import (
	"context"
	"time"

	"github.com/onerouter/gateway/internal/domain"
)

// IdempotencyLockStore is the ephemeral mutual-exclusion primitive for
// in-flight idempotent requests. Acquire is set-if-absent with TTL: exactly one
// of two concurrent callers gets true. Release must be unconditional so a
// failed attempt never leaves the key locked beyond its TTL.
type IdempotencyLockStore interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// CredentialCache holds encrypted credential blobs close to the router.
// Only ciphertext ever enters the cache; decryption happens per request.
type CredentialCache interface {
	Get(ctx context.Context, tenantID string, provider domain.Provider, env domain.Environment) ([]byte, bool, error)
	Put(ctx context.Context, tenantID string, provider domain.Provider, env domain.Environment, blob []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID string, provider domain.Provider, env domain.Environment) error
}

// CachedAPIKey is the subset of API key state cached for fast validation.
type CachedAPIKey struct {
	KeyID           string             `json:"key_id"`
	TenantID        string             `json:"tenant_id"`
	Environment     domain.Environment `json:"environment"`
	IsActive        bool               `json:"is_active"`
	RateLimitPerMin int                `json:"rate_limit_per_min"`
}

// APIKeyCache avoids a database round trip on every authenticated request.
type APIKeyCache interface {
	Get(ctx context.Context, keyHash string) (CachedAPIKey, bool, error)
	Put(ctx context.Context, keyHash string, key CachedAPIKey, ttl time.Duration) error
}
