package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/ports"
)

const apiKeyDisplayPrefixLen = 12

// GenerateAPIKey mints a tenant API key. The environment rides in the key
// prefix (unf_test_ / unf_live_) and pins routing for every request made with
// it. Only the SHA-256 hash and a short display prefix are stored.
func (s *Service) GenerateAPIKey(ctx context.Context, req GenerateAPIKeyRequest) (GenerateAPIKeyResponse, error) {
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return GenerateAPIKeyResponse{}, fmt.Errorf("%w: malformed tenant id", domain.ErrInvalidInput)
	}
	env, err := domain.ParseEnvironment(req.Environment)
	if err != nil {
		return GenerateAPIKeyResponse{}, err
	}

	rawKey, err := newRawAPIKey(env)
	if err != nil {
		return GenerateAPIKeyResponse{}, err
	}

	perMin, perDay := rateLimitDefaults(env)
	key := domain.APIKey{
		KeyID:           uuid.New(),
		TenantID:        tenantID,
		KeyHash:         hashAPIKey(rawKey),
		KeyName:         req.KeyName,
		KeyPrefix:       rawKey[:apiKeyDisplayPrefixLen],
		Environment:     env,
		IsActive:        true,
		RateLimitPerMin: perMin,
		RateLimitPerDay: perDay,
		CreatedAt:       s.nowFn(),
	}
	if req.ExpiresIn > 0 {
		expiresAt := s.nowFn().Add(time.Duration(req.ExpiresIn) * 24 * time.Hour)
		key.ExpiresAt = &expiresAt
	}

	created, err := s.apiKeys.Create(ctx, key)
	if err != nil {
		return GenerateAPIKeyResponse{}, fmt.Errorf("create api key: %w", err)
	}

	s.logger.Info("api key generated",
		"operation", "generate_api_key",
		"outcome", "success",
		"tenant_id", tenantID.String(),
		"key_id", created.KeyID.String(),
		"environment", string(env),
	)

	resp := GenerateAPIKeyResponse{
		KeyID:       created.KeyID,
		APIKey:      rawKey,
		KeyPrefix:   created.KeyPrefix,
		Environment: string(env),
	}
	if created.ExpiresAt != nil {
		resp.ExpiresAt = created.ExpiresAt.Format(time.RFC3339)
	}
	return resp, nil
}

// ValidateAPIKey authenticates a raw key and returns the caller context. The
// hash lookup goes through the cache first; a miss falls back to the database
// and primes the cache.
func (s *Service) ValidateAPIKey(ctx context.Context, rawKey string) (AuthContext, error) {
	if _, ok := environmentFromKeyPrefix(rawKey); !ok {
		return AuthContext{}, domain.ErrUnauthorized
	}
	keyHash := hashAPIKey(rawKey)

	if s.apiKeyCache != nil {
		if cached, found, err := s.apiKeyCache.Get(ctx, keyHash); err == nil && found {
			if !cached.IsActive {
				return AuthContext{}, domain.ErrUnauthorized
			}
			keyID, kerr := uuid.Parse(cached.KeyID)
			tenantID, terr := uuid.Parse(cached.TenantID)
			if kerr == nil && terr == nil {
				return AuthContext{APIKeyID: keyID, TenantID: tenantID, Environment: cached.Environment}, nil
			}
		}
	}

	key, err := s.apiKeys.GetByHash(ctx, keyHash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return AuthContext{}, domain.ErrUnauthorized
		}
		return AuthContext{}, err
	}
	if !key.IsActive || key.Expired(s.nowFn()) {
		return AuthContext{}, domain.ErrUnauthorized
	}

	if err := s.apiKeys.TouchLastUsed(ctx, key.KeyID, s.nowFn()); err != nil {
		s.logger.Warn("touch last used failed",
			"operation", "validate_api_key",
			"outcome", "degraded",
			"key_id", key.KeyID.String(),
			"error", err.Error(),
		)
	}
	if s.apiKeyCache != nil {
		_ = s.apiKeyCache.Put(ctx, keyHash, ports.CachedAPIKey{
			KeyID:           key.KeyID.String(),
			TenantID:        key.TenantID.String(),
			Environment:     key.Environment,
			IsActive:        true,
			RateLimitPerMin: key.RateLimitPerMin,
		}, s.cfg.APIKeyCacheTTL)
	}

	return AuthContext{APIKeyID: key.KeyID, TenantID: key.TenantID, Environment: key.Environment}, nil
}

// ListAPIKeys returns key metadata for a tenant; hashes and raw keys stay out.
func (s *Service) ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]APIKeySummary, error) {
	keys, err := s.apiKeys.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summaries := make([]APIKeySummary, 0, len(keys))
	for _, key := range keys {
		summary := APIKeySummary{
			KeyID:       key.KeyID,
			KeyName:     key.KeyName,
			KeyPrefix:   key.KeyPrefix,
			Environment: string(key.Environment),
			IsActive:    key.IsActive,
			CreatedAt:   key.CreatedAt.Format(time.RFC3339),
		}
		if key.LastUsedAt != nil {
			summary.LastUsedAt = key.LastUsedAt.Format(time.RFC3339)
		}
		if key.ExpiresAt != nil {
			summary.ExpiresAt = key.ExpiresAt.Format(time.RFC3339)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func newRawAPIKey(env domain.Environment) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return fmt.Sprintf("%s%s_%s", domain.TransactionIDPrefix, env, base64.RawURLEncoding.EncodeToString(buf)), nil
}

func hashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

func environmentFromKeyPrefix(rawKey string) (domain.Environment, bool) {
	switch {
	case len(rawKey) > 9 && rawKey[:9] == "unf_test_":
		return domain.EnvironmentTest, true
	case len(rawKey) > 9 && rawKey[:9] == "unf_live_":
		return domain.EnvironmentLive, true
	}
	return "", false
}

func rateLimitDefaults(env domain.Environment) (perMin, perDay int) {
	if env == domain.EnvironmentLive {
		return 100, 10000
	}
	return 1000, 100000
}
