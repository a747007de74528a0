package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onerouter/gateway/internal/domain"
)

type apiKeyRepository struct {
	db *gorm.DB
}

func (r *apiKeyRepository) Create(ctx context.Context, key domain.APIKey) (domain.APIKey, error) {
	rec := apiKeyModel{
		KeyID:           key.KeyID,
		TenantID:        key.TenantID,
		KeyHash:         key.KeyHash,
		KeyName:         key.KeyName,
		KeyPrefix:       key.KeyPrefix,
		Environment:     string(key.Environment),
		IsActive:        key.IsActive,
		RateLimitPerMin: key.RateLimitPerMin,
		RateLimitPerDay: key.RateLimitPerDay,
		ExpiresAt:       key.ExpiresAt,
		CreatedAt:       key.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.APIKey{}, domain.ErrConfiguration
		}
		return domain.APIKey{}, err
	}
	return toDomainAPIKey(rec), nil
}

func (r *apiKeyRepository) GetByHash(ctx context.Context, keyHash string) (domain.APIKey, error) {
	var rec apiKeyModel
	if err := r.db.WithContext(ctx).Where("key_hash = ?", keyHash).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.APIKey{}, domain.ErrNotFound
		}
		return domain.APIKey{}, err
	}
	return toDomainAPIKey(rec), nil
}

func (r *apiKeyRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.APIKey, error) {
	var rows []apiKeyModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	keys := make([]domain.APIKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, toDomainAPIKey(row))
	}
	return keys, nil
}

func (r *apiKeyRepository) TouchLastUsed(ctx context.Context, keyID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&apiKeyModel{}).
		Where("key_id = ?", keyID).
		Update("last_used_at", at).Error
}
