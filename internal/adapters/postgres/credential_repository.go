package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onerouter/gateway/internal/domain"
)

type credentialRepository struct {
	db *gorm.DB
}

func (r *credentialRepository) GetActive(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, env domain.Environment) (domain.ServiceCredential, error) {
	var rec serviceCredentialModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ? AND environment = ? AND is_active", tenantID, string(provider), string(env)).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ServiceCredential{}, domain.ErrNotFound
		}
		return domain.ServiceCredential{}, err
	}
	return toDomainCredential(rec), nil
}

func (r *credentialRepository) ListActive(ctx context.Context, tenantID uuid.UUID, env domain.Environment) ([]domain.ServiceCredential, error) {
	var rows []serviceCredentialModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND environment = ? AND is_active", tenantID, string(env)).
		Order("provider asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	creds := make([]domain.ServiceCredential, 0, len(rows))
	for _, row := range rows {
		creds = append(creds, toDomainCredential(row))
	}
	return creds, nil
}

func (r *credentialRepository) Create(ctx context.Context, cred domain.ServiceCredential) (domain.ServiceCredential, error) {
	rec := toCredentialModel(cred)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ServiceCredential{}, domain.ErrConfiguration
		}
		return domain.ServiceCredential{}, err
	}
	return toDomainCredential(rec), nil
}

func (r *credentialRepository) ReplaceBlob(ctx context.Context, credentialID uuid.UUID, blob []byte, updatedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&serviceCredentialModel{}).
		Where("credential_id = ?", credentialID).
		Updates(map[string]any{
			"encrypted_blob": blob,
			"updated_at":     updatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *credentialRepository) Deactivate(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, env domain.Environment, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&serviceCredentialModel{}).
		Where("tenant_id = ? AND provider = ? AND environment = ? AND is_active", tenantID, string(provider), string(env)).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": at,
		}).Error
}
