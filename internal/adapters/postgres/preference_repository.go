package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onerouter/gateway/internal/domain"
)

type preferenceRepository struct {
	db *gorm.DB
}

func (r *preferenceRepository) PreferredEnvironment(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) (domain.Environment, bool, error) {
	var rec tenantPreferenceModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ?", tenantID, string(provider)).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	env, err := domain.ParseEnvironment(rec.PreferredEnvironment)
	if err != nil {
		// A bad row must not take the routing path down; fall back to default.
		return "", false, nil
	}
	return env, true, nil
}
