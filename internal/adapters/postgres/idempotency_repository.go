package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/ports"
)

type idempotencyRepository struct {
	db *gorm.DB
}

func (r *idempotencyRepository) Get(ctx context.Context, apiKeyID uuid.UUID, key string) (ports.IdempotencyRecord, bool, error) {
	var rec idempotencyRecordModel
	err := r.db.WithContext(ctx).
		Where("api_key_id = ? AND idempotency_key = ?", apiKeyID, key).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	out := ports.IdempotencyRecord{
		APIKeyID:       rec.APIKeyID,
		IdempotencyKey: rec.IdempotencyKey,
		RequestHash:    rec.RequestHash,
		StatusCode:     rec.StatusCode,
		CreatedAt:      rec.CreatedAt,
	}
	if rec.ResponseBody != nil {
		out.ResponseBody = []byte(*rec.ResponseBody)
	}
	return out, true, nil
}

func (r *idempotencyRepository) Put(ctx context.Context, rec ports.IdempotencyRecord) error {
	var body *string
	if len(rec.ResponseBody) > 0 {
		raw := string(rec.ResponseBody)
		body = &raw
	}
	row := idempotencyRecordModel{
		APIKeyID:       rec.APIKeyID,
		IdempotencyKey: rec.IdempotencyKey,
		RequestHash:    rec.RequestHash,
		StatusCode:     rec.StatusCode,
		ResponseBody:   body,
		CreatedAt:      rec.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyKeyReused
		}
		return err
	}
	return nil
}
