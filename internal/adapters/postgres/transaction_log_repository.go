package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onerouter/gateway/internal/domain"
)

type transactionLogRepository struct {
	db *gorm.DB
}

func (r *transactionLogRepository) Insert(ctx context.Context, log domain.TransactionLog) error {
	rec := transactionLogModel{
		LogID:         log.LogID,
		TenantID:      log.TenantID,
		APIKeyID:      log.APIKeyID,
		TransactionID: log.TransactionID,
		Provider:      string(log.Provider),
		Environment:   string(log.Environment),
		Method:        log.Method,
		Endpoint:      log.Endpoint,
		StatusCode:    log.StatusCode,
		CreatedAt:     log.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *transactionLogRepository) GetByTransactionID(ctx context.Context, tenantID uuid.UUID, transactionID string) (domain.TransactionLog, error) {
	var rec transactionLogModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND transaction_id = ?", tenantID, transactionID).
		Order("created_at desc").
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TransactionLog{}, domain.ErrNotFound
		}
		return domain.TransactionLog{}, err
	}
	return toDomainTransactionLog(rec), nil
}
