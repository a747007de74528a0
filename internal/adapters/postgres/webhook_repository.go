package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onerouter/gateway/internal/domain"
)

type webhookReceiptRepository struct {
	db *gorm.DB
}

func (r *webhookReceiptRepository) Seen(ctx context.Context, provider domain.Provider, transmissionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&webhookReceiptModel{}).
		Where("provider = ? AND transmission_id = ?", string(provider), transmissionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *webhookReceiptRepository) Record(ctx context.Context, receipt domain.WebhookReceipt) error {
	rec := webhookReceiptModel{
		ReceiptID:      receipt.ReceiptID,
		Provider:       string(receipt.Provider),
		TransmissionID: receipt.TransmissionID,
		ReceivedAt:     receipt.ReceivedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrWebhookVerificationFailed
		}
		return err
	}
	return nil
}

type webhookEventRepository struct {
	db *gorm.DB
}

func (r *webhookEventRepository) Insert(ctx context.Context, event domain.WebhookEvent) (domain.WebhookEvent, error) {
	payload := string(event.Payload)
	if payload == "" {
		payload = "{}"
	}
	rec := webhookEventModel{
		EventID:    event.EventID,
		TenantID:   event.TenantID,
		Provider:   string(event.Provider),
		EventType:  event.EventType,
		Payload:    payload,
		Signature:  event.Signature,
		Forwarded:  event.Forwarded,
		ReceivedAt: event.ReceivedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.WebhookEvent{}, err
	}
	return event, nil
}

func (r *webhookEventRepository) MarkForwarded(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&webhookEventModel{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"forwarded":    true,
			"forwarded_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
