package postgres

import (
	"github.com/onerouter/gateway/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Credentials     ports.CredentialRepository
	Preferences     ports.TenantPreferenceRepository
	Idempotency     ports.IdempotencyRepository
	WebhookReceipts ports.WebhookReceiptRepository
	WebhookEvents   ports.WebhookEventRepository
	APIKeys         ports.APIKeyRepository
	TransactionLogs ports.TransactionLogRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Credentials:     &credentialRepository{db: db},
		Preferences:     &preferenceRepository{db: db},
		Idempotency:     &idempotencyRepository{db: db},
		WebhookReceipts: &webhookReceiptRepository{db: db},
		WebhookEvents:   &webhookEventRepository{db: db},
		APIKeys:         &apiKeyRepository{db: db},
		TransactionLogs: &transactionLogRepository{db: db},
	}
}
