package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/onerouter/gateway/internal/domain"
)

// CredentialRepository persists encrypted service credentials. The storage
// layer enforces the single-active-row invariant per (tenant, provider,
// environment) with a partial unique index; concurrent writers to the same
// triple are serialized by that constraint.
type CredentialRepository interface {
	GetActive(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, env domain.Environment) (domain.ServiceCredential, error)
	ListActive(ctx context.Context, tenantID uuid.UUID, env domain.Environment) ([]domain.ServiceCredential, error)
	Create(ctx context.Context, cred domain.ServiceCredential) (domain.ServiceCredential, error)
	ReplaceBlob(ctx context.Context, credentialID uuid.UUID, blob []byte, updatedAt time.Time) error
	Deactivate(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, env domain.Environment, at time.Time) error
}

// TenantPreferenceRepository reads a tenant's preferred environment per
// provider. Absent preference means the router defaults to test.
type TenantPreferenceRepository interface {
	PreferredEnvironment(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) (domain.Environment, bool, error)
}

// IdempotencyRecord is the durable replay record for one completed request.
// Written exactly once; expiry is TTL-based and out of band.
type IdempotencyRecord struct {
	APIKeyID       uuid.UUID
	IdempotencyKey string
	RequestHash    string
	StatusCode     int
	ResponseBody   []byte
	CreatedAt      time.Time
}

// IdempotencyRepository stores completed request/response records keyed by
// (api key, idempotency key). Get returns (record, false, nil) when absent.
type IdempotencyRepository interface {
	Get(ctx context.Context, apiKeyID uuid.UUID, key string) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, rec IdempotencyRecord) error
}

// WebhookReceiptRepository records transmission ids for replay detection.
// Seen must be race-free with Record for the same transmission id; the unique
// constraint on (provider, transmission_id) is the arbiter.
type WebhookReceiptRepository interface {
	Seen(ctx context.Context, provider domain.Provider, transmissionID string) (bool, error)
	Record(ctx context.Context, receipt domain.WebhookReceipt) error
}

// WebhookEventRepository stores verified events prior to forwarding.
type WebhookEventRepository interface {
	Insert(ctx context.Context, event domain.WebhookEvent) (domain.WebhookEvent, error)
	MarkForwarded(ctx context.Context, eventID uuid.UUID, at time.Time) error
}

// APIKeyRepository manages tenant API keys. Lookup is by SHA-256 hash of the
// raw key; the raw key is never stored.
type APIKeyRepository interface {
	Create(ctx context.Context, key domain.APIKey) (domain.APIKey, error)
	GetByHash(ctx context.Context, keyHash string) (domain.APIKey, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.APIKey, error)
	TouchLastUsed(ctx context.Context, keyID uuid.UUID, at time.Time) error
}

// TransactionLogRepository records unified payment calls and resolves the
// provider that owns a transaction id.
type TransactionLogRepository interface {
	Insert(ctx context.Context, log domain.TransactionLog) error
	GetByTransactionID(ctx context.Context, tenantID uuid.UUID, transactionID string) (domain.TransactionLog, error)
}
