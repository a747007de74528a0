package postgres

import (
	"time"

	"github.com/google/uuid"
)

type tenantModel struct {
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name"`
	IsActive  bool      `gorm:"column:is_active"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (tenantModel) TableName() string { return "tenants" }

type serviceCredentialModel struct {
	CredentialID  uuid.UUID  `gorm:"column:credential_id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID      uuid.UUID  `gorm:"column:tenant_id"`
	Provider      string     `gorm:"column:provider"`
	Environment   string     `gorm:"column:environment"`
	EncryptedBlob []byte     `gorm:"column:encrypted_blob"`
	Features      string     `gorm:"column:features;type:jsonb"`
	IsActive      bool       `gorm:"column:is_active"`
	LastVerified  *time.Time `gorm:"column:last_verified"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (serviceCredentialModel) TableName() string { return "service_credentials" }

type tenantPreferenceModel struct {
	PreferenceID         uuid.UUID `gorm:"column:preference_id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID             uuid.UUID `gorm:"column:tenant_id"`
	Provider             string    `gorm:"column:provider"`
	PreferredEnvironment string    `gorm:"column:preferred_environment"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (tenantPreferenceModel) TableName() string { return "tenant_environment_preferences" }

type apiKeyModel struct {
	KeyID           uuid.UUID  `gorm:"column:key_id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID        uuid.UUID  `gorm:"column:tenant_id"`
	KeyHash         string     `gorm:"column:key_hash"`
	KeyName         string     `gorm:"column:key_name"`
	KeyPrefix       string     `gorm:"column:key_prefix"`
	Environment     string     `gorm:"column:environment"`
	IsActive        bool       `gorm:"column:is_active"`
	RateLimitPerMin int        `gorm:"column:rate_limit_per_min"`
	RateLimitPerDay int        `gorm:"column:rate_limit_per_day"`
	LastUsedAt      *time.Time `gorm:"column:last_used_at"`
	ExpiresAt       *time.Time `gorm:"column:expires_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
}

func (apiKeyModel) TableName() string { return "api_keys" }

type idempotencyRecordModel struct {
	APIKeyID       uuid.UUID `gorm:"column:api_key_id;type:uuid;primaryKey"`
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	StatusCode     int       `gorm:"column:status_code"`
	ResponseBody   *string   `gorm:"column:response_body;type:jsonb"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (idempotencyRecordModel) TableName() string { return "idempotency_records" }

type webhookReceiptModel struct {
	ReceiptID      uuid.UUID `gorm:"column:receipt_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Provider       string    `gorm:"column:provider"`
	TransmissionID string    `gorm:"column:transmission_id"`
	ReceivedAt     time.Time `gorm:"column:received_at"`
}

func (webhookReceiptModel) TableName() string { return "webhook_receipts" }

type webhookEventModel struct {
	EventID     uuid.UUID  `gorm:"column:event_id;type:uuid;primaryKey"`
	TenantID    uuid.UUID  `gorm:"column:tenant_id"`
	Provider    string     `gorm:"column:provider"`
	EventType   string     `gorm:"column:event_type"`
	Payload     string     `gorm:"column:payload;type:jsonb"`
	Signature   string     `gorm:"column:signature"`
	Forwarded   bool       `gorm:"column:forwarded"`
	ForwardedAt *time.Time `gorm:"column:forwarded_at"`
	ReceivedAt  time.Time  `gorm:"column:received_at"`
}

func (webhookEventModel) TableName() string { return "webhook_events" }

type transactionLogModel struct {
	LogID         uuid.UUID  `gorm:"column:log_id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID      uuid.UUID  `gorm:"column:tenant_id"`
	APIKeyID      *uuid.UUID `gorm:"column:api_key_id"`
	TransactionID string     `gorm:"column:transaction_id"`
	Provider      string     `gorm:"column:provider"`
	Environment   string     `gorm:"column:environment"`
	Method        string     `gorm:"column:method"`
	Endpoint      string     `gorm:"column:endpoint"`
	StatusCode    int        `gorm:"column:status_code"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
}

func (transactionLogModel) TableName() string { return "transaction_logs" }
