package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an account that owns credentials and API keys. Tenants are never
// deleted, only deactivated.
type Tenant struct {
	TenantID  uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ServiceCredential holds one encrypted credential blob for a
// (tenant, provider, environment) triple. At most one active row exists per
// triple; disconnect is a soft delete.
type ServiceCredential struct {
	CredentialID  uuid.UUID
	TenantID      uuid.UUID
	Provider      Provider
	Environment   Environment
	EncryptedBlob []byte
	Features      map[string]bool
	IsActive      bool
	LastVerified  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// APIKey authenticates a tenant request and pins the environment through its
// key prefix. Only the SHA-256 hash of the raw key is stored.
type APIKey struct {
	KeyID           uuid.UUID
	TenantID        uuid.UUID
	KeyHash         string
	KeyName         string
	KeyPrefix       string
	Environment     Environment
	IsActive        bool
	RateLimitPerMin int
	RateLimitPerDay int
	LastUsedAt      *time.Time
	ExpiresAt       *time.Time
	CreatedAt       time.Time
}

// Expired reports whether the key has passed its optional expiry.
func (k APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

// TransactionLog records one unified payment call. GetPaymentOrder uses it to
// resolve which provider owns a transaction id.
type TransactionLog struct {
	LogID         uuid.UUID
	TenantID      uuid.UUID
	APIKeyID      *uuid.UUID
	TransactionID string
	Provider      Provider
	Environment   Environment
	Method        string
	Endpoint      string
	StatusCode    int
	CreatedAt     time.Time
}
