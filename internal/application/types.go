package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/onerouter/gateway/internal/domain"
)

type Config struct {
	DefaultProvider domain.Provider
	APIKeyCacheTTL  time.Duration
}

// AuthContext is the authenticated caller identity resolved from an API key.
// The key's environment is the explicit environment for every routing decision
// made on its behalf.
type AuthContext struct {
	APIKeyID    uuid.UUID
	TenantID    uuid.UUID
	Environment domain.Environment
}

type CreateOrderRequest struct {
	Amount    string            `json:"amount" validate:"required"`
	Currency  string            `json:"currency" validate:"required,len=3"`
	Provider  string            `json:"provider" validate:"omitempty,oneof=razorpay paypal"`
	Receipt   string            `json:"receipt"`
	Notes     map[string]string `json:"notes"`
	ReturnURL string            `json:"return_url" validate:"omitempty,url"`
	CancelURL string            `json:"cancel_url" validate:"omitempty,url"`
}

type OrderResponse struct {
	TransactionID   string `json:"transaction_id"`
	Provider        string `json:"provider"`
	ProviderOrderID string `json:"provider_order_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	Receipt         string `json:"receipt,omitempty"`
	CheckoutURL     string `json:"checkout_url,omitempty"`
	Environment     string `json:"environment"`
	CreatedAt       string `json:"created_at"`
}

type CreateRefundRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	Provider  string `json:"provider" validate:"omitempty,oneof=razorpay paypal"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency" validate:"required_with=Amount"`
}

type RefundResponse struct {
	RefundID         string `json:"refund_id"`
	Provider         string `json:"provider"`
	ProviderRefundID string `json:"provider_refund_id"`
	PaymentID        string `json:"payment_id"`
	Amount           string `json:"amount,omitempty"`
	Currency         string `json:"currency,omitempty"`
	Status           string `json:"status"`
	Environment      string `json:"environment"`
}

// WebhookHeaders carries the provider signature headers of one delivery.
type WebhookHeaders struct {
	RazorpaySignature string

	PayPalTransmissionID   string
	PayPalTransmissionTime string
	PayPalTransmissionSig  string
	PayPalAuthAlgo         string
	PayPalCertURL          string
}

type WebhookResult struct {
	EventID   uuid.UUID `json:"event_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Provider  string    `json:"provider"`
	EventType string    `json:"event_type"`
	Forwarded bool      `json:"forwarded"`
}

type GenerateAPIKeyRequest struct {
	TenantID    string `json:"tenant_id" validate:"required,uuid"`
	KeyName     string `json:"key_name" validate:"required,max=128"`
	Environment string `json:"environment" validate:"required,oneof=test live"`
	ExpiresIn   int64  `json:"expires_in_days" validate:"omitempty,min=1,max=3650"`
}

// GenerateAPIKeyResponse is the only surface that ever carries the raw key.
type GenerateAPIKeyResponse struct {
	KeyID       uuid.UUID `json:"key_id"`
	APIKey      string    `json:"api_key"`
	KeyPrefix   string    `json:"key_prefix"`
	Environment string    `json:"environment"`
	ExpiresAt   string    `json:"expires_at,omitempty"`
}

type APIKeySummary struct {
	KeyID       uuid.UUID `json:"key_id"`
	KeyName     string    `json:"key_name"`
	KeyPrefix   string    `json:"key_prefix"`
	Environment string    `json:"environment"`
	IsActive    bool      `json:"is_active"`
	LastUsedAt  string    `json:"last_used_at,omitempty"`
	ExpiresAt   string    `json:"expires_at,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

type ConnectCredentialsRequest struct {
	Provider    string            `json:"provider" validate:"required,oneof=razorpay paypal"`
	Environment string            `json:"environment" validate:"required,oneof=test live"`
	Credentials map[string]string `json:"credentials" validate:"required"`
	Features    map[string]bool   `json:"features"`
}

// CredentialSummary exposes credential metadata only; the blob never leaves
// the vault boundary.
type CredentialSummary struct {
	CredentialID uuid.UUID       `json:"credential_id"`
	Provider     string          `json:"provider"`
	Environment  string          `json:"environment"`
	Features     map[string]bool `json:"features,omitempty"`
	LastVerified string          `json:"last_verified,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type EncryptionStatusResponse struct {
	CurrentVersion    uint32   `json:"current_version"`
	AvailableVersions []uint32 `json:"available_versions"`
	Algorithm         string   `json:"algorithm"`
}

type RotateKeyResponse struct {
	NewVersion uint32 `json:"new_version"`
}

type PruneKeysRequest struct {
	Keep int `json:"keep" validate:"required,min=1"`
}

type PruneKeysResponse struct {
	Removed int `json:"removed"`
}
