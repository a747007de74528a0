package ports

import (
	"context"

	"github.com/onerouter/gateway/internal/domain"
)

// CreateOrderParams are the provider-neutral inputs for order creation.
// TenantID travels to the provider (Razorpay notes, PayPal custom_id) so the
// webhook path can attribute the event back to a tenant.
type CreateOrderParams struct {
	Amount    domain.Amount
	TenantID  string
	Receipt   string
	Notes     map[string]string
	ReturnURL string
	CancelURL string
}

// CreateRefundParams are the provider-neutral inputs for a refund. A zero
// Amount means a full refund.
type CreateRefundParams struct {
	PaymentID string
	Amount    domain.Amount
}

// ProviderAdapter is the required capability set every provider satisfies.
// Instances are ephemeral: they hold decrypted credentials in memory for one
// call chain and must never be persisted or logged.
type ProviderAdapter interface {
	Provider() domain.Provider
	CreateOrder(ctx context.Context, params CreateOrderParams) (domain.UnifiedOrder, error)
	GetOrder(ctx context.Context, providerOrderID string) (domain.UnifiedOrder, error)
	CreateRefund(ctx context.Context, params CreateRefundParams) (domain.UnifiedRefund, error)
	ValidateCredentials(ctx context.Context) error
}

// OrderCapturer is an optional capability: capture of an authorized order.
type OrderCapturer interface {
	CaptureOrder(ctx context.Context, providerOrderID string) (domain.UnifiedOrder, error)
}

// SubscriptionManager is an optional capability for subscription lifecycles.
type SubscriptionManager interface {
	CreateSubscription(ctx context.Context, planID string, attrs map[string]string) (map[string]any, error)
	CancelSubscription(ctx context.Context, subscriptionID, reason string) error
}

// WebhookSignatureVerifier is implemented by adapters whose provider exposes a
// verification API (certificate-based schemes). Headers and body pass through
// unmodified.
type WebhookSignatureVerifier interface {
	VerifyWebhookSignature(ctx context.Context, params WebhookVerifyParams) (bool, error)
}

// WebhookVerifyParams mirror the certificate-scheme signature headers.
type WebhookVerifyParams struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	AuthAlgo         string
	CertURL          string
	WebhookID        string
	RawEvent         []byte
}

// CaptureOrder invokes the optional capture capability, translating a missing
// capability into a typed error rather than a nil-interface surprise.
func CaptureOrder(ctx context.Context, adapter ProviderAdapter, providerOrderID string) (domain.UnifiedOrder, error) {
	capturer, ok := adapter.(OrderCapturer)
	if !ok {
		return domain.UnifiedOrder{}, domain.ErrOperationNotSupported
	}
	return capturer.CaptureOrder(ctx, providerOrderID)
}

// CreateSubscription invokes the optional subscription capability.
func CreateSubscription(ctx context.Context, adapter ProviderAdapter, planID string, attrs map[string]string) (map[string]any, error) {
	mgr, ok := adapter.(SubscriptionManager)
	if !ok {
		return nil, domain.ErrOperationNotSupported
	}
	return mgr.CreateSubscription(ctx, planID, attrs)
}

// CancelSubscription invokes the optional subscription capability.
func CancelSubscription(ctx context.Context, adapter ProviderAdapter, subscriptionID, reason string) error {
	mgr, ok := adapter.(SubscriptionManager)
	if !ok {
		return domain.ErrOperationNotSupported
	}
	return mgr.CancelSubscription(ctx, subscriptionID, reason)
}
