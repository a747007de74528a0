package domain

import (
	"fmt"
	"strings"
	"time"
)

// Provider identifies a payment provider supported as a first-class adapter.
type Provider string

const (
	ProviderRazorpay Provider = "razorpay"
	ProviderPayPal   Provider = "paypal"
)

// ParseProvider validates a provider name from an external surface.
func ParseProvider(raw string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderRazorpay:
		return ProviderRazorpay, nil
	case ProviderPayPal:
		return ProviderPayPal, nil
	default:
		return "", fmt.Errorf("%w: unsupported provider %q", ErrInvalidInput, raw)
	}
}

// Environment segregates test and live credentials for a tenant.
type Environment string

const (
	EnvironmentTest Environment = "test"
	EnvironmentLive Environment = "live"
)

// Other returns the opposite environment, used by the router's fallback chain.
func (e Environment) Other() Environment {
	if e == EnvironmentLive {
		return EnvironmentTest
	}
	return EnvironmentLive
}

func ParseEnvironment(raw string) (Environment, error) {
	switch Environment(strings.ToLower(strings.TrimSpace(raw))) {
	case EnvironmentTest:
		return EnvironmentTest, nil
	case EnvironmentLive:
		return EnvironmentLive, nil
	default:
		return "", fmt.Errorf("%w: unsupported environment %q", ErrInvalidInput, raw)
	}
}

// OrderStatus is the unified status vocabulary every adapter normalizes into.
type OrderStatus string

const (
	StatusCreated   OrderStatus = "created"
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusFailed    OrderStatus = "failed"
	StatusUnknown   OrderStatus = "unknown"
)

// TransactionIDPrefix marks unified transaction ids handed to callers.
// The provider order id is always recoverable by stripping it.
const TransactionIDPrefix = "unf_"

// UnifiedOrder is the provider-neutral order shape returned by every adapter.
type UnifiedOrder struct {
	TransactionID   string
	Provider        Provider
	ProviderOrderID string
	Amount          Amount
	Status          OrderStatus
	Receipt         string
	CheckoutURL     string
	CreatedAt       time.Time
	ProviderData    map[string]any
}

// UnifiedRefund is the provider-neutral refund shape.
type UnifiedRefund struct {
	RefundID         string
	Provider         Provider
	ProviderRefundID string
	PaymentID        string
	Amount           Amount
	Status           OrderStatus
	CreatedAt        time.Time
	ProviderData     map[string]any
}
