package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/ports"
)

// TenantNoteKey is the Razorpay order note the gateway sets at creation time
// so inbound webhooks can be attributed to a tenant.
const TenantNoteKey = "onerouter_tenant_id"

// Razorpay talks to the Razorpay v1 REST API with Basic auth. Amounts are
// already minor units (paise), so no conversion happens on the wire.
type Razorpay struct {
	cfg       Config
	keyID     string
	keySecret string
}

func NewRazorpay(cfg Config, credentials map[string]string) (*Razorpay, error) {
	keyID := credentials["RAZORPAY_KEY_ID"]
	keySecret := credentials["RAZORPAY_KEY_SECRET"]
	if keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("%w: razorpay credentials incomplete", domain.ErrConfiguration)
	}
	return &Razorpay{cfg: cfg, keyID: keyID, keySecret: keySecret}, nil
}

func (r *Razorpay) Provider() domain.Provider { return domain.ProviderRazorpay }

type razorpayOrder struct {
	ID        string         `json:"id"`
	Amount    int64          `json:"amount"`
	Currency  string         `json:"currency"`
	Status    string         `json:"status"`
	Receipt   string         `json:"receipt"`
	CreatedAt int64          `json:"created_at"`
	Notes     map[string]any `json:"notes"`
}

func (r *Razorpay) CreateOrder(ctx context.Context, params ports.CreateOrderParams) (domain.UnifiedOrder, error) {
	notes := map[string]string{TenantNoteKey: params.TenantID}
	for k, v := range params.Notes {
		notes[k] = v
	}

	payload := map[string]any{
		"amount":          params.Amount.MinorUnits,
		"currency":        params.Amount.Currency,
		"payment_capture": 1,
		"notes":           notes,
	}
	if params.Receipt != "" {
		payload["receipt"] = params.Receipt
	}

	req, err := jsonRequest(http.MethodPost, r.cfg.RazorpayBaseURL+"/orders", payload)
	if err != nil {
		return domain.UnifiedOrder{}, err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)

	var order razorpayOrder
	if _, err := doJSON(ctx, r.cfg.HTTPClient, r.cfg.WriteTimeout, req, &order); err != nil {
		return domain.UnifiedOrder{}, err
	}
	return r.toUnified(order), nil
}

func (r *Razorpay) GetOrder(ctx context.Context, providerOrderID string) (domain.UnifiedOrder, error) {
	req, err := jsonRequest(http.MethodGet, r.cfg.RazorpayBaseURL+"/orders/"+providerOrderID, nil)
	if err != nil {
		return domain.UnifiedOrder{}, err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)

	var order razorpayOrder
	status, err := doJSON(ctx, r.cfg.HTTPClient, r.cfg.ReadTimeout, req, &order)
	if err != nil {
		if status == http.StatusNotFound {
			return domain.UnifiedOrder{}, fmt.Errorf("%w: order %s", domain.ErrNotFound, providerOrderID)
		}
		return domain.UnifiedOrder{}, err
	}
	return r.toUnified(order), nil
}

type razorpayRefund struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

func (r *Razorpay) CreateRefund(ctx context.Context, params ports.CreateRefundParams) (domain.UnifiedRefund, error) {
	payload := map[string]any{}
	if !params.Amount.IsZero() {
		payload["amount"] = params.Amount.MinorUnits
	}

	req, err := jsonRequest(http.MethodPost, r.cfg.RazorpayBaseURL+"/payments/"+params.PaymentID+"/refund", payload)
	if err != nil {
		return domain.UnifiedRefund{}, err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)

	var refund razorpayRefund
	if _, err := doJSON(ctx, r.cfg.HTTPClient, r.cfg.WriteTimeout, req, &refund); err != nil {
		return domain.UnifiedRefund{}, err
	}
	return domain.UnifiedRefund{
		RefundID:         unifiedTransactionID(refund.ID),
		Provider:         domain.ProviderRazorpay,
		ProviderRefundID: refund.ID,
		PaymentID:        refund.PaymentID,
		Amount:           domain.AmountFromMinor(refund.Amount, refund.Currency),
		Status:           razorpayRefundStatus(refund.Status),
		CreatedAt:        time.Unix(refund.CreatedAt, 0).UTC(),
	}, nil
}

// ValidateCredentials probes the orders endpoint. A 4xx other than auth
// failure still proves the key pair is accepted.
func (r *Razorpay) ValidateCredentials(ctx context.Context) error {
	req, err := jsonRequest(http.MethodGet, r.cfg.RazorpayBaseURL+"/orders?count=1", nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)

	status, err := doJSON(ctx, r.cfg.HTTPClient, r.cfg.ReadTimeout, req, nil)
	if err != nil && status == http.StatusUnauthorized {
		return fmt.Errorf("%w: razorpay rejected the key pair", domain.ErrProviderRejected)
	}
	if err != nil && status == 0 {
		return err
	}
	return nil
}

func (r *Razorpay) toUnified(order razorpayOrder) domain.UnifiedOrder {
	return domain.UnifiedOrder{
		TransactionID:   unifiedTransactionID(order.ID),
		Provider:        domain.ProviderRazorpay,
		ProviderOrderID: order.ID,
		Amount:          domain.AmountFromMinor(order.Amount, order.Currency),
		Status:          razorpayOrderStatus(order.Status),
		Receipt:         order.Receipt,
		CreatedAt:       time.Unix(order.CreatedAt, 0).UTC(),
	}
}

func razorpayOrderStatus(raw string) domain.OrderStatus {
	switch raw {
	case "created":
		return domain.StatusCreated
	case "attempted":
		return domain.StatusPending
	case "paid":
		return domain.StatusCompleted
	default:
		return domain.StatusUnknown
	}
}

func razorpayRefundStatus(raw string) domain.OrderStatus {
	switch raw {
	case "pending":
		return domain.StatusPending
	case "processed":
		return domain.StatusCompleted
	case "failed":
		return domain.StatusFailed
	default:
		return domain.StatusUnknown
	}
}
