package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/ports"
)

// tokenExpiryBuffer forces a refresh well before PayPal's own expiry so a
// token never dies mid call chain.
const tokenExpiryBuffer = 300 * time.Second

// PayPal talks to the PayPal v2 Orders and v1 Payments APIs. Amounts convert
// between minor units and PayPal's 2-decimal major-unit strings at the wire
// boundary only.
type PayPal struct {
	cfg          Config
	clientID     string
	clientSecret string
	webhookID    string
	baseURL      string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPal(cfg Config, credentials map[string]string, env domain.Environment) (*PayPal, error) {
	clientID := credentials["PAYPAL_CLIENT_ID"]
	clientSecret := credentials["PAYPAL_CLIENT_SECRET"]
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: paypal credentials incomplete", domain.ErrConfiguration)
	}

	mode := strings.ToLower(credentials["PAYPAL_MODE"])
	if mode == "" {
		if env == domain.EnvironmentLive {
			mode = "live"
		} else {
			mode = "sandbox"
		}
	}
	baseURL := cfg.PayPalSandboxURL
	if mode == "live" {
		baseURL = cfg.PayPalLiveURL
	}

	return &PayPal{
		cfg:          cfg,
		clientID:     clientID,
		clientSecret: clientSecret,
		webhookID:    credentials["PAYPAL_WEBHOOK_ID"],
		baseURL:      baseURL,
	}, nil
}

func (p *PayPal) Provider() domain.Provider { return domain.ProviderPayPal }

// token returns a cached OAuth access token, fetching a fresh one when the
// cached token is absent or inside the expiry buffer.
func (p *PayPal) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequest(http.MethodPost, p.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.clientID, p.clientSecret)

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if _, err := doJSON(ctx, p.cfg.HTTPClient, p.cfg.ReadTimeout, req, &grant); err != nil {
		return "", err
	}
	if grant.AccessToken == "" {
		return "", fmt.Errorf("%w: paypal returned an empty access token", domain.ErrProviderUnavailable)
	}

	p.accessToken = grant.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(grant.ExpiresIn)*time.Second - tokenExpiryBuffer)
	return p.accessToken, nil
}

func (p *PayPal) authedJSON(ctx context.Context, method, path string, payload any, timeout time.Duration, out any) (int, error) {
	token, err := p.token(ctx)
	if err != nil {
		return 0, err
	}
	req, err := jsonRequest(method, p.baseURL+path, payload)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return doJSON(ctx, p.cfg.HTTPClient, timeout, req, out)
}

type paypalOrder struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	CreateTime string `json:"create_time"`
	Links      []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		CustomID    string `json:"custom_id"`
		Amount      struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"amount"`
	} `json:"purchase_units"`
}

func (p *PayPal) CreateOrder(ctx context.Context, params ports.CreateOrderParams) (domain.UnifiedOrder, error) {
	unit := map[string]any{
		"amount": map[string]string{
			"currency_code": params.Amount.Currency,
			"value":         params.Amount.MajorString(),
		},
		"custom_id": params.TenantID,
	}
	if params.Receipt != "" {
		unit["invoice_id"] = params.Receipt
	}

	payload := map[string]any{
		"intent":         "CAPTURE",
		"purchase_units": []any{unit},
	}
	appCtx := map[string]string{}
	if params.ReturnURL != "" {
		appCtx["return_url"] = params.ReturnURL
	}
	if params.CancelURL != "" {
		appCtx["cancel_url"] = params.CancelURL
	}
	if len(appCtx) > 0 {
		payload["application_context"] = appCtx
	}

	var order paypalOrder
	if _, err := p.authedJSON(ctx, http.MethodPost, "/v2/checkout/orders", payload, p.cfg.WriteTimeout, &order); err != nil {
		return domain.UnifiedOrder{}, err
	}

	unified := p.toUnified(order, params.Amount)
	unified.Receipt = params.Receipt
	return unified, nil
}

func (p *PayPal) GetOrder(ctx context.Context, providerOrderID string) (domain.UnifiedOrder, error) {
	var order paypalOrder
	status, err := p.authedJSON(ctx, http.MethodGet, "/v2/checkout/orders/"+providerOrderID, nil, p.cfg.ReadTimeout, &order)
	if err != nil {
		if status == http.StatusNotFound {
			return domain.UnifiedOrder{}, fmt.Errorf("%w: order %s", domain.ErrNotFound, providerOrderID)
		}
		return domain.UnifiedOrder{}, err
	}
	return p.toUnified(order, domain.Amount{}), nil
}

// CaptureOrder moves an approved order to COMPLETED.
func (p *PayPal) CaptureOrder(ctx context.Context, providerOrderID string) (domain.UnifiedOrder, error) {
	var order paypalOrder
	if _, err := p.authedJSON(ctx, http.MethodPost, "/v2/checkout/orders/"+providerOrderID+"/capture", map[string]any{}, p.cfg.WriteTimeout, &order); err != nil {
		return domain.UnifiedOrder{}, err
	}
	return p.toUnified(order, domain.Amount{}), nil
}

func (p *PayPal) CreateRefund(ctx context.Context, params ports.CreateRefundParams) (domain.UnifiedRefund, error) {
	payload := map[string]any{}
	if !params.Amount.IsZero() {
		payload["amount"] = map[string]string{
			"currency_code": params.Amount.Currency,
			"value":         params.Amount.MajorString(),
		}
	}

	var refund struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		CreateTime string `json:"create_time"`
		Amount     struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"amount"`
	}
	if _, err := p.authedJSON(ctx, http.MethodPost, "/v2/payments/captures/"+params.PaymentID+"/refund", payload, p.cfg.WriteTimeout, &refund); err != nil {
		return domain.UnifiedRefund{}, err
	}

	amount := params.Amount
	if parsed, err := domain.ParseAmount(refund.Amount.Value, refund.Amount.CurrencyCode); err == nil {
		amount = parsed
	}
	return domain.UnifiedRefund{
		RefundID:         unifiedTransactionID(refund.ID),
		Provider:         domain.ProviderPayPal,
		ProviderRefundID: refund.ID,
		PaymentID:        params.PaymentID,
		Amount:           amount,
		Status:           paypalRefundStatus(refund.Status),
		CreatedAt:        parsePayPalTime(refund.CreateTime),
	}, nil
}

// ValidateCredentials succeeds when a client-credentials grant succeeds.
func (p *PayPal) ValidateCredentials(ctx context.Context) error {
	p.mu.Lock()
	p.accessToken = ""
	p.mu.Unlock()
	_, err := p.token(ctx)
	return err
}

// VerifyWebhookSignature delegates to PayPal's verification API, which checks
// the certificate chain and signature server side.
func (p *PayPal) VerifyWebhookSignature(ctx context.Context, params ports.WebhookVerifyParams) (bool, error) {
	webhookID := params.WebhookID
	if webhookID == "" {
		webhookID = p.webhookID
	}
	if webhookID == "" {
		return false, fmt.Errorf("%w: paypal webhook id not configured", domain.ErrConfiguration)
	}

	var event json.RawMessage
	if err := json.Unmarshal(params.RawEvent, &event); err != nil {
		return false, fmt.Errorf("parse webhook event: %w", err)
	}

	payload := map[string]any{
		"transmission_id":   params.TransmissionID,
		"transmission_time": params.TransmissionTime,
		"transmission_sig":  params.TransmissionSig,
		"auth_algo":         params.AuthAlgo,
		"cert_url":          params.CertURL,
		"webhook_id":        webhookID,
		"webhook_event":     event,
	}

	var result struct {
		VerificationStatus string `json:"verification_status"`
	}
	if _, err := p.authedJSON(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", payload, p.cfg.ReadTimeout, &result); err != nil {
		return false, err
	}
	return result.VerificationStatus == "SUCCESS", nil
}

// CreateSubscription starts a billing subscription for an existing plan.
func (p *PayPal) CreateSubscription(ctx context.Context, planID string, attrs map[string]string) (map[string]any, error) {
	payload := map[string]any{"plan_id": planID}
	if v := attrs["custom_id"]; v != "" {
		payload["custom_id"] = v
	}
	if ret, cancel := attrs["return_url"], attrs["cancel_url"]; ret != "" || cancel != "" {
		appCtx := map[string]string{}
		if ret != "" {
			appCtx["return_url"] = ret
		}
		if cancel != "" {
			appCtx["cancel_url"] = cancel
		}
		payload["application_context"] = appCtx
	}

	var out map[string]any
	if _, err := p.authedJSON(ctx, http.MethodPost, "/v1/billing/subscriptions", payload, p.cfg.WriteTimeout, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelSubscription cancels an active billing subscription.
func (p *PayPal) CancelSubscription(ctx context.Context, subscriptionID, reason string) error {
	if reason == "" {
		reason = "cancelled by merchant"
	}
	payload := map[string]string{"reason": reason}
	_, err := p.authedJSON(ctx, http.MethodPost, "/v1/billing/subscriptions/"+subscriptionID+"/cancel", payload, p.cfg.WriteTimeout, nil)
	return err
}

func (p *PayPal) toUnified(order paypalOrder, fallback domain.Amount) domain.UnifiedOrder {
	amount := fallback
	if len(order.PurchaseUnits) > 0 {
		unit := order.PurchaseUnits[0]
		if parsed, err := domain.ParseAmount(unit.Amount.Value, unit.Amount.CurrencyCode); err == nil {
			amount = parsed
		}
	}

	var checkoutURL string
	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			checkoutURL = link.Href
			break
		}
	}

	return domain.UnifiedOrder{
		TransactionID:   unifiedTransactionID(order.ID),
		Provider:        domain.ProviderPayPal,
		ProviderOrderID: order.ID,
		Amount:          amount,
		Status:          paypalOrderStatus(order.Status),
		CheckoutURL:     checkoutURL,
		CreatedAt:       parsePayPalTime(order.CreateTime),
	}
}

func paypalOrderStatus(raw string) domain.OrderStatus {
	switch raw {
	case "CREATED":
		return domain.StatusCreated
	case "APPROVED", "SAVED", "PAYER_ACTION_REQUIRED":
		return domain.StatusPending
	case "COMPLETED":
		return domain.StatusCompleted
	case "VOIDED":
		return domain.StatusFailed
	default:
		return domain.StatusUnknown
	}
}

func paypalRefundStatus(raw string) domain.OrderStatus {
	switch raw {
	case "PENDING":
		return domain.StatusPending
	case "COMPLETED":
		return domain.StatusCompleted
	case "CANCELLED", "FAILED":
		return domain.StatusFailed
	default:
		return domain.StatusUnknown
	}
}

func parsePayPalTime(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}
