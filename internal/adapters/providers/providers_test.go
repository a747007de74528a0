package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/ports"
)

func razorpayCreds() map[string]string {
	return map[string]string{
		"RAZORPAY_KEY_ID":     "rzp_test_abc",
		"RAZORPAY_KEY_SECRET": "secret",
	}
}

func paypalCreds() map[string]string {
	return map[string]string{
		"PAYPAL_CLIENT_ID":     "client",
		"PAYPAL_CLIENT_SECRET": "secret",
		"PAYPAL_WEBHOOK_ID":    "wh-1",
	}
}

func TestRazorpayCreateOrderInjectsTenantNote(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, _ := r.BasicAuth()
		if user != "rzp_test_abc" || pass != "secret" {
			t.Errorf("unexpected basic auth %q/%q", user, pass)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":         "order_123",
			"amount":     10000,
			"currency":   "INR",
			"status":     "created",
			"receipt":    "rcpt-1",
			"created_at": time.Now().Unix(),
		})
	}))
	defer srv.Close()

	adapter, err := NewRazorpay(Config{RazorpayBaseURL: srv.URL}.withDefaults(), razorpayCreds())
	if err != nil {
		t.Fatalf("NewRazorpay: %v", err)
	}

	order, err := adapter.CreateOrder(context.Background(), ports.CreateOrderParams{
		Amount:   domain.Amount{MinorUnits: 10000, Currency: "INR"},
		TenantID: "tenant-1",
		Receipt:  "rcpt-1",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.TransactionID != "unf_order_123" {
		t.Errorf("transaction id = %q", order.TransactionID)
	}
	if order.Status != domain.StatusCreated {
		t.Errorf("status = %q", order.Status)
	}
	if order.Amount.MinorUnits != 10000 {
		t.Errorf("amount = %d", order.Amount.MinorUnits)
	}

	if captured["amount"].(float64) != 10000 {
		t.Errorf("wire amount = %v, want paise passthrough", captured["amount"])
	}
	notes := captured["notes"].(map[string]any)
	if notes[TenantNoteKey] != "tenant-1" {
		t.Errorf("tenant note = %v", notes[TenantNoteKey])
	}
	if captured["payment_capture"].(float64) != 1 {
		t.Errorf("payment_capture = %v", captured["payment_capture"])
	}
}

func TestRazorpayStatusMapping(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.OrderStatus{
		"created":   domain.StatusCreated,
		"attempted": domain.StatusPending,
		"paid":      domain.StatusCompleted,
		"weird":     domain.StatusUnknown,
	}
	for raw, want := range cases {
		if got := razorpayOrderStatus(raw); got != want {
			t.Errorf("razorpayOrderStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestRazorpayTranslatesProviderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "bad request",
			status:  http.StatusBadRequest,
			body:    `{"error":{"description":"amount must be at least 100"}}`,
			wantErr: domain.ErrProviderRejected,
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    `{"error":{"description":"upstream down"}}`,
			wantErr: domain.ErrProviderUnavailable,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			adapter, err := NewRazorpay(Config{RazorpayBaseURL: srv.URL}.withDefaults(), razorpayCreds())
			if err != nil {
				t.Fatalf("NewRazorpay: %v", err)
			}
			_, err = adapter.CreateOrder(context.Background(), ports.CreateOrderParams{
				Amount: domain.Amount{MinorUnits: 50, Currency: "INR"},
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRazorpayTransportFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	adapter, err := NewRazorpay(Config{RazorpayBaseURL: srv.URL}.withDefaults(), razorpayCreds())
	if err != nil {
		t.Fatalf("NewRazorpay: %v", err)
	}
	_, err = adapter.GetOrder(context.Background(), "order_123")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}

func newPayPalServer(t *testing.T, tokenCalls *int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			atomic.AddInt32(tokenCalls, 1)
			user, pass, _ := r.BasicAuth()
			if user != "client" || pass != "secret" {
				t.Errorf("token basic auth = %q/%q", user, pass)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-1",
				"expires_in":   3600,
			})
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		handler(w, r)
	}))
}

func TestPayPalCreateOrderConvertsAmountAndExtractsApproveLink(t *testing.T) {
	t.Parallel()

	var tokenCalls int32
	var captured map[string]any
	srv := newPayPalServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/checkout/orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "5O190127TN364715T",
			"status":      "CREATED",
			"create_time": "2026-03-01T10:00:00Z",
			"links": []map[string]string{
				{"href": "https://api.test/self", "rel": "self"},
				{"href": "https://www.paypal.test/checkoutnow?token=5O1", "rel": "approve"},
			},
			"purchase_units": []map[string]any{
				{"amount": map[string]string{"currency_code": "USD", "value": "100.00"}},
			},
		})
	})
	defer srv.Close()

	adapter, err := NewPayPal(Config{PayPalSandboxURL: srv.URL}.withDefaults(), paypalCreds(), domain.EnvironmentTest)
	if err != nil {
		t.Fatalf("NewPayPal: %v", err)
	}

	order, err := adapter.CreateOrder(context.Background(), ports.CreateOrderParams{
		Amount:    domain.Amount{MinorUnits: 10000, Currency: "USD"},
		TenantID:  "tenant-7",
		ReturnURL: "https://merchant.test/return",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.Status != domain.StatusCreated {
		t.Errorf("status = %q", order.Status)
	}
	if order.CheckoutURL != "https://www.paypal.test/checkoutnow?token=5O1" {
		t.Errorf("checkout url = %q", order.CheckoutURL)
	}
	if order.Amount.MinorUnits != 10000 {
		t.Errorf("amount = %d", order.Amount.MinorUnits)
	}

	units := captured["purchase_units"].([]any)
	unit := units[0].(map[string]any)
	amount := unit["amount"].(map[string]any)
	if amount["value"] != "100.00" {
		t.Errorf("wire value = %v, want major-unit string", amount["value"])
	}
	if unit["custom_id"] != "tenant-7" {
		t.Errorf("custom_id = %v", unit["custom_id"])
	}
	appCtx := captured["application_context"].(map[string]any)
	if appCtx["return_url"] != "https://merchant.test/return" {
		t.Errorf("return_url = %v", appCtx["return_url"])
	}
}

func TestPayPalTokenIsCachedAcrossCalls(t *testing.T) {
	t.Parallel()

	var tokenCalls int32
	srv := newPayPalServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "ORDER-1",
			"status": "APPROVED",
		})
	})
	defer srv.Close()

	adapter, err := NewPayPal(Config{PayPalSandboxURL: srv.URL}.withDefaults(), paypalCreds(), domain.EnvironmentTest)
	if err != nil {
		t.Fatalf("NewPayPal: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := adapter.GetOrder(context.Background(), "ORDER-1"); err != nil {
			t.Fatalf("GetOrder %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&tokenCalls); got != 1 {
		t.Fatalf("token fetched %d times, want 1", got)
	}
}

func TestPayPalVerifyWebhookSignature(t *testing.T) {
	t.Parallel()

	var tokenCalls int32
	var captured map[string]any
	srv := newPayPalServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/notifications/verify-webhook-signature" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"verification_status": "SUCCESS"})
	})
	defer srv.Close()

	adapter, err := NewPayPal(Config{PayPalSandboxURL: srv.URL}.withDefaults(), paypalCreds(), domain.EnvironmentTest)
	if err != nil {
		t.Fatalf("NewPayPal: %v", err)
	}

	ok, err := adapter.VerifyWebhookSignature(context.Background(), ports.WebhookVerifyParams{
		TransmissionID:   "tx-1",
		TransmissionTime: "2026-03-01T10:00:00Z",
		TransmissionSig:  "sig",
		AuthAlgo:         "SHA256withRSA",
		CertURL:          "https://api.paypal.test/cert",
		RawEvent:         []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`),
	})
	if err != nil {
		t.Fatalf("VerifyWebhookSignature: %v", err)
	}
	if !ok {
		t.Fatal("expected verification to succeed")
	}
	if captured["webhook_id"] != "wh-1" {
		t.Errorf("webhook_id = %v, want credential fallback", captured["webhook_id"])
	}
	event := captured["webhook_event"].(map[string]any)
	if event["id"] != "WH-1" {
		t.Errorf("webhook_event = %v", captured["webhook_event"])
	}
}

func TestPayPalStatusMapping(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.OrderStatus{
		"CREATED":               domain.StatusCreated,
		"APPROVED":              domain.StatusPending,
		"SAVED":                 domain.StatusPending,
		"PAYER_ACTION_REQUIRED": domain.StatusPending,
		"COMPLETED":             domain.StatusCompleted,
		"VOIDED":                domain.StatusFailed,
		"???":                   domain.StatusUnknown,
	}
	for raw, want := range cases {
		if got := paypalOrderStatus(raw); got != want {
			t.Errorf("paypalOrderStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestPayPalLiveModeSelectsLiveBase(t *testing.T) {
	t.Parallel()

	adapter, err := NewPayPal(Config{}.withDefaults(), paypalCreds(), domain.EnvironmentLive)
	if err != nil {
		t.Fatalf("NewPayPal: %v", err)
	}
	if adapter.baseURL != "https://api-m.paypal.com" {
		t.Errorf("baseURL = %q", adapter.baseURL)
	}

	creds := paypalCreds()
	creds["PAYPAL_MODE"] = "sandbox"
	adapter, err = NewPayPal(Config{}.withDefaults(), creds, domain.EnvironmentLive)
	if err != nil {
		t.Fatalf("NewPayPal: %v", err)
	}
	if adapter.baseURL != "https://api-m.sandbox.paypal.com" {
		t.Errorf("baseURL = %q, want explicit mode to win over environment", adapter.baseURL)
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	factory := NewFactory(Config{})
	_, err := factory(domain.Provider("stripe"), map[string]string{}, domain.EnvironmentTest)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestOptionalCapabilityHelpers(t *testing.T) {
	t.Parallel()

	rzp, err := NewRazorpay(Config{}.withDefaults(), razorpayCreds())
	if err != nil {
		t.Fatalf("NewRazorpay: %v", err)
	}
	if _, err := ports.CaptureOrder(context.Background(), rzp, "order_1"); !errors.Is(err, domain.ErrOperationNotSupported) {
		t.Fatalf("razorpay capture err = %v, want ErrOperationNotSupported", err)
	}

	pp, err := NewPayPal(Config{}.withDefaults(), paypalCreds(), domain.EnvironmentTest)
	if err != nil {
		t.Fatalf("NewPayPal: %v", err)
	}
	var adapter ports.ProviderAdapter = pp
	if _, ok := adapter.(ports.OrderCapturer); !ok {
		t.Fatal("paypal should implement OrderCapturer")
	}
	if _, ok := adapter.(ports.WebhookSignatureVerifier); !ok {
		t.Fatal("paypal should implement WebhookSignatureVerifier")
	}
	if _, ok := adapter.(ports.SubscriptionManager); !ok {
		t.Fatal("paypal should implement SubscriptionManager")
	}
}

func TestSubscriptionHelpersDriveBillingEndpoints(t *testing.T) {
	t.Parallel()

	var tokenCalls int32
	var createPayload map[string]any
	var cancelPayload map[string]string
	srv := newPayPalServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/billing/subscriptions":
			if err := json.NewDecoder(r.Body).Decode(&createPayload); err != nil {
				t.Fatalf("decode create request: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":     "I-BW452GLLEP1G",
				"status": "APPROVAL_PENDING",
			})
		case "/v1/billing/subscriptions/I-BW452GLLEP1G/cancel":
			if err := json.NewDecoder(r.Body).Decode(&cancelPayload); err != nil {
				t.Fatalf("decode cancel request: %v", err)
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	defer srv.Close()

	adapter, err := NewPayPal(Config{PayPalSandboxURL: srv.URL}.withDefaults(), paypalCreds(), domain.EnvironmentTest)
	if err != nil {
		t.Fatalf("NewPayPal: %v", err)
	}

	sub, err := ports.CreateSubscription(context.Background(), adapter, "P-5ML4271244454362WXNWU5NQ", map[string]string{
		"custom_id":  "tenant-7",
		"return_url": "https://merchant.test/return",
	})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if sub["id"] != "I-BW452GLLEP1G" {
		t.Errorf("subscription id = %v", sub["id"])
	}
	if createPayload["plan_id"] != "P-5ML4271244454362WXNWU5NQ" {
		t.Errorf("plan_id = %v", createPayload["plan_id"])
	}
	if createPayload["custom_id"] != "tenant-7" {
		t.Errorf("custom_id = %v", createPayload["custom_id"])
	}
	appCtx, _ := createPayload["application_context"].(map[string]any)
	if appCtx["return_url"] != "https://merchant.test/return" {
		t.Errorf("application_context = %v", createPayload["application_context"])
	}

	if err := ports.CancelSubscription(context.Background(), adapter, "I-BW452GLLEP1G", ""); err != nil {
		t.Fatalf("CancelSubscription: %v", err)
	}
	if cancelPayload["reason"] != "cancelled by merchant" {
		t.Errorf("cancel reason = %q", cancelPayload["reason"])
	}

	rzp, err := NewRazorpay(Config{}.withDefaults(), razorpayCreds())
	if err != nil {
		t.Fatalf("NewRazorpay: %v", err)
	}
	if _, err := ports.CreateSubscription(context.Background(), rzp, "plan_1", nil); !errors.Is(err, domain.ErrOperationNotSupported) {
		t.Fatalf("razorpay create subscription err = %v, want ErrOperationNotSupported", err)
	}
	if err := ports.CancelSubscription(context.Background(), rzp, "sub_1", ""); !errors.Is(err, domain.ErrOperationNotSupported) {
		t.Fatalf("razorpay cancel subscription err = %v, want ErrOperationNotSupported", err)
	}
}
