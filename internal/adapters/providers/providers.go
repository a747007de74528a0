// Package providers holds the concrete payment provider adapters. Each
// adapter is ephemeral: it is built per request with decrypted credentials and
// discarded with the call chain.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/ports"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
)

// Config carries transport settings shared by all adapters. Base URLs are
// overridable so tests can point at httptest servers.
type Config struct {
	HTTPClient        *http.Client
	RazorpayBaseURL   string
	PayPalSandboxURL  string
	PayPalLiveURL     string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

func (c Config) withDefaults() Config {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.RazorpayBaseURL == "" {
		c.RazorpayBaseURL = "https://api.razorpay.com/v1"
	}
	if c.PayPalSandboxURL == "" {
		c.PayPalSandboxURL = "https://api-m.sandbox.paypal.com"
	}
	if c.PayPalLiveURL == "" {
		c.PayPalLiveURL = "https://api-m.paypal.com"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	return c
}

// NewFactory returns the adapter factory the router consumes.
func NewFactory(cfg Config) func(domain.Provider, map[string]string, domain.Environment) (ports.ProviderAdapter, error) {
	cfg = cfg.withDefaults()
	return func(provider domain.Provider, credentials map[string]string, env domain.Environment) (ports.ProviderAdapter, error) {
		switch provider {
		case domain.ProviderRazorpay:
			return NewRazorpay(cfg, credentials)
		case domain.ProviderPayPal:
			return NewPayPal(cfg, credentials, env)
		default:
			return nil, fmt.Errorf("%w: no adapter for provider %q", domain.ErrInvalidInput, provider)
		}
	}
}

// doJSON runs one provider HTTP call with a bounded timeout and decodes the
// JSON response. Transport failures and 5xx map to ErrProviderUnavailable,
// definitive 4xx to ErrProviderRejected; the caller never retries either.
func doJSON(ctx context.Context, client *http.Client, timeout time.Duration, req *http.Request, out any) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req = req.WithContext(callCtx)

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
			return 0, fmt.Errorf("%w: request timed out", domain.ErrProviderUnavailable)
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read response: %v", domain.ErrProviderUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return resp.StatusCode, fmt.Errorf("%w: provider returned %d", domain.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return resp.StatusCode, fmt.Errorf("%w: %s", domain.ErrProviderRejected, rejectionDetail(resp.StatusCode, body))
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: malformed provider response", domain.ErrProviderUnavailable)
		}
	}
	return resp.StatusCode, nil
}

func rejectionDetail(status int, body []byte) string {
	var payload struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
		Message string `json:"message"`
		Details []struct {
			Description string `json:"description"`
		} `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error.Description != "":
			return fmt.Sprintf("status %d: %s", status, payload.Error.Description)
		case len(payload.Details) > 0 && payload.Details[0].Description != "":
			return fmt.Sprintf("status %d: %s", status, payload.Details[0].Description)
		case payload.Message != "":
			return fmt.Sprintf("status %d: %s", status, payload.Message)
		}
	}
	return fmt.Sprintf("status %d", status)
}

func jsonRequest(method, url string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func unifiedTransactionID(providerOrderID string) string {
	return domain.TransactionIDPrefix + providerOrderID
}
