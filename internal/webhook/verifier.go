// Package webhook implements inbound webhook signature verification. Every
// verification failure collapses into domain.ErrWebhookVerificationFailed at
// the caller boundary; the concrete reason is logged but never returned to the
// sender.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/ports"
)

// maxTransmissionAge bounds how stale a certificate-scheme delivery may be.
const maxTransmissionAge = 5 * time.Minute

// PayPalHeaders carries the signature headers of one PayPal delivery.
type PayPalHeaders struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	AuthAlgo         string
	CertURL          string
}

// Verifier checks inbound webhook signatures for all providers.
type Verifier struct {
	receipts ports.WebhookReceiptRepository
	logger   *slog.Logger
	nowFn    func() time.Time
}

func NewVerifier(receipts ports.WebhookReceiptRepository, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{receipts: receipts, logger: logger, nowFn: time.Now}
}

// VerifyRazorpay checks the shared-secret HMAC scheme: hex HMAC-SHA256 of the
// raw body, compared in constant time against the X-Razorpay-Signature value.
func (v *Verifier) VerifyRazorpay(body []byte, signature, secret string) error {
	if signature == "" {
		return v.fail(domain.ProviderRazorpay, "missing signature header")
	}
	if secret == "" {
		return v.fail(domain.ProviderRazorpay, "no webhook secret configured")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return v.fail(domain.ProviderRazorpay, "signature mismatch")
	}
	return nil
}

// VerifyPayPal checks the certificate scheme: all signature headers present,
// the transmission id never seen before, the transmission fresh, and the
// provider's verification API confirming the signature. The receipt is
// recorded only after the signature checks out, so a forged delivery cannot
// burn a transmission id.
func (v *Verifier) VerifyPayPal(ctx context.Context, headers PayPalHeaders, body []byte, remote ports.WebhookSignatureVerifier) error {
	if headers.TransmissionID == "" || headers.TransmissionTime == "" ||
		headers.TransmissionSig == "" || headers.CertURL == "" || headers.AuthAlgo == "" {
		return v.fail(domain.ProviderPayPal, "missing signature headers")
	}

	seen, err := v.receipts.Seen(ctx, domain.ProviderPayPal, headers.TransmissionID)
	if err != nil {
		return v.fail(domain.ProviderPayPal, fmt.Sprintf("receipt lookup: %v", err))
	}
	if seen {
		return v.fail(domain.ProviderPayPal, "replayed transmission id")
	}

	sentAt, err := time.Parse(time.RFC3339, headers.TransmissionTime)
	if err != nil {
		return v.fail(domain.ProviderPayPal, "unparseable transmission time")
	}
	if age := v.nowFn().Sub(sentAt); age > maxTransmissionAge {
		return v.fail(domain.ProviderPayPal, fmt.Sprintf("stale transmission, age %s", age.Round(time.Second)))
	}

	ok, err := remote.VerifyWebhookSignature(ctx, ports.WebhookVerifyParams{
		TransmissionID:   headers.TransmissionID,
		TransmissionTime: headers.TransmissionTime,
		TransmissionSig:  headers.TransmissionSig,
		AuthAlgo:         headers.AuthAlgo,
		CertURL:          headers.CertURL,
		RawEvent:         body,
	})
	if err != nil {
		return v.fail(domain.ProviderPayPal, fmt.Sprintf("verification api: %v", err))
	}
	if !ok {
		return v.fail(domain.ProviderPayPal, "verification api rejected signature")
	}

	receipt := domain.WebhookReceipt{
		ReceiptID:      uuid.New(),
		Provider:       domain.ProviderPayPal,
		TransmissionID: headers.TransmissionID,
		ReceivedAt:     v.nowFn().UTC(),
	}
	if err := v.receipts.Record(ctx, receipt); err != nil {
		// A concurrent delivery won the unique constraint race; treat the
		// loser as a replay.
		return v.fail(domain.ProviderPayPal, fmt.Sprintf("record receipt: %v", err))
	}
	return nil
}

func (v *Verifier) fail(provider domain.Provider, reason string) error {
	v.logger.Warn("webhook verification failed",
		"operation", "webhook_verify",
		"provider", string(provider),
		"reason", reason,
	)
	return domain.ErrWebhookVerificationFailed
}
