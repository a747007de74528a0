package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/ports"
	"github.com/onerouter/gateway/internal/webhook"
)

// forwardURLField is the credential field naming the tenant's downstream
// webhook endpoint. Absent field means the event is stored but not forwarded.
const forwardURLField = "WEBHOOK_FORWARD_URL"

// HandleWebhook processes one inbound provider delivery: attribute it to a
// tenant, verify the signature with that tenant's secrets, store the event,
// and hand it to the forwarding queue. Attribution happens before any
// credential work because without a tenant there is nothing to verify against.
func (s *Service) HandleWebhook(ctx context.Context, providerRaw string, body []byte, headers WebhookHeaders) (WebhookResult, error) {
	provider, err := domain.ParseProvider(providerRaw)
	if err != nil {
		return WebhookResult{}, err
	}

	tenantID, eventType, err := extractWebhookAttribution(provider, body)
	if err != nil {
		return WebhookResult{}, err
	}

	switch provider {
	case domain.ProviderRazorpay:
		secret, err := s.router.WebhookSecret(ctx, tenantID, provider, "RAZORPAY_WEBHOOK_SECRET")
		if err != nil {
			s.logger.Warn("webhook secret unavailable",
				"operation", "handle_webhook",
				"outcome", "failure",
				"provider", providerRaw,
				"tenant_id", tenantID.String(),
			)
			return WebhookResult{}, domain.ErrWebhookVerificationFailed
		}
		if err := s.verifier.VerifyRazorpay(body, headers.RazorpaySignature, secret); err != nil {
			return WebhookResult{}, err
		}

	case domain.ProviderPayPal:
		credentials, env, err := s.router.Credentials(ctx, tenantID, provider)
		if err != nil {
			return WebhookResult{}, domain.ErrWebhookVerificationFailed
		}
		adapter, err := s.factory(provider, credentials, env)
		if err != nil {
			return WebhookResult{}, domain.ErrWebhookVerificationFailed
		}
		remote, ok := adapter.(ports.WebhookSignatureVerifier)
		if !ok {
			return WebhookResult{}, domain.ErrWebhookVerificationFailed
		}
		err = s.verifier.VerifyPayPal(ctx, webhook.PayPalHeaders{
			TransmissionID:   headers.PayPalTransmissionID,
			TransmissionTime: headers.PayPalTransmissionTime,
			TransmissionSig:  headers.PayPalTransmissionSig,
			AuthAlgo:         headers.PayPalAuthAlgo,
			CertURL:          headers.PayPalCertURL,
		}, body, remote)
		if err != nil {
			return WebhookResult{}, err
		}
	}

	event := domain.WebhookEvent{
		EventID:    uuid.New(),
		TenantID:   tenantID,
		Provider:   provider,
		EventType:  eventType,
		Payload:    body,
		Signature:  webhookSignature(provider, headers),
		ReceivedAt: s.nowFn(),
	}
	if event, err = s.webhookEvents.Insert(ctx, event); err != nil {
		return WebhookResult{}, fmt.Errorf("store webhook event: %w", err)
	}

	forwarded := s.forwardEvent(ctx, event)

	s.logger.Info("webhook accepted",
		"operation", "handle_webhook",
		"outcome", "success",
		"provider", providerRaw,
		"tenant_id", tenantID.String(),
		"event_type", eventType,
		"forwarded", forwarded,
	)
	return WebhookResult{
		EventID:   event.EventID,
		TenantID:  tenantID,
		Provider:  string(provider),
		EventType: eventType,
		Forwarded: forwarded,
	}, nil
}

func (s *Service) forwardEvent(ctx context.Context, event domain.WebhookEvent) bool {
	if s.forwarder == nil {
		return false
	}
	endpoint, err := s.router.WebhookSecret(ctx, event.TenantID, event.Provider, forwardURLField)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("forward endpoint lookup failed",
				"operation", "handle_webhook",
				"outcome", "degraded",
				"tenant_id", event.TenantID.String(),
				"error", err.Error(),
			)
		}
		return false
	}
	return s.forwarder.Enqueue(ctx, ports.ForwardJob{
		EventID:     event.EventID,
		TenantID:    event.TenantID,
		Provider:    event.Provider,
		EndpointURL: endpoint,
		Payload:     event.Payload,
		Signature:   event.Signature,
	})
}

// extractWebhookAttribution pulls the tenant id planted at order creation out
// of the raw event: Razorpay carries it in entity notes, PayPal in the
// purchase unit's custom_id mirrored onto the webhook resource.
func extractWebhookAttribution(provider domain.Provider, body []byte) (uuid.UUID, string, error) {
	switch provider {
	case domain.ProviderRazorpay:
		var event struct {
			Event   string `json:"event"`
			Payload struct {
				Payment struct {
					Entity struct {
						Notes map[string]string `json:"notes"`
					} `json:"entity"`
				} `json:"payment"`
				Order struct {
					Entity struct {
						Notes map[string]string `json:"notes"`
					} `json:"entity"`
				} `json:"order"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(body, &event); err != nil {
			return uuid.Nil, "", fmt.Errorf("%w: malformed webhook payload", domain.ErrInvalidInput)
		}
		raw := event.Payload.Payment.Entity.Notes["onerouter_tenant_id"]
		if raw == "" {
			raw = event.Payload.Order.Entity.Notes["onerouter_tenant_id"]
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, "", fmt.Errorf("%w: webhook carries no tenant attribution", domain.ErrInvalidInput)
		}
		return tenantID, event.Event, nil

	case domain.ProviderPayPal:
		var event struct {
			EventType string `json:"event_type"`
			Resource  struct {
				CustomID string `json:"custom_id"`
			} `json:"resource"`
		}
		if err := json.Unmarshal(body, &event); err != nil {
			return uuid.Nil, "", fmt.Errorf("%w: malformed webhook payload", domain.ErrInvalidInput)
		}
		tenantID, err := uuid.Parse(event.Resource.CustomID)
		if err != nil {
			return uuid.Nil, "", fmt.Errorf("%w: webhook carries no tenant attribution", domain.ErrInvalidInput)
		}
		return tenantID, event.EventType, nil
	}
	return uuid.Nil, "", fmt.Errorf("%w: unsupported provider", domain.ErrInvalidInput)
}

func webhookSignature(provider domain.Provider, headers WebhookHeaders) string {
	if provider == domain.ProviderRazorpay {
		return headers.RazorpaySignature
	}
	return headers.PayPalTransmissionSig
}
