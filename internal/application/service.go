// Package application orchestrates the gateway use cases: unified payments,
// inbound webhooks, API key lifecycle, and operator encryption controls. It
// depends only on ports and the core security components.
package application

import (
	"log/slog"
	"time"

	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/idempotency"
	"github.com/onerouter/gateway/internal/ports"
	"github.com/onerouter/gateway/internal/router"
	"github.com/onerouter/gateway/internal/vault"
	"github.com/onerouter/gateway/internal/webhook"
)

type Service struct {
	cfg             Config
	vault           *vault.Vault
	router          *router.Router
	idempotency     *idempotency.Controller
	verifier        *webhook.Verifier
	factory         router.AdapterFactory
	credentials     ports.CredentialRepository
	apiKeys         ports.APIKeyRepository
	apiKeyCache     ports.APIKeyCache
	webhookEvents   ports.WebhookEventRepository
	transactionLogs ports.TransactionLogRepository
	forwarder       ports.WebhookForwarder
	logger          *slog.Logger
	nowFn           func() time.Time
}

type Dependencies struct {
	Config          Config
	Vault           *vault.Vault
	Router          *router.Router
	Idempotency     *idempotency.Controller
	Verifier        *webhook.Verifier
	Factory         router.AdapterFactory
	Credentials     ports.CredentialRepository
	APIKeys         ports.APIKeyRepository
	APIKeyCache     ports.APIKeyCache
	WebhookEvents   ports.WebhookEventRepository
	TransactionLogs ports.TransactionLogRepository
	Forwarder       ports.WebhookForwarder
	Logger          *slog.Logger
}

func NewService(deps Dependencies) *Service {
	if deps.Config.DefaultProvider == "" {
		deps.Config.DefaultProvider = domain.ProviderRazorpay
	}
	if deps.Config.APIKeyCacheTTL == 0 {
		deps.Config.APIKeyCacheTTL = 5 * time.Minute
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		cfg:             deps.Config,
		vault:           deps.Vault,
		router:          deps.Router,
		idempotency:     deps.Idempotency,
		verifier:        deps.Verifier,
		factory:         deps.Factory,
		credentials:     deps.Credentials,
		apiKeys:         deps.APIKeys,
		apiKeyCache:     deps.APIKeyCache,
		webhookEvents:   deps.WebhookEvents,
		transactionLogs: deps.TransactionLogs,
		forwarder:       deps.Forwarder,
		logger:          deps.Logger,
		nowFn:           func() time.Time { return time.Now().UTC() },
	}
}
