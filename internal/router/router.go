// Package router resolves which provider credentials a request should use and
// constructs the matching provider adapter. Resolution honors the tenant's
// environment preference with a deterministic cross-environment fallback, and
// can auto-provision credentials from process configuration when a provider's
// full required field set is present.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/ports"
)

// CredentialSchema is the fixed per-provider field contract used for
// validation and auto-provisioning.
type CredentialSchema struct {
	Required []string
	Optional []string
}

// DefaultSchemas mirrors the provider onboarding contract.
func DefaultSchemas() map[domain.Provider]CredentialSchema {
	return map[domain.Provider]CredentialSchema{
		domain.ProviderRazorpay: {
			Required: []string{"RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET"},
			Optional: []string{"RAZORPAY_WEBHOOK_SECRET"},
		},
		domain.ProviderPayPal: {
			Required: []string{"PAYPAL_CLIENT_ID", "PAYPAL_CLIENT_SECRET"},
			Optional: []string{"PAYPAL_MODE", "PAYPAL_WEBHOOK_ID"},
		},
	}
}

// AdapterFactory builds a configured provider adapter from decrypted
// credentials. The returned adapter owns the credential map for one call chain.
type AdapterFactory func(provider domain.Provider, credentials map[string]string, env domain.Environment) (ports.ProviderAdapter, error)

// Vault is the subset of the credential vault the router needs.
type Vault interface {
	Encrypt(credentials map[string]string) ([]byte, error)
	Decrypt(blob []byte) (map[string]string, error)
}

// Router owns credential resolution for payment requests.
type Router struct {
	credentials ports.CredentialRepository
	preferences ports.TenantPreferenceRepository
	cache       ports.CredentialCache
	vault       Vault
	factory     AdapterFactory
	schemas     map[domain.Provider]CredentialSchema
	envLookup   func(string) (string, bool)
	cacheTTL    time.Duration
	logger      *slog.Logger
	nowFn       func() time.Time
}

// Dependencies wires the router. EnvLookup is usually os.LookupEnv; tests
// inject a map-backed lookup.
type Dependencies struct {
	Credentials ports.CredentialRepository
	Preferences ports.TenantPreferenceRepository
	Cache       ports.CredentialCache
	Vault       Vault
	Factory     AdapterFactory
	Schemas     map[domain.Provider]CredentialSchema
	EnvLookup   func(string) (string, bool)
	CacheTTL    time.Duration
	Logger      *slog.Logger
}

func New(deps Dependencies) *Router {
	if deps.Schemas == nil {
		deps.Schemas = DefaultSchemas()
	}
	if deps.CacheTTL == 0 {
		deps.CacheTTL = 10 * time.Minute
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Router{
		credentials: deps.Credentials,
		preferences: deps.Preferences,
		cache:       deps.Cache,
		vault:       deps.Vault,
		factory:     deps.Factory,
		schemas:     deps.Schemas,
		envLookup:   deps.EnvLookup,
		cacheTTL:    deps.CacheTTL,
		logger:      deps.Logger,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// ResolveEnvironment returns the tenant's preferred environment for a
// provider, defaulting to test when no preference is stored.
func (r *Router) ResolveEnvironment(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) (domain.Environment, error) {
	if r.preferences == nil {
		return domain.EnvironmentTest, nil
	}
	env, ok, err := r.preferences.PreferredEnvironment(ctx, tenantID, provider)
	if err != nil {
		return "", fmt.Errorf("resolve environment preference: %w", err)
	}
	if !ok {
		return domain.EnvironmentTest, nil
	}
	return env, nil
}

// GetAdapter resolves credentials for (tenant, provider) and returns a
// configured adapter.
//
// requested pins the environment (derived from the API key's environment
// prefix) and disables fallback: an explicitly requested environment must
// never silently execute against the other one. Only the preference path
// carries the [target, other] fallback chain.
func (r *Router) GetAdapter(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, requested *domain.Environment) (ports.ProviderAdapter, domain.Environment, error) {
	var chain []domain.Environment
	if requested != nil {
		chain = []domain.Environment{*requested}
	} else {
		target, err := r.ResolveEnvironment(ctx, tenantID, provider)
		if err != nil {
			return nil, "", err
		}
		chain = []domain.Environment{target, target.Other()}
	}

	for _, env := range chain {
		blob, found, err := r.lookupBlob(ctx, tenantID, provider, env)
		if err != nil {
			return nil, "", err
		}
		if !found {
			continue
		}
		adapter, err := r.buildAdapter(provider, blob, env)
		if err != nil {
			return nil, "", err
		}
		if env != chain[0] {
			r.logger.Info("credential fallback used",
				"operation", "get_adapter",
				"provider", string(provider),
				"requested_environment", string(chain[0]),
				"resolved_environment", string(env),
			)
		}
		return adapter, env, nil
	}

	// Nothing stored: try to provision from process configuration.
	adapter, env, err := r.autoProvision(ctx, tenantID, provider, chain[0])
	if err == nil {
		return adapter, env, nil
	}
	if !errors.Is(err, domain.ErrProviderNotConfigured) {
		return nil, "", err
	}

	return nil, "", &domain.ProviderNotConfiguredError{
		Provider:    provider,
		Environment: chain[0],
		Remediation: fmt.Sprintf("store %s credentials for the %s environment or set %v in the gateway environment", provider, chain[0], r.requiredFields(provider)),
	}
}

// lookupBlob fetches the encrypted blob, consulting the cache first. Only
// ciphertext is cached; plaintext credentials never leave the request.
func (r *Router) lookupBlob(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, env domain.Environment) ([]byte, bool, error) {
	if r.cache != nil {
		if blob, ok, err := r.cache.Get(ctx, tenantID.String(), provider, env); err == nil && ok {
			return blob, true, nil
		}
	}

	cred, err := r.credentials.GetActive(ctx, tenantID, provider, env)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("lookup credential: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, tenantID.String(), provider, env, cred.EncryptedBlob, r.cacheTTL); err != nil {
			r.logger.Warn("credential cache write failed", "error", err)
		}
	}
	return cred.EncryptedBlob, true, nil
}

func (r *Router) buildAdapter(provider domain.Provider, blob []byte, env domain.Environment) (ports.ProviderAdapter, error) {
	credentials, err := r.vault.Decrypt(blob)
	if err != nil {
		// Permanent: tampering, corruption, or a pruned key. Propagate typed so
		// operators get alerted instead of the request being retried.
		return nil, err
	}
	return r.factory(provider, credentials, env)
}

// autoProvision persists a new active credential from process configuration
// when every required field for the provider is set.
func (r *Router) autoProvision(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, env domain.Environment) (ports.ProviderAdapter, domain.Environment, error) {
	schema, ok := r.schemas[provider]
	if !ok || r.envLookup == nil {
		return nil, "", &domain.ProviderNotConfiguredError{Provider: provider, Environment: env}
	}

	credentials := make(map[string]string, len(schema.Required)+len(schema.Optional))
	for _, field := range schema.Required {
		value, ok := r.envLookup(field)
		if !ok || value == "" {
			return nil, "", &domain.ProviderNotConfiguredError{Provider: provider, Environment: env}
		}
		credentials[field] = value
	}
	for _, field := range schema.Optional {
		if value, ok := r.envLookup(field); ok && value != "" {
			credentials[field] = value
		}
	}

	blob, err := r.vault.Encrypt(credentials)
	if err != nil {
		return nil, "", fmt.Errorf("encrypt auto-provisioned credentials: %w", err)
	}

	now := r.nowFn()
	cred := domain.ServiceCredential{
		CredentialID:  uuid.New(),
		TenantID:      tenantID,
		Provider:      provider,
		Environment:   env,
		EncryptedBlob: blob,
		Features:      map[string]bool{"auto_provisioned": true},
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := r.credentials.Create(ctx, cred); err != nil {
		return nil, "", fmt.Errorf("persist auto-provisioned credentials: %w", err)
	}
	r.logger.Info("credentials auto-provisioned from process environment",
		"operation", "auto_provision",
		"outcome", "success",
		"provider", string(provider),
		"environment", string(env),
	)

	adapter, err := r.factory(provider, credentials, env)
	if err != nil {
		return nil, "", err
	}
	return adapter, env, nil
}

// StoreCredentials validates a credential map against the provider schema,
// encrypts it, and replaces any previously active row for the triple.
func (r *Router) StoreCredentials(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, env domain.Environment, credentials map[string]string, features map[string]bool) (domain.ServiceCredential, error) {
	if missing := r.missingFields(provider, credentials); len(missing) > 0 {
		return domain.ServiceCredential{}, fmt.Errorf("%w: missing required fields %v for %s", domain.ErrConfiguration, missing, provider)
	}

	blob, err := r.vault.Encrypt(credentials)
	if err != nil {
		return domain.ServiceCredential{}, err
	}

	now := r.nowFn()
	if err := r.credentials.Deactivate(ctx, tenantID, provider, env, now); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.ServiceCredential{}, fmt.Errorf("deactivate previous credential: %w", err)
	}

	if features == nil {
		features = map[string]bool{}
	}
	cred, err := r.credentials.Create(ctx, domain.ServiceCredential{
		CredentialID:  uuid.New(),
		TenantID:      tenantID,
		Provider:      provider,
		Environment:   env,
		EncryptedBlob: blob,
		Features:      features,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return domain.ServiceCredential{}, fmt.Errorf("store credential: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Invalidate(ctx, tenantID.String(), provider, env)
	}
	return cred, nil
}

// Disconnect soft-deletes the active credential for a triple and drops its
// cache entry.
func (r *Router) Disconnect(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, env domain.Environment) error {
	if _, err := r.credentials.GetActive(ctx, tenantID, provider, env); err != nil {
		return err
	}
	if err := r.credentials.Deactivate(ctx, tenantID, provider, env, r.nowFn()); err != nil {
		return fmt.Errorf("deactivate credential: %w", err)
	}
	if r.cache != nil {
		_ = r.cache.Invalidate(ctx, tenantID.String(), provider, env)
	}
	return nil
}

// WebhookSecret decrypts the tenant's credentials for webhook verification and
// returns the named secret field. The preference fallback chain applies: a
// webhook has no API-key environment to pin.
func (r *Router) WebhookSecret(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, field string) (string, error) {
	for _, env := range []domain.Environment{domain.EnvironmentTest, domain.EnvironmentLive} {
		blob, found, err := r.lookupBlob(ctx, tenantID, provider, env)
		if err != nil {
			return "", err
		}
		if !found {
			continue
		}
		credentials, err := r.vault.Decrypt(blob)
		if err != nil {
			return "", err
		}
		if secret := credentials[field]; secret != "" {
			return secret, nil
		}
	}
	return "", domain.ErrNotFound
}

// Credentials returns the decrypted credential map for a tenant, resolving
// through the preference fallback chain. Used by the webhook verifier to build
// a provider adapter outside the payment path.
func (r *Router) Credentials(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) (map[string]string, domain.Environment, error) {
	target, err := r.ResolveEnvironment(ctx, tenantID, provider)
	if err != nil {
		return nil, "", err
	}
	for _, env := range []domain.Environment{target, target.Other()} {
		blob, found, err := r.lookupBlob(ctx, tenantID, provider, env)
		if err != nil {
			return nil, "", err
		}
		if !found {
			continue
		}
		credentials, err := r.vault.Decrypt(blob)
		if err != nil {
			return nil, "", err
		}
		return credentials, env, nil
	}
	return nil, "", domain.ErrNotFound
}

func (r *Router) requiredFields(provider domain.Provider) []string {
	return r.schemas[provider].Required
}

func (r *Router) missingFields(provider domain.Provider, credentials map[string]string) []string {
	var missing []string
	for _, field := range r.schemas[provider].Required {
		if credentials[field] == "" {
			missing = append(missing, field)
		}
	}
	return missing
}
