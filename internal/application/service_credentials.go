package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onerouter/gateway/internal/domain"
)

// ConnectCredentials stores provider credentials for a tenant and verifies
// them against the provider before reporting success. Verification failure is
// surfaced but the credential stays stored; the tenant can retry traffic once
// the provider account is fixed.
func (s *Service) ConnectCredentials(ctx context.Context, tenantID uuid.UUID, req ConnectCredentialsRequest) (CredentialSummary, error) {
	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		return CredentialSummary{}, err
	}
	env, err := domain.ParseEnvironment(req.Environment)
	if err != nil {
		return CredentialSummary{}, err
	}

	cred, err := s.router.StoreCredentials(ctx, tenantID, provider, env, req.Credentials, req.Features)
	if err != nil {
		return CredentialSummary{}, err
	}

	if adapter, ferr := s.factory(provider, req.Credentials, env); ferr == nil {
		if verr := adapter.ValidateCredentials(ctx); verr != nil {
			s.logger.Warn("stored credentials failed provider validation",
				"operation", "connect_credentials",
				"outcome", "degraded",
				"tenant_id", tenantID.String(),
				"provider", string(provider),
				"environment", string(env),
			)
			return toCredentialSummary(cred), fmt.Errorf("%w: provider rejected the stored credentials", domain.ErrConfiguration)
		}
	}

	s.logger.Info("credentials connected",
		"operation", "connect_credentials",
		"outcome", "success",
		"tenant_id", tenantID.String(),
		"provider", string(provider),
		"environment", string(env),
	)
	return toCredentialSummary(cred), nil
}

// ListCredentials returns metadata for the tenant's active credentials across
// both environments.
func (s *Service) ListCredentials(ctx context.Context, tenantID uuid.UUID) ([]CredentialSummary, error) {
	var summaries []CredentialSummary
	for _, env := range []domain.Environment{domain.EnvironmentTest, domain.EnvironmentLive} {
		creds, err := s.credentials.ListActive(ctx, tenantID, env)
		if err != nil {
			return nil, err
		}
		for _, cred := range creds {
			summaries = append(summaries, toCredentialSummary(cred))
		}
	}
	return summaries, nil
}

// DisconnectCredentials soft-deletes the active credential for the triple.
func (s *Service) DisconnectCredentials(ctx context.Context, tenantID uuid.UUID, providerRaw, envRaw string) error {
	provider, err := domain.ParseProvider(providerRaw)
	if err != nil {
		return err
	}
	env, err := domain.ParseEnvironment(envRaw)
	if err != nil {
		return err
	}
	if err := s.router.Disconnect(ctx, tenantID, provider, env); err != nil {
		return err
	}
	s.logger.Info("credentials disconnected",
		"operation", "disconnect_credentials",
		"outcome", "success",
		"tenant_id", tenantID.String(),
		"provider", providerRaw,
		"environment", envRaw,
	)
	return nil
}

func toCredentialSummary(cred domain.ServiceCredential) CredentialSummary {
	summary := CredentialSummary{
		CredentialID: cred.CredentialID,
		Provider:     string(cred.Provider),
		Environment:  string(cred.Environment),
		Features:     cred.Features,
		CreatedAt:    cred.CreatedAt.Format(time.RFC3339),
	}
	if cred.LastVerified != nil {
		summary.LastVerified = cred.LastVerified.Format(time.RFC3339)
	}
	return summary
}
