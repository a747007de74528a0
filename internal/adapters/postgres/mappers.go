package postgres

import (
	"encoding/json"
	"errors"

	"github.com/onerouter/gateway/internal/domain"
	"gorm.io/gorm"
)

func toDomainCredential(row serviceCredentialModel) domain.ServiceCredential {
	features := map[string]bool{}
	if row.Features != "" {
		_ = json.Unmarshal([]byte(row.Features), &features)
	}
	return domain.ServiceCredential{
		CredentialID:  row.CredentialID,
		TenantID:      row.TenantID,
		Provider:      domain.Provider(row.Provider),
		Environment:   domain.Environment(row.Environment),
		EncryptedBlob: row.EncryptedBlob,
		Features:      features,
		IsActive:      row.IsActive,
		LastVerified:  row.LastVerified,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func toCredentialModel(cred domain.ServiceCredential) serviceCredentialModel {
	features := "{}"
	if len(cred.Features) > 0 {
		if raw, err := json.Marshal(cred.Features); err == nil {
			features = string(raw)
		}
	}
	return serviceCredentialModel{
		CredentialID:  cred.CredentialID,
		TenantID:      cred.TenantID,
		Provider:      string(cred.Provider),
		Environment:   string(cred.Environment),
		EncryptedBlob: cred.EncryptedBlob,
		Features:      features,
		IsActive:      cred.IsActive,
		LastVerified:  cred.LastVerified,
		CreatedAt:     cred.CreatedAt,
		UpdatedAt:     cred.UpdatedAt,
	}
}

func toDomainAPIKey(row apiKeyModel) domain.APIKey {
	return domain.APIKey{
		KeyID:           row.KeyID,
		TenantID:        row.TenantID,
		KeyHash:         row.KeyHash,
		KeyName:         row.KeyName,
		KeyPrefix:       row.KeyPrefix,
		Environment:     domain.Environment(row.Environment),
		IsActive:        row.IsActive,
		RateLimitPerMin: row.RateLimitPerMin,
		RateLimitPerDay: row.RateLimitPerDay,
		LastUsedAt:      row.LastUsedAt,
		ExpiresAt:       row.ExpiresAt,
		CreatedAt:       row.CreatedAt,
	}
}

func toDomainTransactionLog(row transactionLogModel) domain.TransactionLog {
	return domain.TransactionLog{
		LogID:         row.LogID,
		TenantID:      row.TenantID,
		APIKeyID:      row.APIKeyID,
		TransactionID: row.TransactionID,
		Provider:      domain.Provider(row.Provider),
		Environment:   domain.Environment(row.Environment),
		Method:        row.Method,
		Endpoint:      row.Endpoint,
		StatusCode:    row.StatusCode,
		CreatedAt:     row.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
