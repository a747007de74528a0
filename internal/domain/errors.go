package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput covers malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized covers missing or invalid API keys and operator tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConfiguration signals required configuration is missing or invalid.
	// Not retryable; the fix is operator action, not a retry.
	ErrConfiguration = errors.New("configuration error")
	// ErrProviderNotConfigured is the errors.Is target for ProviderNotConfiguredError.
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrProviderUnavailable marks transient transport failures (timeout, 5xx).
	// Safe for the caller to retry with backoff.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderRejected marks a definitive provider 4xx. The request must change
	// before a retry can succeed.
	ErrProviderRejected = errors.New("provider rejected request")
	// ErrOperationNotSupported is returned when an adapter lacks an optional capability.
	ErrOperationNotSupported = errors.New("operation not supported by provider")
	// ErrDuplicateInFlight means another attempt holds the idempotency lock right now.
	ErrDuplicateInFlight = errors.New("duplicate request in flight")
	// ErrIdempotencyKeyReused means the key was replayed with a different request body.
	ErrIdempotencyKeyReused = errors.New("idempotency key reused with different request")
	// ErrUnknownKeyVersion means a ciphertext references a key version the vault
	// no longer holds. Permanent; indicates over-aggressive pruning.
	ErrUnknownKeyVersion = errors.New("unknown encryption key version")
	// ErrDecryptionFailed means authentication-tag mismatch or a malformed blob.
	// Permanent; indicates tampering or corruption and must never be retried.
	ErrDecryptionFailed = errors.New("credential decryption failed")
	// ErrWebhookVerificationFailed hides the root cause of a rejected webhook.
	// Every verification failure resolves to this one sentinel so responses
	// cannot be used as an oracle.
	ErrWebhookVerificationFailed = errors.New("invalid webhook request")
)

// ProviderNotConfiguredError carries remediation data so the route layer can
// return an actionable message instead of a generic 500.
type ProviderNotConfiguredError struct {
	Provider    Provider
	Environment Environment
	Remediation string
}

func (e *ProviderNotConfiguredError) Error() string {
	return fmt.Sprintf("provider %s not configured for environment %s", e.Provider, e.Environment)
}

func (e *ProviderNotConfiguredError) Unwrap() error { return ErrProviderNotConfigured }
