// Package idempotency guarantees at-most-once execution of side-effecting
// requests. A short-TTL set-if-absent lock provides mutual exclusion for
// in-flight attempts; a durable record provides verbatim replay afterwards.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/ports"
)

// Response is the cached outcome of the first successful execution.
type Response struct {
	StatusCode int
	Body       []byte
}

// Controller wraps side-effecting operations with lock + replay semantics.
type Controller struct {
	locks   ports.IdempotencyLockStore
	records ports.IdempotencyRepository
	lockTTL time.Duration
	logger  *slog.Logger
	nowFn   func() time.Time
}

// Config tunes the controller. LockTTL must stay well below any sane client
// retry interval so a crashed attempt self-heals instead of blocking the key.
type Config struct {
	LockTTL time.Duration
}

func NewController(cfg Config, locks ports.IdempotencyLockStore, records ports.IdempotencyRepository, logger *slog.Logger) *Controller {
	if cfg.LockTTL == 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		locks:   locks,
		records: records,
		lockTTL: cfg.LockTTL,
		logger:  logger,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// HashRequest produces the canonical request hash stored with the durable
// record. encoding/json sorts map keys, so equal payloads hash equally.
func HashRequest(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hash request: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Execute runs fn at most once for (apiKeyID, key).
//
// Order of operations is deliberate: the durable record is checked before the
// lock so a retried-but-already-done request replays without contending, and
// the record is written only after fn succeeds so a failed attempt leaves no
// replay state. The returned bool reports whether the response was replayed.
func (c *Controller) Execute(ctx context.Context, apiKeyID uuid.UUID, key string, payload any, fn func(ctx context.Context) (Response, error)) (Response, bool, error) {
	requestHash, err := HashRequest(payload)
	if err != nil {
		return Response{}, false, err
	}

	if cached, ok, err := c.lookupCompleted(ctx, apiKeyID, key, requestHash); err != nil {
		return Response{}, false, err
	} else if ok {
		return cached, true, nil
	}

	lockKey := lockKeyFor(apiKeyID, key)
	acquired, err := c.locks.Acquire(ctx, lockKey, c.lockTTL)
	if err != nil {
		return Response{}, false, fmt.Errorf("acquire idempotency lock: %w", err)
	}
	if !acquired {
		return Response{}, false, domain.ErrDuplicateInFlight
	}
	// Release must run on every exit branch; a leaked lock blocks the key for
	// the whole TTL window.
	defer func() {
		if err := c.locks.Release(ctx, lockKey); err != nil {
			c.logger.Error("idempotency lock release failed",
				"operation", "idempotency_release",
				"outcome", "failure",
				"error", err,
			)
		}
	}()

	// A racing attempt may have completed between the lookup and the lock.
	if cached, ok, err := c.lookupCompleted(ctx, apiKeyID, key, requestHash); err != nil {
		return Response{}, false, err
	} else if ok {
		return cached, true, nil
	}

	res, err := fn(ctx)
	if err != nil {
		return Response{}, false, err
	}

	rec := ports.IdempotencyRecord{
		APIKeyID:       apiKeyID,
		IdempotencyKey: key,
		RequestHash:    requestHash,
		StatusCode:     res.StatusCode,
		ResponseBody:   res.Body,
		CreatedAt:      c.nowFn(),
	}
	if err := c.records.Put(ctx, rec); err != nil {
		// The side effect happened; surfacing the storage failure would make
		// the caller retry and double-charge. Log loudly and return success.
		c.logger.Error("idempotency record persist failed",
			"operation", "idempotency_complete",
			"outcome", "failure",
			"api_key_id", apiKeyID.String(),
			"error", err,
		)
	}
	return res, false, nil
}

func (c *Controller) lookupCompleted(ctx context.Context, apiKeyID uuid.UUID, key, requestHash string) (Response, bool, error) {
	rec, ok, err := c.records.Get(ctx, apiKeyID, key)
	if err != nil {
		return Response{}, false, fmt.Errorf("lookup idempotency record: %w", err)
	}
	if !ok {
		return Response{}, false, nil
	}
	if rec.RequestHash != requestHash {
		return Response{}, false, domain.ErrIdempotencyKeyReused
	}
	return Response{StatusCode: rec.StatusCode, Body: rec.ResponseBody}, true, nil
}

func lockKeyFor(apiKeyID uuid.UUID, key string) string {
	return "idemlock:" + apiKeyID.String() + ":" + key
}
