package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/onerouter/gateway/internal/domain"
)

// ForwardJob is one verified webhook to deliver to the tenant's endpoint.
type ForwardJob struct {
	EventID     uuid.UUID
	TenantID    uuid.UUID
	Provider    domain.Provider
	EndpointURL string
	Payload     []byte
	Signature   string
}

// WebhookForwarder hands verified events off the request path. Enqueue must
// never block the caller: a full queue drops the job and reports false so the
// request can still complete.
type WebhookForwarder interface {
	Enqueue(ctx context.Context, job ForwardJob) bool
}
