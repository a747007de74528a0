package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookReceipt records an accepted delivery for replay detection. For
// certificate-based providers the uniqueness of TransmissionID is the
// anti-replay invariant. Rows are written once and never mutated.
type WebhookReceipt struct {
	ReceiptID      uuid.UUID
	Provider       Provider
	TransmissionID string
	ReceivedAt     time.Time
}

// WebhookEvent is a verified inbound event, stored before forwarding.
type WebhookEvent struct {
	EventID    uuid.UUID
	TenantID   uuid.UUID
	Provider   Provider
	EventType  string
	Payload    []byte
	Signature  string
	Forwarded  bool
	ReceivedAt time.Time
}
