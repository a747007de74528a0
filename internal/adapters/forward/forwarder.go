// Package forward delivers verified webhook events to tenant endpoints off
// the request path. Delivery is at-most-once from the queue's perspective: a
// full queue drops the job and the caller records the event as unforwarded.
package forward

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onerouter/gateway/internal/ports"
)

const (
	defaultQueueSize   = 256
	defaultWorkerCount = 4
	maxAttempts        = 3
	baseBackoff        = 500 * time.Millisecond
	deliveryTimeout    = 10 * time.Second
)

// EventStore is the subset of the event repository the forwarder needs.
type EventStore interface {
	MarkForwarded(ctx context.Context, eventID uuid.UUID, at time.Time) error
}

// Config tunes the forwarding pool. Zero values take defaults.
type Config struct {
	QueueSize   int
	WorkerCount int
	HTTPClient  *http.Client
	ServiceName string
}

// Forwarder is a bounded-queue worker pool delivering webhook payloads.
type Forwarder struct {
	jobs    chan ports.ForwardJob
	client  *http.Client
	events  EventStore
	logger  *slog.Logger
	service string

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func New(cfg Config, events EventStore, logger *slog.Logger) *Forwarder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: deliveryTimeout}
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "onerouter-gateway"
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &Forwarder{
		jobs:    make(chan ports.ForwardJob, cfg.QueueSize),
		client:  cfg.HTTPClient,
		events:  events,
		logger:  logger,
		service: cfg.ServiceName,
	}
	for i := 0; i < cfg.WorkerCount; i++ {
		f.wg.Add(1)
		go f.worker()
	}
	return f
}

// Enqueue hands a job to the pool without blocking. A full queue returns
// false; the event stays stored with forwarded=false for later inspection.
func (f *Forwarder) Enqueue(_ context.Context, job ports.ForwardJob) bool {
	select {
	case f.jobs <- job:
		return true
	default:
		f.logger.Warn("forward queue full, dropping job",
			"operation", "forward_enqueue",
			"outcome", "dropped",
			"event_id", job.EventID.String(),
			"tenant_id", job.TenantID.String(),
		)
		return false
	}
}

// Shutdown stops accepting jobs and waits for in-flight deliveries.
func (f *Forwarder) Shutdown() {
	f.stopOnce.Do(func() { close(f.jobs) })
	f.wg.Wait()
}

func (f *Forwarder) worker() {
	defer f.wg.Done()
	for job := range f.jobs {
		f.deliver(job)
	}
}

func (f *Forwarder) deliver(job ports.ForwardJob) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(baseBackoff << (attempt - 2))
		}
		if lastErr = f.attempt(job); lastErr == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := f.events.MarkForwarded(ctx, job.EventID, time.Now().UTC()); err != nil {
				f.logger.Error("mark forwarded failed",
					"operation", "forward_deliver",
					"outcome", "partial",
					"event_id", job.EventID.String(),
					"error", err.Error(),
				)
			}
			cancel()
			f.logger.Info("webhook forwarded",
				"operation", "forward_deliver",
				"outcome", "success",
				"event_id", job.EventID.String(),
				"tenant_id", job.TenantID.String(),
				"attempt", attempt,
			)
			return
		}
	}
	f.logger.Error("webhook forwarding exhausted retries",
		"operation", "forward_deliver",
		"outcome", "failure",
		"event_id", job.EventID.String(),
		"tenant_id", job.TenantID.String(),
		"error", lastErr.Error(),
	)
}

func (f *Forwarder) attempt(job ports.ForwardJob) error {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.EndpointURL, bytes.NewReader(job.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-OneRouter-Service", f.service)
	req.Header.Set("X-OneRouter-Provider", string(job.Provider))
	if job.Signature != "" {
		req.Header.Set("X-OneRouter-Signature", job.Signature)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return &deliveryError{status: resp.StatusCode}
	}
	return nil
}

type deliveryError struct {
	status int
}

func (e *deliveryError) Error() string {
	return fmt.Sprintf("endpoint returned %d", e.status)
}
