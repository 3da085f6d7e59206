// Package notify pushes persisted presentations and declinations to the
// real-time channel. Delivery is best effort: a bounded in-process queue feeds
// a single worker, and a full queue drops the notification.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vp-gateway/internal/presentation/metrics"
	"vp-gateway/internal/presentation/models"
	"vp-gateway/pkg/requestcontext"
)

// Publisher delivers one notification to a backend.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
	Name() string
}

type envelope struct {
	notification models.Notification
	requestID    string
}

// Dispatcher queues notifications and publishes them from a worker goroutine.
type Dispatcher struct {
	publisher      Publisher
	inbox          chan envelope
	publishTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics

	// stopped is set under mu's write lock once Run starts draining, so no
	// enqueue can land after the final drain.
	mu      sync.RWMutex
	stopped bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBufferSize sets the queue capacity.
func WithBufferSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.inbox = make(chan envelope, n)
		}
	}
}

// WithPublishTimeout bounds each publish call.
func WithPublishTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.publishTimeout = t
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithMetrics enables delivery counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher for publisher. Call Run to start delivery.
func NewDispatcher(publisher Publisher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		publisher:      publisher,
		inbox:          make(chan envelope, 256),
		publishTimeout: 5 * time.Second,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify enqueues n without blocking. It reports false when the notification
// was dropped because the queue is full or the dispatcher has stopped.
func (d *Dispatcher) Notify(ctx context.Context, n models.Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.drop(ctx, n, "dispatcher stopped, dropping notification")
		return false
	}
	select {
	case d.inbox <- envelope{notification: n, requestID: requestcontext.RequestID(ctx)}:
		return true
	default:
		d.drop(ctx, n, "notification queue full, dropping notification")
		return false
	}
}

func (d *Dispatcher) drop(ctx context.Context, n models.Notification, msg string) {
	d.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"kind", string(n.Kind),
		"presentation_request_id", n.PresentationRequestID,
	)
	d.metrics.IncrementNotification(d.publisher.Name(), "dropped")
}

// Run publishes queued notifications until ctx is cancelled. It then stops
// accepting notifications, flushes whatever is still queued and returns.
// Cancel ctx only after every producer has finished.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()
			d.drain()
			return nil
		case env := <-d.inbox:
			d.publish(env)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case env := <-d.inbox:
			d.publish(env)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(env envelope) {
	ctx := requestcontext.WithRequestID(context.Background(), env.requestID)
	ctx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, env.notification); err != nil {
		d.logger.ErrorContext(ctx, "failed to publish notification",
			"request_id", env.requestID,
			"backend", d.publisher.Name(),
			"kind", string(env.notification.Kind),
			"error", err,
		)
		d.metrics.IncrementNotification(d.publisher.Name(), "failed")
		return
	}
	d.metrics.IncrementNotification(d.publisher.Name(), "published")
}
