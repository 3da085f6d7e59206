// Package health serves the liveness endpoint backed by dependency checks.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vp-gateway/pkg/platform/httputil"
)

const defaultCheckTimeout = 2 * time.Second

// CheckFunc reports whether one dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Handler runs all registered checks concurrently on every request.
type Handler struct {
	checks  map[string]CheckFunc
	timeout time.Duration
	logger  *slog.Logger
}

// Response is the body of GET /health.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Option configures a Handler.
type Option func(*Handler)

// WithTimeout bounds the whole check round.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithCheck registers a named dependency check. Nil checks are ignored so
// optional clients can be passed through unconditionally.
func WithCheck(name string, fn CheckFunc) Option {
	return func(h *Handler) {
		if fn != nil {
			h.checks[name] = fn
		}
	}
}

// New creates a health handler.
func New(logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		checks:  make(map[string]CheckFunc),
		timeout: defaultCheckTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP handles GET /health. Any failing check turns the response into a 503.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h.Check(r.Context())
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

// Check runs every registered check and collects the per-dependency result.
func (h *Handler) Check(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.checks))
		failed  []string
	)

	// Checks never return errors to the group; every dependency is reported.
	var g errgroup.Group
	for name, fn := range h.checks {
		g.Go(func() error {
			err := fn(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[name] = err.Error()
				failed = append(failed, name)
				return nil
			}
			results[name] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		sort.Strings(failed)
		h.logger.WarnContext(ctx, "health check failed", "dependencies", failed)
		return Response{Status: "degraded", Checks: results}
	}
	return Response{Status: "ok", Checks: results}
}
