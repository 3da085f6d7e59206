// Package httptransport assembles the chi router and its middleware chain.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vp-gateway/internal/platform/metrics"
	"vp-gateway/internal/platform/middleware"
	"vp-gateway/pkg/platform/middleware/metadata"
	"vp-gateway/pkg/platform/middleware/requesttime"
	"vp-gateway/pkg/platform/middleware/version"
)

// Registrar mounts a group of endpoints.
type Registrar interface {
	Register(r chi.Router)
}

// Deps collects everything the router mounts.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	Presentation   Registrar
	Health         http.Handler
}

// NewRouter wires the public endpoints. The version marker is only parsed on
// presentation routes so probes and scrapes never fail on a stray header.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	if deps.Health != nil {
		r.Method(http.MethodGet, "/health", deps.Health)
	}
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if deps.RequestTimeout > 0 {
			r.Use(middleware.Timeout(deps.RequestTimeout))
		}
		r.Use(middleware.ContentTypeJSON)
		r.Use(version.ExtractProtocolVersion(deps.Logger))
		deps.Presentation.Register(r)
	})

	return r
}
