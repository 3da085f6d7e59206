package httptransport

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vp-gateway/internal/platform/health"
	"vp-gateway/internal/platform/metrics"
	"vp-gateway/internal/platform/middleware"
	"vp-gateway/pkg/platform/middleware/version"
	"vp-gateway/pkg/requestcontext"
	"vp-gateway/pkg/testutil"
)

type recordingRoutes struct {
	version   string
	requestID string
}

func (rr *recordingRoutes) Register(r chi.Router) {
	r.Post("/presentation", func(w http.ResponseWriter, req *http.Request) {
		rr.version = requestcontext.ProtocolVersion(req.Context()).String()
		rr.requestID = requestcontext.RequestID(req.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func newTestRouter(t *testing.T, routes Registrar) (http.Handler, *prometheus.Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	reg := prometheus.NewRegistry()
	return NewRouter(Deps{
		Logger:       logger,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Presentation: routes,
		Health: health.New(logger,
			health.WithCheck("postgres", func(context.Context) error { return nil }),
		),
	}), reg
}

func TestRouterPresentationCarriesVersionAndRequestID(t *testing.T) {
	routes := &recordingRoutes{}
	router, _ := newTestRouter(t, routes)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/presentation", map[string]string{})
	req.Header.Set(version.HeaderName, "1.0.0")
	req.Header.Set(middleware.RequestIDHeader, "req-abc")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, "1.0.0", routes.version)
	assert.Equal(t, "req-abc", routes.requestID)
	assert.Equal(t, "req-abc", rr.Header().Get(middleware.RequestIDHeader))
}

func TestRouterHealthIgnoresVersionHeader(t *testing.T) {
	router, _ := newTestRouter(t, &recordingRoutes{})

	req := testutil.NewRequest(t, http.MethodGet, "/health")
	req.Header.Set(version.HeaderName, "garbage")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "ok")
}

func TestRouterExposesMetrics(t *testing.T) {
	router, _ := newTestRouter(t, &recordingRoutes{})

	testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/presentation", map[string]string{}))
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))

	testutil.AssertStatusOK(t, rr)
	body := string(testutil.ReadBody(t, rr))
	require.True(t, strings.Contains(body, "vp_gateway_http_request_duration_seconds"))
	assert.Contains(t, body, `route="/presentation"`)
}

func TestRouterRejectsNonJSONBody(t *testing.T) {
	routes := &recordingRoutes{}
	router, _ := newTestRouter(t, routes)

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/presentation", "a=b")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusUnsupportedMediaType)
	assert.Empty(t, routes.requestID)
}
