package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for presentation intake.
type Metrics struct {
	// Handled submissions by generation and outcome
	Outcomes *prometheus.CounterVec

	// Verification service round trips by result
	VerifierLatency *prometheus.HistogramVec

	// Unix expiry of the most recently rotated verifier token
	TokenExpiry prometheus.Gauge

	// Notification delivery by backend and result
	Notifications *prometheus.CounterVec
}

// New creates the presentation metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vp_gateway_presentations_total",
			Help: "Presentation submissions by handler generation and outcome",
		}, []string{"generation", "outcome"}), // outcome: "presentation", "declination", "not_found", "unverified", "error"

		VerifierLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vp_gateway_verifier_duration_seconds",
			Help:    "Duration of calls to the verification service",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"result"}),

		TokenExpiry: f.NewGauge(prometheus.GaugeOpts{
			Name: "vp_gateway_verifier_token_expiry_timestamp_seconds",
			Help: "Expiry of the current verifier bearer token as a unix timestamp",
		}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vp_gateway_notifications_total",
			Help: "Notifications by backend and result",
		}, []string{"backend", "result"}), // result: "published", "failed", "dropped"
	}
}

// IncrementOutcome records how a submission ended.
func (m *Metrics) IncrementOutcome(generation, outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(generation, outcome).Inc()
	}
}

// ObserveVerifierLatency records one verification round trip.
func (m *Metrics) ObserveVerifierLatency(result string, d time.Duration) {
	if m != nil {
		m.VerifierLatency.WithLabelValues(result).Observe(d.Seconds())
	}
}

// SetTokenExpiry records the expiry of the freshly rotated token.
func (m *Metrics) SetTokenExpiry(t time.Time) {
	if m != nil {
		m.TokenExpiry.Set(float64(t.Unix()))
	}
}

// IncrementNotification records a notification delivery result.
func (m *Metrics) IncrementNotification(backend, result string) {
	if m != nil {
		m.Notifications.WithLabelValues(backend, result).Inc()
	}
}
