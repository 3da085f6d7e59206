package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementOutcome("current", "presentation")
	m.IncrementOutcome("current", "presentation")
	m.IncrementNotification("kafka", "dropped")
	m.SetTokenExpiry(time.Unix(1700000000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("current", "presentation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("kafka", "dropped")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.TokenExpiry))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementOutcome("original", "error")
		m.ObserveVerifierLatency("ok", time.Second)
		m.SetTokenExpiry(time.Now())
		m.IncrementNotification("log", "published")
	})
}
