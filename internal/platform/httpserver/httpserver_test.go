package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vp-gateway/internal/platform/config"
)

func TestNewDerivesWriteTimeout(t *testing.T) {
	srv := New(config.Server{Addr: ":9090", RequestTimeout: 10 * time.Second}, http.NotFoundHandler())

	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
}

func TestNewDefaultsWithoutRequestTimeout(t *testing.T) {
	srv := New(config.Server{Addr: ":8080"}, http.NotFoundHandler())

	assert.Equal(t, 35*time.Second, srv.WriteTimeout)
}
