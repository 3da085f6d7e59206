// Package httpserver builds the service's net/http server.
package httpserver

import (
	"net/http"
	"time"

	"vp-gateway/internal/platform/config"
)

// writeGrace leaves room to write the error body after the request timeout fires.
const writeGrace = 5 * time.Second

// New builds the HTTP server for cfg. The write timeout tracks the request
// timeout so slow verifier calls still get their 504 written.
func New(cfg config.Server, handler http.Handler) *http.Server {
	writeTimeout := 30*time.Second + writeGrace
	if cfg.RequestTimeout > 0 {
		writeTimeout = cfg.RequestTimeout + writeGrace
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}
