package version

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"vp-gateway/pkg/requestcontext"
)

func TestExtractProtocolVersion(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	var seen string
	var sawNil bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := requestcontext.ProtocolVersion(r.Context())
		seen = v.String()
		sawNil = v.IsNil()
		w.WriteHeader(http.StatusNoContent)
	})
	mw := ExtractProtocolVersion(logger)(next)

	t.Run("stores parsed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/presentation", nil)
		req.Header.Set(HeaderName, "2.1.0")
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2.1.0", seen)
	})

	t.Run("missing header leaves zero version", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/presentation", nil)
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, sawNil)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/presentation", nil)
		req.Header.Set(HeaderName, "latest")
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid version header")
	})
}
