// Package version provides middleware for protocol version extraction.
package version

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	id "vp-gateway/pkg/domain"
	"vp-gateway/pkg/requestcontext"
)

// HeaderName is the request header holder apps use to announce their protocol version.
const HeaderName = "version"

// ExtractProtocolVersion creates middleware that parses the version header and
// stores it in the context. A missing header leaves the zero version in place;
// a malformed one is rejected with 400 before any handler runs.
//
// Usage:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(version.ExtractProtocolVersion(logger))
//	    r.Post("/presentation", h.HandleCreate)
//	})
func ExtractProtocolVersion(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := strings.TrimSpace(r.Header.Get(HeaderName))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			v, err := id.ParseProtocolVersion(raw)
			if err != nil {
				logger.WarnContext(ctx, "rejected malformed version header",
					"version", raw,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeVersionError(w, http.StatusBadRequest, "bad_request", "invalid version header")
				return
			}

			ctx = requestcontext.WithProtocolVersion(ctx, v)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// versionErrorResponse represents the JSON error response for version-related errors.
type versionErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func writeVersionError(w http.ResponseWriter, statusCode int, errCode, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := versionErrorResponse{
		Error:            errCode,
		ErrorDescription: description,
	}
	_ = json.NewEncoder(w).Encode(resp)
}
