package testutil

import (
	"net/http"

	id "vp-gateway/pkg/domain"
	"vp-gateway/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context, as the request ID
// middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithProtocolVersion adds a parsed version marker to the request context.
// An invalid marker is not added.
func WithProtocolVersion(req *http.Request, version string) *http.Request {
	if v, err := id.ParseProtocolVersion(version); err == nil {
		return req.WithContext(requestcontext.WithProtocolVersion(req.Context(), v))
	}
	return req
}
