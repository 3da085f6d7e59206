// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services and stores read them without importing
// net/http.
//
// Usage in services (read values):
//
//	requestID := requestcontext.RequestID(ctx)
//	version := requestcontext.ProtocolVersion(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithProtocolVersion(ctx, domain.MustProtocolVersion("2.0.0"))
package requestcontext

import (
	"context"
	"time"

	id "vp-gateway/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	requestIDKey       struct{}
	requestTimeKey     struct{}
	protocolVersionKey struct{}
	clientIPKey        struct{}
	userAgentKey       struct{}
	clientPlatformKey  struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyRequestID       = requestIDKey{}
	ContextKeyRequestTime     = requestTimeKey{}
	ContextKeyProtocolVersion = protocolVersionKey{}
	ContextKeyClientIP        = clientIPKey{}
	ContextKeyUserAgent       = userAgentKey{}
	ContextKeyClientPlatform  = clientPlatformKey{}
)

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Protocol version
// -----------------------------------------------------------------------------

// ProtocolVersion retrieves the holder app's version marker from the context.
// Returns the zero value (no marker) if not set.
func ProtocolVersion(ctx context.Context) id.ProtocolVersion {
	if v, ok := ctx.Value(ContextKeyProtocolVersion).(id.ProtocolVersion); ok {
		return v
	}
	return id.ProtocolVersion{}
}

// WithProtocolVersion injects a version marker into the context.
func WithProtocolVersion(ctx context.Context, v id.ProtocolVersion) context.Context {
	return context.WithValue(ctx, ContextKeyProtocolVersion, v)
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent, platform)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// ClientPlatform retrieves the parsed client platform (e.g. "iOS", "Android").
func ClientPlatform(ctx context.Context) string {
	if p, ok := ctx.Value(ContextKeyClientPlatform).(string); ok {
		return p
	}
	return ""
}

// WithClientMetadata injects client IP, User-Agent and parsed platform into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent, platform string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	ctx = context.WithValue(ctx, ContextKeyClientPlatform, platform)
	return ctx
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
