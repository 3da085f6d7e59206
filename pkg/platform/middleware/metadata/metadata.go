package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"vp-gateway/pkg/requestcontext"
)

// ClientMetadata extracts the client IP, User-Agent and the platform parsed from
// it, and adds them to the context. Apply early in the chain so request logs carry them.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, Platform(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Platform returns a short platform label for a User-Agent string, e.g.
// "iOS", "Android" or "Linux". Holder apps built on HTTP libraries without a
// platform token fall back to the product name.
func Platform(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	if os := ua.OSInfo().Name; os != "" {
		return os
	}
	if p := ua.Platform(); p != "" {
		return p
	}
	name, _ := ua.Browser()
	return name
}

// ClientIPFromRequest extracts the real client IP, honouring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
	// the first is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" ("[::1]:port" for IPv6).
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
