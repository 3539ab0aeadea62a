// Package device turns a raw User-Agent into the short device label stored on
// audit entries ("Chrome 120 on Windows 10", "bot: Googlebot").
package device

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type contextKeyDevice struct{}

// Describe parses a User-Agent header. Unknown or empty agents yield "unknown".
func Describe(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	if ua.Bot() {
		return "bot: " + name
	}
	if major, _, ok := strings.Cut(version, "."); ok {
		version = major
	}

	label := strings.TrimSpace(name + " " + version)
	if os := ua.OS(); os != "" {
		label = fmt.Sprintf("%s on %s", label, os)
	}
	if ua.Mobile() {
		label += " (mobile)"
	}
	if label == "" {
		return "unknown"
	}
	return label
}

// Middleware parses the User-Agent once per request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithDevice(r.Context(), Describe(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the device label set by Middleware, or "" when absent.
func FromContext(ctx context.Context) string {
	if d, ok := ctx.Value(contextKeyDevice{}).(string); ok {
		return d
	}
	return ""
}

// WithDevice injects a device label into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithDevice(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, contextKeyDevice{}, label)
}
