package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	audit "trustline/pkg/platform/audit"
	request "trustline/pkg/platform/middleware/request"
	"trustline/pkg/requestcontext"
)

// PrincipalProvider validates a bearer token and yields the authenticated
// caller. The JWT adapter in internal/jwt_token implements it.
type PrincipalProvider interface {
	Principal(tokenString string) (requestcontext.Principal, error)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// AuditPublisher receives token_rejected entries. Record must not block.
type AuditPublisher interface {
	Record(ctx context.Context, entry audit.Entry)
}

type options struct {
	auditor AuditPublisher
}

type Option func(*options)

// WithAuditPublisher records every rejected bearer token against the
// caller's IP so repeated failures feed anomaly detection.
func WithAuditPublisher(p AuditPublisher) Option {
	return func(o *options) {
		o.auditor = p
	}
}

func RequireAuth(provider PrincipalProvider, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	reject := func(ctx context.Context, reason string) {
		if o.auditor == nil {
			return
		}
		o.auditor.Record(ctx, audit.Entry{
			ActorID: requestcontext.ClientIP(ctx),
			Kind:    audit.KindTokenRejected,
			Outcome: audit.OutcomeFailure,
			Payload: audit.AuthenticationPayload{Method: "bearer", Reason: reason},
		})
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", request.GetRequestID(ctx),
				)
				reject(ctx, "missing token")
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			principal, err := provider.Principal(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				reject(ctx, "invalid token")
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}

// RequireRole rejects principals whose role is not in roles. It must run
// after RequireAuth.
func RequireRole(logger *slog.Logger, roles ...requestcontext.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := requestcontext.PrincipalFrom(ctx)
			if principal.IsZero() {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if !slices.Contains(roles, principal.Role) {
				logger.WarnContext(ctx, "forbidden - role not permitted",
					"role", principal.Role,
					"user_id", principal.ID.String(),
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Role not permitted for this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
