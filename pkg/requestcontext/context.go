// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values: the authenticated principal, request id, request time
// and client metadata. Middleware sets them; services read them.
//
// Usage in tests:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithPrincipal(ctx, requestcontext.Principal{ID: userID, Role: requestcontext.RoleCompany})
package requestcontext

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "trustline/pkg/domain"
)

// Role is the platform role carried by the principal.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleCompany  Role = "company"
	RoleVerifier Role = "verifier"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleCompany, RoleVerifier, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller as yielded by the identity provider.
// ProfileID is the employee or company record owned by the caller; it is the
// zero UUID for verifiers and admins.
type Principal struct {
	ID        id.UserID
	Role      Role
	ProfileID uuid.UUID
}

func (p Principal) IsZero() bool {
	return p.ID.IsNil()
}

// EmployeeID returns the employee profile for employee principals.
func (p Principal) EmployeeID() (id.EmployeeID, bool) {
	if p.Role != RoleEmployee || p.ProfileID == uuid.Nil {
		return id.EmployeeID{}, false
	}
	return id.EmployeeID(p.ProfileID), true
}

// CompanyID returns the company profile for company principals.
func (p Principal) CompanyID() (id.CompanyID, bool) {
	if p.Role != RoleCompany || p.ProfileID == uuid.Nil {
		return id.CompanyID{}, false
	}
	return id.CompanyID(p.ProfileID), true
}

type (
	principalKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
)

// PrincipalFrom returns the authenticated principal, or the zero value.
func PrincipalFrom(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Principal{}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// ActorID is shorthand for the principal's user id as a string, empty when
// the request is anonymous.
func ActorID(ctx context.Context) string {
	p := PrincipalFrom(ctx)
	if p.IsZero() {
		return ""
	}
	return p.ID.String()
}

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request-scoped time, falling back to time.Now() outside
// HTTP requests (CLI commands, workers).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}
