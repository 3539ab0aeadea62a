package testutil

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	id "trustline/pkg/domain"
	"trustline/pkg/requestcontext"
)

// WithPrincipal adds an authenticated principal to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithPrincipal(req *http.Request, p requestcontext.Principal) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), p))
}

// AsEmployee authenticates the request as the owner of employeeID.
func AsEmployee(req *http.Request, employeeID id.EmployeeID) *http.Request {
	return WithPrincipal(req, requestcontext.Principal{
		ID:        id.NewUserID(),
		Role:      requestcontext.RoleEmployee,
		ProfileID: uuid.UUID(employeeID),
	})
}

// AsCompany authenticates the request as the owner of companyID.
func AsCompany(req *http.Request, companyID id.CompanyID) *http.Request {
	return WithPrincipal(req, requestcontext.Principal{
		ID:        id.NewUserID(),
		Role:      requestcontext.RoleCompany,
		ProfileID: uuid.UUID(companyID),
	})
}

// AsRole authenticates the request with a role that owns no profile
// (verifier, admin).
func AsRole(req *http.Request, role requestcontext.Role) *http.Request {
	return WithPrincipal(req, requestcontext.Principal{ID: id.NewUserID(), Role: role})
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
