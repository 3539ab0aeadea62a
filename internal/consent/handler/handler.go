package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustline/internal/consent"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/httputil"
	request "trustline/pkg/platform/middleware/request"
	"trustline/pkg/requestcontext"
)

// Service defines the interface for consent operations.
type Service interface {
	GrantConsent(ctx context.Context, employeeID id.EmployeeID) (*consent.State, error)
	RevokeConsent(ctx context.Context, employeeID id.EmployeeID) (*consent.State, error)
	SetProfileVisibility(ctx context.Context, employeeID id.EmployeeID, visible bool) (*consent.State, error)
	GetState(ctx context.Context, employeeID id.EmployeeID) (*consent.State, error)
}

// Handler serves the employee's own consent and visibility settings.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes on r, which must already require an employee
// principal.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/consent", h.handleGetConsent)
	r.Post("/me/consent", h.handleGrantConsent)
	r.Delete("/me/consent", h.handleRevokeConsent)
	r.Put("/me/visibility", h.handleSetVisibility)
}

func (h *Handler) handleGetConsent(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(ctx context.Context, employeeID id.EmployeeID) (*consent.State, error) {
		return h.service.GetState(ctx, employeeID)
	})
}

func (h *Handler) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.GrantConsent)
}

func (h *Handler) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.RevokeConsent)
}

func (h *Handler) handleSetVisibility(w http.ResponseWriter, r *http.Request) {
	var req consent.VisibilityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Visible == nil {
		httputil.WriteError(w, dErrors.Validation("invalid visibility request", map[string]string{
			"visible": "is required",
		}))
		return
	}
	h.respond(w, r, func(ctx context.Context, employeeID id.EmployeeID) (*consent.State, error) {
		return h.service.SetProfileVisibility(ctx, employeeID, *req.Visible)
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, fn func(context.Context, id.EmployeeID) (*consent.State, error)) {
	ctx := r.Context()
	employeeID, ok := requestcontext.PrincipalFrom(ctx).EmployeeID()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only employees manage consent"))
		return
	}
	state, err := fn(ctx, employeeID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "consent update failed",
				"employee_id", employeeID.String(),
				"request_id", request.GetRequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}
