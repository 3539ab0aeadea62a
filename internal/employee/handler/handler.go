package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustline/internal/employee/models"
	"trustline/internal/employee/service"
	"trustline/internal/scoring"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/httputil"
	authmw "trustline/pkg/platform/middleware/auth"
	request "trustline/pkg/platform/middleware/request"
	"trustline/pkg/requestcontext"
)

// Service defines the interface for employee operations.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Employee, error)
	GetProfile(ctx context.Context, employeeID id.EmployeeID) (*service.Profile, error)
	GetScore(ctx context.Context, employeeID id.EmployeeID) (*scoring.EmployeeScoreView, error)
	GetPublicProfile(ctx context.Context, employeeID id.EmployeeID) (*models.PublicProfile, error)
	Search(ctx context.Context, query string) (*service.SearchResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes on r, which must already require
// authentication.
func (h *Handler) Register(r chi.Router) {
	employeesOnly := authmw.RequireRole(h.logger, requestcontext.RoleEmployee)

	r.With(employeesOnly).Post("/employees", h.handleRegister)
	r.With(employeesOnly).Get("/me/profile", h.handleMyProfile)
	r.Get("/employees/{id}/score", h.handleGetScore)
	r.Get("/profiles/{id}", h.handleGetPublicProfile)
	r.Get("/profiles", h.handleSearch)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	employee, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, employee)
}

func (h *Handler) handleMyProfile(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := requestcontext.PrincipalFrom(r.Context()).EmployeeID()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no employee profile for this user"))
		return
	}
	profile, err := h.service.GetProfile(r.Context(), employeeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// handleGetScore is open to companies, verifiers and admins; an employee
// may only read their own score.
func (h *Handler) handleGetScore(w http.ResponseWriter, r *http.Request) {
	employeeID, err := id.ParseEmployeeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	principal := requestcontext.PrincipalFrom(r.Context())
	if own, isEmployee := principal.EmployeeID(); principal.Role == requestcontext.RoleEmployee && (!isEmployee || own != employeeID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "employees may only read their own score"))
		return
	}
	view, err := h.service.GetScore(r.Context(), employeeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleGetPublicProfile(w http.ResponseWriter, r *http.Request) {
	employeeID, err := id.ParseEmployeeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	profile, err := h.service.GetPublicProfile(r.Context(), employeeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "employee request failed",
			"path", r.URL.Path,
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
