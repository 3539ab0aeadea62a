package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustline/internal/company/models"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/httputil"
	authmw "trustline/pkg/platform/middleware/auth"
	request "trustline/pkg/platform/middleware/request"
	"trustline/pkg/requestcontext"
)

// Service defines the interface for company operations.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Company, error)
	Get(ctx context.Context, companyID id.CompanyID) (*models.Company, error)
	SetVerified(ctx context.Context, companyID id.CompanyID, verified bool) (*models.Company, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type setVerifiedRequest struct {
	Verified *bool `json:"verified"`
}

func (h *Handler) Register(r chi.Router) {
	r.With(authmw.RequireRole(h.logger, requestcontext.RoleCompany)).Post("/companies", h.handleRegister)
	r.Get("/companies/{id}", h.handleGet)
	r.With(authmw.RequireRole(h.logger, requestcontext.RoleAdmin)).Put("/companies/{id}/verified", h.handleSetVerified)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	company, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, company)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	companyID, err := id.ParseCompanyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	company, err := h.service.Get(r.Context(), companyID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, company)
}

func (h *Handler) handleSetVerified(w http.ResponseWriter, r *http.Request) {
	companyID, err := id.ParseCompanyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req setVerifiedRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Verified == nil {
		httputil.WriteError(w, dErrors.Validation("invalid request", map[string]string{"verified": "is required"}))
		return
	}
	company, err := h.service.SetVerified(r.Context(), companyID, *req.Verified)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, company)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "company request failed",
			"path", r.URL.Path,
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
