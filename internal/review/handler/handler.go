package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustline/internal/review/models"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/httputil"
	authmw "trustline/pkg/platform/middleware/auth"
	request "trustline/pkg/platform/middleware/request"
	"trustline/pkg/requestcontext"
)

// Service defines the interface for review ledger operations.
type Service interface {
	CreateReview(ctx context.Context, companyID id.CompanyID, req models.CreateRequest) (*models.Review, error)
	UpdateReview(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID, patch models.UpdateRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID) error
	GetReview(ctx context.Context, reviewID id.ReviewID) (*models.Review, error)
	ListEmployeeReviews(ctx context.Context, employeeID id.EmployeeID) ([]*models.Review, error)
	ListCompanyReviews(ctx context.Context, companyID id.CompanyID) ([]*models.Review, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type listResponse struct {
	Reviews []*models.Review `json:"reviews"`
	Total   int              `json:"total"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (h *Handler) Register(r chi.Router) {
	companiesOnly := authmw.RequireRole(h.logger, requestcontext.RoleCompany)

	r.With(companiesOnly).Post("/reviews", h.handleCreate)
	r.With(companiesOnly).Patch("/reviews/{id}", h.handleUpdate)
	r.With(companiesOnly).Delete("/reviews/{id}", h.handleDelete)
	r.Get("/reviews/{id}", h.handleGet)
	r.Get("/employees/{id}/reviews", h.handleListEmployee)
	r.Get("/companies/{id}/reviews", h.handleListCompany)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.requireCompany(w, r)
	if !ok {
		return
	}
	var req models.CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	review, err := h.service.CreateReview(r.Context(), companyID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, review)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.requireCompany(w, r)
	if !ok {
		return
	}
	reviewID, err := id.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var patch models.UpdateRequest
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.WriteError(w, err)
		return
	}
	review, err := h.service.UpdateReview(r.Context(), companyID, reviewID, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.requireCompany(w, r)
	if !ok {
		return
	}
	reviewID, err := id.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteReview(r.Context(), companyID, reviewID); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deleteResponse{Deleted: true})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reviewID, err := id.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	review, err := h.service.GetReview(r.Context(), reviewID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

// handleListEmployee lets an employee read only the reviews written about
// them; other roles may read any employee's reviews.
func (h *Handler) handleListEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := id.ParseEmployeeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	principal := requestcontext.PrincipalFrom(r.Context())
	if own, isEmployee := principal.EmployeeID(); principal.Role == requestcontext.RoleEmployee && (!isEmployee || own != employeeID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "employees may only read their own reviews"))
		return
	}
	reviews, err := h.service.ListEmployeeReviews(r.Context(), employeeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Reviews: reviews, Total: len(reviews)})
}

func (h *Handler) handleListCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := id.ParseCompanyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reviews, err := h.service.ListCompanyReviews(r.Context(), companyID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Reviews: reviews, Total: len(reviews)})
}

// requireCompany resolves the acting company from the principal. A company
// user without a registered company profile cannot author reviews.
func (h *Handler) requireCompany(w http.ResponseWriter, r *http.Request) (id.CompanyID, bool) {
	companyID, ok := requestcontext.PrincipalFrom(r.Context()).CompanyID()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "no company profile for this user"))
		return id.CompanyID{}, false
	}
	return companyID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "review request failed",
			"path", r.URL.Path,
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
