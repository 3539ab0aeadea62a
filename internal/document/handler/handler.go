package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"trustline/internal/document/models"
	"trustline/internal/document/verifier"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/httputil"
	authmw "trustline/pkg/platform/middleware/auth"
	request "trustline/pkg/platform/middleware/request"
	"trustline/pkg/requestcontext"
)

// MaxUploadBytes caps a whole multipart request. Files between
// verifier.MaxFileSize and this limit are accepted and fail the
// integrity check instead of the request.
const MaxUploadBytes = 2*verifier.MaxFileSize + 1<<20

const multipartMemory = 8 << 20

// Service defines the interface for document operations.
type Service interface {
	SubmitDocument(ctx context.Context, employeeID id.EmployeeID, req models.SubmitRequest) (*models.Document, error)
	DecideDocument(ctx context.Context, documentID id.DocumentID, decision models.Decision) (*models.Document, error)
	DeleteDocument(ctx context.Context, employeeID id.EmployeeID, documentID id.DocumentID) error
	GetDocument(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	ListDocuments(ctx context.Context, employeeID id.EmployeeID) ([]*models.Document, error)
	GetVerificationSummary(ctx context.Context, employeeID id.EmployeeID) (*models.VerificationSummary, error)
}

type Handler struct {
	service   Service
	logger    *slog.Logger
	maxUpload int64
}

type Option func(*Handler)

// WithMaxUploadBytes overrides MaxUploadBytes.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger, maxUpload: MaxUploadBytes}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type submitJSONRequest struct {
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
}

// documentResponse is the wire form of a document. Only the last four
// characters of the number leave the service.
type documentResponse struct {
	ID                 id.DocumentID             `json:"id"`
	EmployeeID         id.EmployeeID             `json:"employee_id"`
	DocumentType       models.DocumentType       `json:"document_type"`
	DocumentNumber     string                    `json:"document_number,omitempty"`
	File               *models.FileRef           `json:"file,omitempty"`
	VerificationStatus models.VerificationStatus `json:"verification_status"`
	AutoVerification   *models.AutoVerification  `json:"auto_verification,omitempty"`
	VerifiedAt         *time.Time                `json:"verified_at,omitempty"`
	DecisionNotes      string                    `json:"decision_notes,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

type listResponse struct {
	Documents []documentResponse `json:"documents"`
	Total     int                `json:"total"`
}

func toResponse(d *models.Document) documentResponse {
	return documentResponse{
		ID:                 d.ID,
		EmployeeID:         d.EmployeeID,
		DocumentType:       d.DocumentType,
		DocumentNumber:     maskNumber(d.DocumentNumber),
		File:               d.File,
		VerificationStatus: d.VerificationStatus,
		AutoVerification:   d.AutoVerification,
		VerifiedAt:         d.VerifiedAt,
		DecisionNotes:      d.DecisionNotes,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func maskNumber(number string) string {
	runes := []rune(number)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}

func (h *Handler) Register(r chi.Router) {
	employeesOnly := authmw.RequireRole(h.logger, requestcontext.RoleEmployee)
	reviewers := authmw.RequireRole(h.logger, requestcontext.RoleVerifier, requestcontext.RoleAdmin)

	r.With(employeesOnly).Post("/documents", h.handleSubmit)
	r.With(employeesOnly).Get("/me/documents", h.handleListMine)
	r.With(employeesOnly).Delete("/documents/{id}", h.handleDelete)
	r.With(reviewers).Post("/documents/{id}/decision", h.handleDecide)
	r.Get("/documents/{id}", h.handleGet)
	r.Get("/employees/{id}/verification", h.handleVerification)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := requireEmployee(w, r)
	if !ok {
		return
	}

	req, cleanup, err := h.parseSubmission(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer cleanup()

	doc, err := h.service.SubmitDocument(r.Context(), employeeID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(doc))
}

// parseSubmission accepts either a multipart form (file plus
// document_type and document_number fields) or a JSON body without a file.
func (h *Handler) parseSubmission(w http.ResponseWriter, r *http.Request) (models.SubmitRequest, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body submitJSONRequest
		if err := httputil.DecodeJSON(r, &body); err != nil {
			return models.SubmitRequest{}, noop, err
		}
		docType, err := models.ParseDocumentType(body.DocumentType)
		if err != nil {
			return models.SubmitRequest{}, noop, err
		}
		return models.SubmitRequest{DocumentType: docType, DocumentNumber: body.DocumentNumber}, noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.SubmitRequest{}, noop, dErrors.New(dErrors.CodeBadRequest, "upload exceeds the maximum request size")
		}
		return models.SubmitRequest{}, noop, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	docType, err := models.ParseDocumentType(r.FormValue("document_type"))
	if err != nil {
		return models.SubmitRequest{}, cleanup, err
	}
	req := models.SubmitRequest{DocumentType: docType, DocumentNumber: r.FormValue("document_number")}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, cleanup, nil
	case err != nil:
		return models.SubmitRequest{}, cleanup, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid file part")
	}
	req.Upload = &models.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return req, closeThen(file, cleanup), nil
}

func closeThen(f multipart.File, next func()) func() {
	return func() {
		_ = f.Close()
		next()
	}
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var decision models.Decision
	if err := httputil.DecodeJSON(r, &decision); err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, err := h.service.DecideDocument(r.Context(), documentID, decision)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := requireEmployee(w, r)
	if !ok {
		return
	}
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteDocument(r.Context(), employeeID, documentID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGet serves verifiers, admins and the owning employee. Anyone else
// gets not_found so document IDs cannot be enumerated.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, err := h.service.GetDocument(r.Context(), documentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	principal := requestcontext.PrincipalFrom(r.Context())
	switch principal.Role {
	case requestcontext.RoleVerifier, requestcontext.RoleAdmin:
	default:
		if own, ok := principal.EmployeeID(); !ok || own != doc.EmployeeID {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "document not found"))
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := requireEmployee(w, r)
	if !ok {
		return
	}
	docs, err := h.service.ListDocuments(r.Context(), employeeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := listResponse{Documents: make([]documentResponse, 0, len(docs)), Total: len(docs)}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, toResponse(d))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleVerification(w http.ResponseWriter, r *http.Request) {
	employeeID, err := id.ParseEmployeeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	principal := requestcontext.PrincipalFrom(r.Context())
	if own, isEmployee := principal.EmployeeID(); principal.Role == requestcontext.RoleEmployee && (!isEmployee || own != employeeID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "employees may only read their own verification state"))
		return
	}
	summary, err := h.service.GetVerificationSummary(r.Context(), employeeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func requireEmployee(w http.ResponseWriter, r *http.Request) (id.EmployeeID, bool) {
	employeeID, ok := requestcontext.PrincipalFrom(r.Context()).EmployeeID()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "no employee profile for this user"))
		return id.EmployeeID{}, false
	}
	return employeeID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "document request failed",
			"path", r.URL.Path,
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
