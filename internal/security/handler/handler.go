package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustline/internal/security"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/audit/anomaly"
	"trustline/pkg/platform/audit/stream"
	"trustline/pkg/platform/httputil"
	authmw "trustline/pkg/platform/middleware/auth"
	request "trustline/pkg/platform/middleware/request"
	"trustline/pkg/requestcontext"
)

// Service defines the interface for security review operations.
type Service interface {
	Activity(ctx context.Context, actorID string) (*security.Activity, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type activityResponse struct {
	anomaly.Report
	Entries []stream.Message `json:"entries"`
}

func (h *Handler) Register(r chi.Router) {
	r.With(authmw.RequireRole(h.logger, requestcontext.RoleAdmin)).Get("/security/activity/{actorID}", h.handleActivity)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.service.Activity(r.Context(), chi.URLParam(r, "actorID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := activityResponse{Report: activity.Report, Entries: make([]stream.Message, 0, len(activity.Entries))}
	for _, entry := range activity.Entries {
		msg, err := stream.ToMessage(entry)
		if err != nil {
			h.writeError(w, r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render audit entry"))
			return
		}
		resp.Entries = append(resp.Entries, msg)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "security request failed",
			"path", r.URL.Path,
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
