package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"trustline/internal/notification"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/httputil"
	request "trustline/pkg/platform/middleware/request"
	"trustline/pkg/requestcontext"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Service interface {
	List(ctx context.Context, recipient string, limit int) ([]notification.Notification, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type inboxResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Total         int                         `json:"total"`
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/me/notifications", h.handleInbox)
}

// handleInbox serves the caller's profile inbox. Staff principals own no
// profile and always see an empty inbox.
func (h *Handler) handleInbox(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			httputil.WriteError(w, dErrors.Validation("invalid limit", map[string]string{
				"limit": "must be between 1 and 200",
			}))
			return
		}
		limit = n
	}

	principal := requestcontext.PrincipalFrom(r.Context())
	if principal.ProfileID == uuid.Nil {
		httputil.WriteJSON(w, http.StatusOK, inboxResponse{Notifications: []notification.Notification{}})
		return
	}

	items, err := h.service.List(r.Context(), principal.ProfileID.String(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "notification inbox failed",
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if items == nil {
		items = []notification.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, inboxResponse{Notifications: items, Total: len(items)})
}
