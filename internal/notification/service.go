package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trustline/internal/platform/metrics"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/requestcontext"
)

const deliveryTimeout = 2 * time.Second

// Store persists notifications per recipient.
type Store interface {
	Push(ctx context.Context, n Notification) error
	List(ctx context.Context, recipient string, limit int) ([]Notification, error)
}

type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify stores n for its recipient. Failures are logged and counted; they
// never reach the caller, and cancelling the request does not abort delivery.
func (s *Service) Notify(ctx context.Context, n Notification) {
	if n.Recipient == "" {
		s.logger.WarnContext(ctx, "notification dropped: no recipient", "kind", n.Kind)
		return
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = requestcontext.Now(ctx).UTC()
	}

	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()
	if err := s.store.Push(deliverCtx, n); err != nil {
		s.metrics.IncNotifyFailures()
		s.logger.ErrorContext(ctx, "notification delivery failed",
			"kind", n.Kind,
			"recipient", n.Recipient,
			"error", err,
		)
	}
}

// List returns the recipient's inbox, newest first.
func (s *Service) List(ctx context.Context, recipient string, limit int) ([]Notification, error) {
	items, err := s.store.List(ctx, recipient, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return items, nil
}
