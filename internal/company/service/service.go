package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trustline/internal/company/models"
	"trustline/internal/notification"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/platform/tx"
	"trustline/pkg/requestcontext"
)

type Store interface {
	Save(ctx context.Context, c *models.Company) error
	FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error)
	SetVerified(ctx context.Context, companyID id.CompanyID, verified bool, now time.Time) error
}

// Scorer refreshes the company's derived statistics; verification feeds the
// reputation score.
type Scorer interface {
	RecomputeCompany(ctx context.Context, companyID id.CompanyID) (models.StatsUpdate, error)
}

type AuditPublisher interface {
	Record(ctx context.Context, entry audit.Entry)
}

type Notifier interface {
	Notify(ctx context.Context, n notification.Notification)
}

type Service struct {
	store    Store
	scorer   Scorer
	tx       tx.Runner
	auditor  AuditPublisher
	notifier Notifier
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func New(store Store, scorer Scorer, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("company store is required")
	}
	if scorer == nil {
		return nil, errors.New("scorer is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{store: store, scorer: scorer, tx: runner, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a company owned by the calling user. Companies start
// unverified.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Company, error) {
	principal := requestcontext.PrincipalFrom(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	company := models.NewCompany(principal.ID, req, requestcontext.Now(ctx))
	if err := s.store.Save(ctx, company); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a company with this name already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save company")
	}

	s.record(ctx, audit.KindCompanyRegistered, company)
	s.logger.InfoContext(ctx, "company registered", "company_id", company.ID.String())
	return company, nil
}

func (s *Service) Get(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	company, err := s.store.FindByID(ctx, companyID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return company, nil
}

// SetVerified changes the admin-controlled verified flag and recomputes the
// reputation score it contributes to.
func (s *Service) SetVerified(ctx context.Context, companyID id.CompanyID, verified bool) (*models.Company, error) {
	now := requestcontext.Now(ctx)

	var company *models.Company
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.SetVerified(ctx, companyID, verified, now); err != nil {
			return translateNotFound(err)
		}
		if _, err := s.scorer.RecomputeCompany(ctx, companyID); err != nil {
			return err
		}
		var err error
		company, err = s.store.FindByID(ctx, companyID)
		if err != nil {
			return translateNotFound(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.KindCompanyVerificationChanged, company)
	if verified && s.notifier != nil {
		s.notifier.Notify(ctx, notification.Notification{
			Recipient: company.ID.String(),
			Kind:      notification.KindCompanyVerified,
			Title:     "Company verified",
			Message:   company.Name + " is now a verified employer.",
			Subject:   company.ID.String(),
		})
	}
	return company, nil
}

func (s *Service) record(ctx context.Context, kind audit.Kind, c *models.Company) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Entry{
		Kind:    kind,
		Outcome: audit.OutcomeSuccess,
		Subject: c.ID.String(),
		Payload: audit.ProfilePayload{
			ProfileID: c.ID.String(),
			Verified:  audit.Bool(c.Verified),
		},
	})
}

func translateNotFound(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "company not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "company store failure")
}
