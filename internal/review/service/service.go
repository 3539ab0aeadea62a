// Package service is the review ledger: it accepts, edits and retires
// employer reviews and keeps the derived scores in step with them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	companyModels "trustline/internal/company/models"
	"trustline/internal/consent"
	employeeModels "trustline/internal/employee/models"
	"trustline/internal/notification"
	"trustline/internal/platform/metrics"
	"trustline/internal/review/models"
	"trustline/internal/scoring"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/platform/tx"
	"trustline/pkg/requestcontext"
)

var tracer = otel.Tracer("trustline/review")

type Store interface {
	Save(ctx context.Context, r *models.Review) error
	Update(ctx context.Context, r *models.Review) error
	FindByID(ctx context.Context, reviewID id.ReviewID) (*models.Review, error)
	ListActiveByEmployee(ctx context.Context, employeeID id.EmployeeID) ([]*models.Review, error)
	ListActiveByCompany(ctx context.Context, companyID id.CompanyID) ([]*models.Review, error)
}

type CompanyLookup interface {
	FindByID(ctx context.Context, companyID id.CompanyID) (*companyModels.Company, error)
}

type EmployeeLookup interface {
	FindByID(ctx context.Context, employeeID id.EmployeeID) (*employeeModels.Employee, error)
}

// Scorer recomputes derived scores; called inside the ledger's transaction.
type Scorer interface {
	RecomputeEmployee(ctx context.Context, employeeID id.EmployeeID) (scoring.Score, error)
	RecomputeCompany(ctx context.Context, companyID id.CompanyID) (companyModels.StatsUpdate, error)
}

type AuditPublisher interface {
	Record(ctx context.Context, entry audit.Entry)
}

type Notifier interface {
	Notify(ctx context.Context, n notification.Notification)
}

type Service struct {
	store     Store
	companies CompanyLookup
	employees EmployeeLookup
	gate      *consent.Gate
	scorer    Scorer
	tx        tx.Runner
	auditor   AuditPublisher
	notifier  Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	window    time.Duration
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

// WithReviewWindow overrides how long after employment ends a review is
// still accepted.
func WithReviewWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

func New(store Store, companies CompanyLookup, employees EmployeeLookup, scorer Scorer, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("review store is required")
	}
	if employees == nil {
		return nil, errors.New("employee lookup is required")
	}
	if scorer == nil {
		return nil, errors.New("scorer is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{
		store:     store,
		companies: companies,
		employees: employees,
		scorer:    scorer,
		tx:        runner,
		logger:    slog.Default(),
		window:    models.DefaultReviewWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gate = consent.NewGate(employees, s.auditor)
	return s, nil
}

// CreateReview validates and records a review, then recomputes the
// employee's score and the company's statistics in the same transaction.
func (s *Service) CreateReview(ctx context.Context, companyID id.CompanyID, req models.CreateRequest) (*models.Review, error) {
	ctx, span := tracer.Start(ctx, "review.Create", trace.WithAttributes(
		attribute.String("company_id", companyID.String()),
		attribute.String("employee_id", req.EmployeeID.String()),
	))
	defer span.End()

	now := requestcontext.Now(ctx)
	req.Normalize()

	if err := req.CheckWindow(now, s.window); err != nil {
		s.reject(ctx, companyID, req.EmployeeID, "window_exceeded")
		return nil, err
	}
	if err := req.Validate(now); err != nil {
		s.reject(ctx, companyID, req.EmployeeID, "validation")
		return nil, err
	}

	review := models.NewReview(companyID, req, now)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requireParties(ctx, companyID, req.EmployeeID); err != nil {
			return err
		}
		if err := s.store.Save(ctx, review); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save review")
		}
		return s.recompute(ctx, review.EmployeeID, review.CompanyID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.IncReviewsCreated()
	s.record(ctx, audit.KindReviewCreated, review)
	s.notify(ctx, review, notification.KindReviewReceived, "New review received",
		fmt.Sprintf("A former employer rated you %.1f out of 10.", review.AverageRating))
	s.logger.InfoContext(ctx, "review created",
		"review_id", review.ID.String(),
		"company_id", companyID.String(),
		"employee_id", review.EmployeeID.String(),
	)
	return review, nil
}

// UpdateReview applies a partial edit. Only the company that wrote the
// review may change it; a snapshot of the prior state is kept first.
func (s *Service) UpdateReview(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID, patch models.UpdateRequest) (*models.Review, error) {
	ctx, span := tracer.Start(ctx, "review.Update", trace.WithAttributes(
		attribute.String("review_id", reviewID.String()),
	))
	defer span.End()

	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	editor := requestcontext.PrincipalFrom(ctx).ID

	var review *models.Review
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		review, err = s.loadOwned(ctx, companyID, reviewID)
		if err != nil {
			return err
		}
		if !review.IsActive {
			return dErrors.New(dErrors.CodeNotFound, "review not found")
		}
		review.ApplyPatch(patch, editor, now)
		if err := s.store.Update(ctx, review); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update review")
		}
		return s.recompute(ctx, review.EmployeeID, review.CompanyID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.IncReviewsUpdated()
	s.record(ctx, audit.KindReviewUpdated, review)
	s.notify(ctx, review, notification.KindReviewUpdated, "Review updated",
		"A former employer edited their review of you.")
	return review, nil
}

// DeleteReview soft-deletes a review. Deleting an already deleted review
// succeeds without side effects.
func (s *Service) DeleteReview(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID) error {
	ctx, span := tracer.Start(ctx, "review.Delete", trace.WithAttributes(
		attribute.String("review_id", reviewID.String()),
	))
	defer span.End()

	now := requestcontext.Now(ctx)

	var (
		review  *models.Review
		changed bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		review, err = s.loadOwned(ctx, companyID, reviewID)
		if err != nil {
			return err
		}
		if changed = review.SoftDelete(now); !changed {
			return nil
		}
		if err := s.store.Update(ctx, review); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete review")
		}
		return s.recompute(ctx, review.EmployeeID, review.CompanyID)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !changed {
		return nil
	}

	s.metrics.IncReviewsDeleted()
	s.record(ctx, audit.KindReviewDeleted, review)
	s.notify(ctx, review, notification.KindReviewDeleted, "Review removed",
		"A former employer withdrew their review of you.")
	return nil
}

// GetReview returns an active review. Readers other than the employee and
// the authoring company only see it while the employee's profile is exposed.
func (s *Service) GetReview(ctx context.Context, reviewID id.ReviewID) (*models.Review, error) {
	review, err := s.store.FindByID(ctx, reviewID)
	if err != nil {
		return nil, translateNotFound(err, "review not found")
	}
	if !review.IsActive {
		return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
	}
	if authoredByCaller(ctx, review) {
		return review, nil
	}
	if _, err := s.gate.Require(ctx, review.EmployeeID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
		}
		return nil, err
	}
	return review, nil
}

// ListEmployeeReviews returns active reviews of the employee, newest first.
// A hidden employee reads as not found.
func (s *Service) ListEmployeeReviews(ctx context.Context, employeeID id.EmployeeID) ([]*models.Review, error) {
	if _, err := s.gate.Require(ctx, employeeID); err != nil {
		return nil, err
	}
	reviews, err := s.store.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reviews")
	}
	return reviews, nil
}

// ListCompanyReviews returns active reviews written by the company. Other
// callers only get reviews of exposed employees.
func (s *Service) ListCompanyReviews(ctx context.Context, companyID id.CompanyID) ([]*models.Review, error) {
	reviews, err := s.store.ListActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reviews")
	}
	if caller, ok := requestcontext.PrincipalFrom(ctx).CompanyID(); ok && caller == companyID {
		return reviews, nil
	}

	allowed := make(map[id.EmployeeID]bool)
	out := make([]*models.Review, 0, len(reviews))
	for _, r := range reviews {
		ok, seen := allowed[r.EmployeeID]
		if !seen {
			employee, err := s.employees.FindByID(ctx, r.EmployeeID)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employee")
			}
			ok = err == nil && s.gate.Allows(ctx, employee)
			allowed[r.EmployeeID] = ok
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func authoredByCaller(ctx context.Context, r *models.Review) bool {
	companyID, ok := requestcontext.PrincipalFrom(ctx).CompanyID()
	return ok && companyID == r.CompanyID
}

func (s *Service) requireParties(ctx context.Context, companyID id.CompanyID, employeeID id.EmployeeID) error {
	if s.companies != nil {
		if _, err := s.companies.FindByID(ctx, companyID); err != nil {
			return translateNotFound(err, "company not found")
		}
	}
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		return translateNotFound(err, "employee not found")
	}
	return nil
}

// loadOwned fetches a review and enforces that companyID wrote it.
func (s *Service) loadOwned(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID) (*models.Review, error) {
	review, err := s.store.FindByID(ctx, reviewID)
	if err != nil {
		return nil, translateNotFound(err, "review not found")
	}
	if review.CompanyID != companyID {
		s.recordOwnershipViolation(ctx, companyID, review)
		return nil, dErrors.New(dErrors.CodeForbidden, "review belongs to another company")
	}
	return review, nil
}

func (s *Service) recompute(ctx context.Context, employeeID id.EmployeeID, companyID id.CompanyID) error {
	if _, err := s.scorer.RecomputeEmployee(ctx, employeeID); err != nil {
		return err
	}
	_, err := s.scorer.RecomputeCompany(ctx, companyID)
	return err
}

func (s *Service) reject(ctx context.Context, companyID id.CompanyID, employeeID id.EmployeeID, reason string) {
	s.metrics.IncReviewsRejected(reason)
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Entry{
		Kind:    audit.KindReviewRejected,
		Outcome: audit.OutcomeFailure,
		Subject: employeeID.String(),
		Payload: audit.ReviewPayload{
			CompanyID:  companyID.String(),
			EmployeeID: employeeID.String(),
			Reason:     reason,
		},
	})
}

func (s *Service) record(ctx context.Context, kind audit.Kind, r *models.Review) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Entry{
		Kind:    kind,
		Outcome: audit.OutcomeSuccess,
		Subject: r.ID.String(),
		Payload: audit.ReviewPayload{
			ReviewID:      r.ID.String(),
			CompanyID:     r.CompanyID.String(),
			EmployeeID:    r.EmployeeID.String(),
			AverageRating: r.AverageRating,
		},
	})
}

func (s *Service) recordOwnershipViolation(ctx context.Context, companyID id.CompanyID, r *models.Review) {
	s.logger.WarnContext(ctx, "review ownership violation",
		"review_id", r.ID.String(),
		"company_id", companyID.String(),
	)
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Entry{
		Kind:    audit.KindOwnershipViolation,
		Outcome: audit.OutcomeWarning,
		Subject: r.ID.String(),
		Payload: audit.SecurityPayload{
			Reason:   "company " + companyID.String() + " attempted to modify a review it does not own",
			Severity: "medium",
		},
	})
}

func (s *Service) notify(ctx context.Context, r *models.Review, kind notification.Kind, title, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, notification.Notification{
		Recipient: r.EmployeeID.String(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		Subject:   r.ID.String(),
	})
}

func translateNotFound(err error, message string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, message)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "store failure")
}
