package scoring

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	companyModels "trustline/internal/company/models"
	employeeModels "trustline/internal/employee/models"
	"trustline/internal/platform/metrics"
	"trustline/internal/review/models"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/requestcontext"
)

var tracer = otel.Tracer("trustline/scoring")

// ReviewReader lists the active review set.
type ReviewReader interface {
	ListActiveByEmployee(ctx context.Context, employeeID id.EmployeeID) ([]*models.Review, error)
	ListActiveByCompany(ctx context.Context, companyID id.CompanyID) ([]*models.Review, error)
}

type EmployeeStore interface {
	FindByID(ctx context.Context, employeeID id.EmployeeID) (*employeeModels.Employee, error)
	UpdateScore(ctx context.Context, employeeID id.EmployeeID, u employeeModels.ScoreUpdate, now time.Time) error
}

type CompanyStore interface {
	FindByID(ctx context.Context, companyID id.CompanyID) (*companyModels.Company, error)
	UpdateStats(ctx context.Context, companyID id.CompanyID, u companyModels.StatsUpdate, now time.Time) error
}

// Service recomputes derived scores eagerly. Callers run it inside the same
// transaction as the review mutation that triggered it.
type Service struct {
	reviews       ReviewReader
	employees     EmployeeStore
	companies     CompanyStore
	logger        *slog.Logger
	metrics       *metrics.Metrics
	recencyWindow time.Duration
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

func WithRecencyWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recencyWindow = d
		}
	}
}

func NewService(reviews ReviewReader, employees EmployeeStore, companies CompanyStore, opts ...Option) *Service {
	s := &Service{
		reviews:       reviews,
		employees:     employees,
		companies:     companies,
		logger:        slog.Default(),
		recencyWindow: DefaultRecencyWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecomputeEmployee rebuilds the employee's overall score and review count
// from the current active set.
func (s *Service) RecomputeEmployee(ctx context.Context, employeeID id.EmployeeID) (Score, error) {
	ctx, span := tracer.Start(ctx, "scoring.RecomputeEmployee",
		trace.WithAttributes(attribute.String("employee_id", employeeID.String())))
	defer span.End()
	defer s.metrics.ObserveRecompute("employee", time.Now())

	reviews, err := s.reviews.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		span.RecordError(err)
		return Score{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reviews")
	}
	score := EmployeeScore(reviews)

	update := employeeModels.ScoreUpdate{OverallScore: score.OverallScore, TotalReviews: score.TotalReviews}
	if err := s.employees.UpdateScore(ctx, employeeID, update, requestcontext.Now(ctx)); err != nil {
		span.RecordError(err)
		if errors.Is(err, sentinel.ErrNotFound) {
			return Score{}, dErrors.New(dErrors.CodeNotFound, "employee not found")
		}
		return Score{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store employee score")
	}

	s.logger.DebugContext(ctx, "employee score recomputed",
		"employee_id", employeeID.String(),
		"overall_score", score.OverallScore,
		"total_reviews", score.TotalReviews,
	)
	return score, nil
}

// RecomputeCompany rebuilds review count, average rating, reputation and
// last review time for the company.
func (s *Service) RecomputeCompany(ctx context.Context, companyID id.CompanyID) (companyModels.StatsUpdate, error) {
	ctx, span := tracer.Start(ctx, "scoring.RecomputeCompany",
		trace.WithAttributes(attribute.String("company_id", companyID.String())))
	defer span.End()
	defer s.metrics.ObserveRecompute("company", time.Now())

	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, sentinel.ErrNotFound) {
			return companyModels.StatsUpdate{}, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return companyModels.StatsUpdate{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
	}
	reviews, err := s.reviews.ListActiveByCompany(ctx, companyID)
	if err != nil {
		span.RecordError(err)
		return companyModels.StatsUpdate{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reviews")
	}

	now := requestcontext.Now(ctx)
	in := ReputationInput{Verified: company.Verified}
	var lastReviewAt *time.Time
	for _, r := range reviews {
		in.ReviewAverages = append(in.ReviewAverages, AverageRating(r.Ratings))
		in.CreatedAts = append(in.CreatedAts, r.CreatedAt)
		if lastReviewAt == nil || r.CreatedAt.After(*lastReviewAt) {
			t := r.CreatedAt
			lastReviewAt = &t
		}
	}

	update := companyModels.StatsUpdate{
		ReviewCount:     len(reviews),
		AverageRating:   MeanAverage(in.ReviewAverages),
		ReputationScore: CompanyReputation(in, now, s.recencyWindow),
		LastReviewAt:    lastReviewAt,
	}
	if err := s.companies.UpdateStats(ctx, companyID, update, now); err != nil {
		span.RecordError(err)
		return companyModels.StatsUpdate{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store company statistics")
	}
	return update, nil
}

// EmployeeScoreView is the read model for an employee's score.
type EmployeeScoreView struct {
	EmployeeID   id.EmployeeID      `json:"employee_id"`
	OverallScore int                `json:"overall_score"`
	TotalReviews int                `json:"total_reviews"`
	Breakdown    map[string]float64 `json:"breakdown"`
}

// GetEmployeeScore reads the stored score and computes the per-parameter
// breakdown from the active set.
func (s *Service) GetEmployeeScore(ctx context.Context, employeeID id.EmployeeID) (*EmployeeScoreView, error) {
	ctx, span := tracer.Start(ctx, "scoring.GetEmployeeScore")
	defer span.End()

	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employee")
	}
	reviews, err := s.reviews.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reviews")
	}
	return &EmployeeScoreView{
		EmployeeID:   employeeID,
		OverallScore: employee.OverallScore,
		TotalReviews: employee.TotalReviews,
		Breakdown:    EmployeeScore(reviews).Breakdown,
	}, nil
}
