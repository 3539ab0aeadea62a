// Package service manages employee profiles and their external read paths
// (public profile, score and discovery search), all behind the consent gate.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"trustline/internal/consent"
	documentModels "trustline/internal/document/models"
	"trustline/internal/employee/models"
	"trustline/internal/scoring"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/requestcontext"
)

var tracer = otel.Tracer("trustline/employee")

const (
	DefaultSearchLimit = 20
	maxQueryLength     = 100
)

type Store interface {
	Save(ctx context.Context, e *models.Employee) error
	FindByID(ctx context.Context, employeeID id.EmployeeID) (*models.Employee, error)
	FindByUserID(ctx context.Context, userID id.UserID) (*models.Employee, error)
	Search(ctx context.Context, q models.SearchQuery) ([]*models.Employee, error)
}

type ScoreReader interface {
	GetEmployeeScore(ctx context.Context, employeeID id.EmployeeID) (*scoring.EmployeeScoreView, error)
}

type VerificationReader interface {
	GetVerificationSummary(ctx context.Context, employeeID id.EmployeeID) (*documentModels.VerificationSummary, error)
}

type AuditPublisher interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Profile is the owner's view: the record plus live score and verification.
type Profile struct {
	Employee     *models.Employee                    `json:"employee"`
	Score        *scoring.EmployeeScoreView          `json:"score"`
	Verification *documentModels.VerificationSummary `json:"verification"`
}

type SearchResult struct {
	Query   string                 `json:"query"`
	Results []models.PublicProfile `json:"results"`
}

type Service struct {
	store        Store
	gate         *consent.Gate
	scores       ScoreReader
	verification VerificationReader
	auditor      AuditPublisher
	logger       *slog.Logger
	searchLimit  int
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

func WithSearchLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.searchLimit = limit
		}
	}
}

func New(store Store, scores ScoreReader, verification VerificationReader, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("employee store is required")
	}
	if scores == nil || verification == nil {
		return nil, errors.New("score and verification readers are required")
	}
	s := &Service{
		store:        store,
		scores:       scores,
		verification: verification,
		logger:       slog.Default(),
		searchLimit:  DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gate = consent.NewGate(store, s.auditor)
	return s, nil
}

// Register creates the caller's employee profile. New profiles start hidden
// and without consent.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Employee, error) {
	principal := requestcontext.PrincipalFrom(ctx)
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	employee := models.NewEmployee(principal.ID, req, requestcontext.Now(ctx))
	if err := s.store.Save(ctx, employee); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an employee profile already exists for this user or email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save employee")
	}

	s.record(ctx, audit.KindProfileCreated, audit.OutcomeSuccess, employee.ID.String(), audit.ProfilePayload{
		ProfileID:  employee.ID.String(),
		ViewerRole: string(principal.Role),
	})
	s.logger.InfoContext(ctx, "employee registered", "employee_id", employee.ID.String())
	return employee, nil
}

func (s *Service) Get(ctx context.Context, employeeID id.EmployeeID) (*models.Employee, error) {
	employee, err := s.store.FindByID(ctx, employeeID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return employee, nil
}

// GetProfile loads the record, the score breakdown and the verification
// summary concurrently.
func (s *Service) GetProfile(ctx context.Context, employeeID id.EmployeeID) (*Profile, error) {
	ctx, span := tracer.Start(ctx, "employee.GetProfile")
	defer span.End()

	var profile Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile.Employee, err = s.Get(gctx, employeeID)
		return err
	})
	g.Go(func() error {
		var err error
		profile.Score, err = s.scores.GetEmployeeScore(gctx, employeeID)
		return err
	})
	g.Go(func() error {
		var err error
		profile.Verification, err = s.verification.GetVerificationSummary(gctx, employeeID)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &profile, nil
}

// GetScore returns the score view behind the consent gate and records who
// looked at it.
func (s *Service) GetScore(ctx context.Context, employeeID id.EmployeeID) (*scoring.EmployeeScoreView, error) {
	if _, err := s.gate.Require(ctx, employeeID); err != nil {
		return nil, err
	}
	view, err := s.scores.GetEmployeeScore(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.KindScoreViewed, audit.OutcomeSuccess, employeeID.String(), audit.ProfilePayload{
		ProfileID:  employeeID.String(),
		ViewerRole: string(requestcontext.PrincipalFrom(ctx).Role),
	})
	return view, nil
}

// GetPublicProfile returns the externally visible profile. A profile the
// gate blocks is reported as not found so its existence does not leak.
func (s *Service) GetPublicProfile(ctx context.Context, employeeID id.EmployeeID) (*models.PublicProfile, error) {
	employee, err := s.gate.Require(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.KindProfileViewed, audit.OutcomeSuccess, employeeID.String(), audit.ProfilePayload{
		ProfileID:  employeeID.String(),
		ViewerRole: string(requestcontext.PrincipalFrom(ctx).Role),
	})
	public := employee.Public()
	return &public, nil
}

// Search matches name, headline and skills among exposed profiles only.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	ctx, span := tracer.Start(ctx, "employee.Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if len(query) > maxQueryLength {
		return nil, dErrors.Validation("invalid search", map[string]string{
			"q": "must be at most 100 characters",
		})
	}

	matches, err := s.store.Search(ctx, models.SearchQuery{
		Term:          query,
		Limit:         s.searchLimit,
		ExposableOnly: true,
	})
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search employees")
	}

	result := &SearchResult{Query: query, Results: make([]models.PublicProfile, 0, len(matches))}
	for _, e := range matches {
		result.Results = append(result.Results, e.Public())
	}

	s.record(ctx, audit.KindSearchPerformed, audit.OutcomeSuccess, "", audit.SearchPayload{
		Query:       query,
		ResultCount: len(result.Results),
	})
	return result, nil
}

func (s *Service) record(ctx context.Context, kind audit.Kind, outcome audit.Outcome, subject string, payload audit.Payload) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Entry{
		Kind:    kind,
		Outcome: outcome,
		Subject: subject,
		Payload: payload,
	})
}

func translateNotFound(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "employee not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employee")
}
