// Package consent is the visibility gate: it records an employee's consent
// and profile visibility and decides whether a profile may be exposed on
// external read paths.
package consent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	employeeModels "trustline/internal/employee/models"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/requestcontext"
)

// EmployeeStore is the slice of the employee store the gate owns.
type EmployeeStore interface {
	FindByID(ctx context.Context, employeeID id.EmployeeID) (*employeeModels.Employee, error)
	UpdateConsent(ctx context.Context, employeeID id.EmployeeID, u employeeModels.ConsentUpdate, now time.Time) error
}

type AuditPublisher interface {
	Record(ctx context.Context, entry audit.Entry)
}

type Service struct {
	employees EmployeeStore
	auditor   AuditPublisher
	logger    *slog.Logger
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

func NewService(employees EmployeeStore, opts ...Option) (*Service, error) {
	if employees == nil {
		return nil, errors.New("employee store is required")
	}
	s := &Service{employees: employees, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CanExpose reports whether an employee's profile may be shown to anyone
// other than the employee.
func CanExpose(e *employeeModels.Employee) bool {
	return e != nil && e.ProfileVisible && e.ConsentGiven
}

// GrantConsent records consent with the request time. Granting again
// refreshes the timestamp.
func (s *Service) GrantConsent(ctx context.Context, employeeID id.EmployeeID) (*State, error) {
	now := requestcontext.Now(ctx)
	return s.apply(ctx, employeeID, audit.KindConsentGranted, func(u *employeeModels.ConsentUpdate) {
		u.ConsentGiven = true
		u.ConsentGivenAt = &now
	}, func(employeeID string) audit.Payload {
		return audit.ConsentPayload{EmployeeID: employeeID, Granted: audit.Bool(true)}
	})
}

func (s *Service) RevokeConsent(ctx context.Context, employeeID id.EmployeeID) (*State, error) {
	return s.apply(ctx, employeeID, audit.KindConsentRevoked, func(u *employeeModels.ConsentUpdate) {
		u.ConsentGiven = false
		u.ConsentGivenAt = nil
	}, func(employeeID string) audit.Payload {
		return audit.ConsentPayload{EmployeeID: employeeID, Granted: audit.Bool(false)}
	})
}

func (s *Service) SetProfileVisibility(ctx context.Context, employeeID id.EmployeeID, visible bool) (*State, error) {
	return s.apply(ctx, employeeID, audit.KindProfileVisibilityChanged, func(u *employeeModels.ConsentUpdate) {
		u.ProfileVisible = visible
	}, func(employeeID string) audit.Payload {
		return audit.ProfilePayload{ProfileID: employeeID, Visible: audit.Bool(visible)}
	})
}

func (s *Service) GetState(ctx context.Context, employeeID id.EmployeeID) (*State, error) {
	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return stateOf(employee), nil
}

func (s *Service) apply(
	ctx context.Context,
	employeeID id.EmployeeID,
	kind audit.Kind,
	mutate func(*employeeModels.ConsentUpdate),
	payload func(employeeID string) audit.Payload,
) (*State, error) {
	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		return nil, translateNotFound(err)
	}

	update := employeeModels.ConsentUpdate{
		ConsentGiven:   employee.ConsentGiven,
		ConsentGivenAt: employee.ConsentGivenAt,
		ProfileVisible: employee.ProfileVisible,
	}
	mutate(&update)

	now := requestcontext.Now(ctx)
	if err := s.employees.UpdateConsent(ctx, employeeID, update, now); err != nil {
		return nil, translateNotFound(err)
	}
	employee.ConsentGiven = update.ConsentGiven
	employee.ConsentGivenAt = update.ConsentGivenAt
	employee.ProfileVisible = update.ProfileVisible

	s.logger.InfoContext(ctx, string(kind),
		"employee_id", employeeID.String(),
		"consent_given", update.ConsentGiven,
		"profile_visible", update.ProfileVisible,
	)
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Entry{
			Kind:    kind,
			Outcome: audit.OutcomeSuccess,
			Subject: employeeID.String(),
			Payload: payload(employeeID.String()),
		})
	}
	return stateOf(employee), nil
}

func stateOf(e *employeeModels.Employee) *State {
	return &State{
		EmployeeID:     e.ID,
		ConsentGiven:   e.ConsentGiven,
		ConsentGivenAt: e.ConsentGivenAt,
		ProfileVisible: e.ProfileVisible,
		Exposed:        CanExpose(e),
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "employee not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update consent")
}
