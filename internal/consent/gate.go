package consent

import (
	"context"
	"errors"

	employeeModels "trustline/internal/employee/models"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/requestcontext"
)

const blockedReason = "profile hidden or consent not given"

type EmployeeReader interface {
	FindByID(ctx context.Context, employeeID id.EmployeeID) (*employeeModels.Employee, error)
}

// Gate guards every read of an employee's data by someone other than the
// employee. Blocked reads look exactly like reads of a missing employee.
type Gate struct {
	employees EmployeeReader
	auditor   AuditPublisher
}

// NewGate builds a gate; auditor may be nil.
func NewGate(employees EmployeeReader, auditor AuditPublisher) *Gate {
	return &Gate{employees: employees, auditor: auditor}
}

// Allows reports whether the caller in ctx may see e. The employee always
// sees their own data.
func (g *Gate) Allows(ctx context.Context, e *employeeModels.Employee) bool {
	if e == nil {
		return false
	}
	if self, ok := requestcontext.PrincipalFrom(ctx).EmployeeID(); ok && self == e.ID {
		return true
	}
	return CanExpose(e)
}

// Require loads the employee and returns it when the caller may see it. A
// blocked read records a profile_viewed warning and returns CodeNotFound.
func (g *Gate) Require(ctx context.Context, employeeID id.EmployeeID) (*employeeModels.Employee, error) {
	employee, err := g.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employee")
	}
	if !g.Allows(ctx, employee) {
		g.RecordBlocked(ctx, employeeID)
		return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
	}
	return employee, nil
}

func (g *Gate) RecordBlocked(ctx context.Context, employeeID id.EmployeeID) {
	if g.auditor == nil {
		return
	}
	g.auditor.Record(ctx, audit.Entry{
		Kind:    audit.KindProfileViewed,
		Outcome: audit.OutcomeWarning,
		Subject: employeeID.String(),
		Payload: audit.ProfilePayload{
			ProfileID:  employeeID.String(),
			ViewerRole: string(requestcontext.PrincipalFrom(ctx).Role),
			Reason:     blockedReason,
		},
	})
}
