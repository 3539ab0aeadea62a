package consent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	employeeModels "trustline/internal/employee/models"
	employeeStore "trustline/internal/employee/store"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/requestcontext"
)

type recordingAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAuditor) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingAuditor) last() audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

type ServiceSuite struct {
	suite.Suite
	employees *employeeStore.InMemoryStore
	auditor   *recordingAuditor
	service   *Service
	employee  *employeeModels.Employee
	ctx       context.Context
	now       time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.employees = employeeStore.NewInMemory()
	s.auditor = &recordingAuditor{}

	var err error
	s.service, err = NewService(s.employees, WithAuditPublisher(s.auditor))
	s.Require().NoError(err)

	s.employee = employeeModels.NewEmployee(id.NewUserID(), employeeModels.RegisterRequest{
		FullName: "Meera Iyer", Email: "meera@example.com",
	}, s.now)
	s.Require().NoError(s.employees.Save(s.ctx, s.employee))
}

func (s *ServiceSuite) TestCanExpose() {
	tests := []struct {
		name    string
		visible bool
		consent bool
		want    bool
	}{
		{"hidden without consent", false, false, false},
		{"visible without consent", true, false, false},
		{"consent but hidden", false, true, false},
		{"visible with consent", true, true, true},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			e := &employeeModels.Employee{ProfileVisible: tt.visible, ConsentGiven: tt.consent}
			s.Equal(tt.want, CanExpose(e))
		})
	}
	s.False(CanExpose(nil))
}

func (s *ServiceSuite) TestGrantAndRevoke() {
	state, err := s.service.GrantConsent(s.ctx, s.employee.ID)
	s.Require().NoError(err)
	s.True(state.ConsentGiven)
	s.Require().NotNil(state.ConsentGivenAt)
	s.Equal(s.now, *state.ConsentGivenAt)
	s.False(state.Exposed, "visibility is still off")

	entry := s.auditor.last()
	s.Equal(audit.KindConsentGranted, entry.Kind)
	s.Equal(audit.CategoryConsent, entry.Payload.Category())

	state, err = s.service.SetProfileVisibility(s.ctx, s.employee.ID, true)
	s.Require().NoError(err)
	s.True(state.Exposed)

	state, err = s.service.RevokeConsent(s.ctx, s.employee.ID)
	s.Require().NoError(err)
	s.False(state.ConsentGiven)
	s.Nil(state.ConsentGivenAt)
	s.True(state.ProfileVisible, "revoking consent leaves the visibility flag alone")
	s.False(state.Exposed)

	stored, err := s.employees.FindByID(s.ctx, s.employee.ID)
	s.Require().NoError(err)
	s.False(CanExpose(stored))
	s.Len(s.auditor.entries, 3)
}

func (s *ServiceSuite) TestUnknownEmployee() {
	_, err := s.service.GrantConsent(s.ctx, id.NewEmployeeID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.GetState(s.ctx, id.NewEmployeeID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Empty(s.auditor.entries)
}
