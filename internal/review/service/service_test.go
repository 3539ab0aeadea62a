package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AuditPublisher,Notifier

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	companyModels "trustline/internal/company/models"
	companyStore "trustline/internal/company/store"
	employeeModels "trustline/internal/employee/models"
	employeeStore "trustline/internal/employee/store"
	"trustline/internal/notification"
	"trustline/internal/review/models"
	"trustline/internal/review/service/mocks"
	reviewStore "trustline/internal/review/store"
	"trustline/internal/scoring"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/tx"
	"trustline/pkg/requestcontext"
)

// ServiceSuite runs the ledger against the in-memory stores and the real
// aggregator so recompute effects are observable.
type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	auditor   *mocks.MockAuditPublisher
	notifier  *mocks.MockNotifier
	reviews   *reviewStore.InMemoryStore
	employees *employeeStore.InMemoryStore
	companies *companyStore.InMemoryStore
	service   *Service

	now      time.Time
	employee *employeeModels.Employee
	company  *companyModels.Company
	rival    *companyModels.Company
	entries  []audit.Entry
	notices  []notification.Notification
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.entries = nil
	s.notices = nil
	s.auditor.EXPECT().Record(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, e audit.Entry) { s.entries = append(s.entries, e) }).AnyTimes()
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, n notification.Notification) { s.notices = append(s.notices, n) }).AnyTimes()

	s.reviews = reviewStore.NewInMemory()
	s.employees = employeeStore.NewInMemory()
	s.companies = companyStore.NewInMemory()
	scorer := scoring.NewService(s.reviews, s.employees, s.companies)

	var err error
	s.service, err = New(s.reviews, s.companies, s.employees, scorer, tx.NewMemoryRunner(),
		WithAuditPublisher(s.auditor),
		WithNotifier(s.notifier),
	)
	s.Require().NoError(err)

	s.now = time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()
	s.employee = employeeModels.NewEmployee(id.NewUserID(), employeeModels.RegisterRequest{
		FullName: "Ravi Kumar", Email: "ravi@example.com",
	}, s.now)
	s.Require().NoError(s.employees.Save(ctx, s.employee))
	s.company = companyModels.NewCompany(id.NewUserID(), companyModels.RegisterRequest{Name: "Acme"}, s.now)
	s.Require().NoError(s.companies.Save(ctx, s.company))
	s.rival = companyModels.NewCompany(id.NewUserID(), companyModels.RegisterRequest{Name: "Globex"}, s.now)
	s.Require().NoError(s.companies.Save(ctx, s.rival))
}

func (s *ServiceSuite) ctxFor(company *companyModels.Company) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithPrincipal(ctx, requestcontext.Principal{
		ID:        company.OwnerUserID,
		Role:      requestcontext.RoleCompany,
		ProfileID: uuid.UUID(company.ID),
	})
}

func (s *ServiceSuite) ctxForEmployee() context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithPrincipal(ctx, requestcontext.Principal{
		ID:        s.employee.UserID,
		Role:      requestcontext.RoleEmployee,
		ProfileID: uuid.UUID(s.employee.ID),
	})
}

func (s *ServiceSuite) setExposed(exposed bool) {
	var at *time.Time
	if exposed {
		at = &s.now
	}
	s.Require().NoError(s.employees.UpdateConsent(context.Background(), s.employee.ID, employeeModels.ConsentUpdate{
		ConsentGiven:   exposed,
		ConsentGivenAt: at,
		ProfileVisible: exposed,
	}, s.now))
}

func uniform(v int) models.Ratings {
	return models.Ratings{
		TechnicalSkills: v, Communication: v, Teamwork: v, ProblemSolving: v,
		Punctuality: v, Leadership: v, Integrity: v, WorkQuality: v,
	}
}

func (s *ServiceSuite) validRequest() models.CreateRequest {
	return models.CreateRequest{
		EmployeeID: s.employee.ID,
		Ratings:    uniform(8),
		Employment: models.EmploymentDetails{
			Designation:    "Backend Engineer",
			StartDate:      s.now.AddDate(-2, 0, 0),
			EndDate:        s.now.AddDate(0, 0, -10),
			EmploymentType: models.EmploymentFullTime,
		},
		Comment:     strings.Repeat("Dependable engineer with strong ownership. ", 2),
		WouldRehire: true,
	}
}

func (s *ServiceSuite) kinds() []audit.Kind {
	out := make([]audit.Kind, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Kind)
	}
	return out
}

func (s *ServiceSuite) TestNew() {
	_, err := New(nil, s.companies, s.employees, nil, tx.NewMemoryRunner())
	s.Require().Error(err)
	s.Contains(err.Error(), "review store is required")

	_, err = New(s.reviews, s.companies, nil, nil, tx.NewMemoryRunner())
	s.Require().Error(err)
	s.Contains(err.Error(), "employee lookup is required")
}

func (s *ServiceSuite) TestCreateReview() {
	s.Run("single review of all eights scores 80", func() {
		review, err := s.service.CreateReview(s.ctxFor(s.company), s.company.ID, s.validRequest())
		s.Require().NoError(err)
		s.Equal(8.0, review.AverageRating)
		s.True(review.IsActive)
		s.Empty(review.EditHistory)

		employee, err := s.employees.FindByID(context.Background(), s.employee.ID)
		s.Require().NoError(err)
		s.Equal(80, employee.OverallScore)
		s.Equal(1, employee.TotalReviews)

		company, err := s.companies.FindByID(context.Background(), s.company.ID)
		s.Require().NoError(err)
		s.Equal(1, company.ReviewCount)
		s.Equal(8.0, company.AverageRating)

		s.Equal([]audit.Kind{audit.KindReviewCreated}, s.kinds())
		s.Require().Len(s.notices, 1)
		s.Equal(s.employee.ID.String(), s.notices[0].Recipient)
		s.Equal(notification.KindReviewReceived, s.notices[0].Kind)
	})
}

func (s *ServiceSuite) TestCreateReview_Validation() {
	tests := []struct {
		name   string
		mutate func(*models.CreateRequest)
		field  string
	}{
		{"rating above range", func(r *models.CreateRequest) { r.Ratings.Teamwork = 11 }, "ratings.teamwork"},
		{"rating below range", func(r *models.CreateRequest) { r.Ratings.Integrity = 0 }, "ratings.integrity"},
		{"short comment", func(r *models.CreateRequest) { r.Comment = "Too short." }, "comment"},
		{"comment padded with spaces", func(r *models.CreateRequest) { r.Comment = "  short  " + strings.Repeat(" ", 60) }, "comment"},
		{"missing designation", func(r *models.CreateRequest) { r.Employment.Designation = " " }, "employment_details.designation"},
		{"unknown employment type", func(r *models.CreateRequest) { r.Employment.EmploymentType = "freelance" }, "employment_details.employment_type"},
		{"end before start", func(r *models.CreateRequest) { r.Employment.StartDate = r.Employment.EndDate.Add(time.Hour) }, "employment_details.end_date"},
		{"end in the future", func(r *models.CreateRequest) { r.Employment.EndDate = s.now.Add(time.Hour) }, "employment_details.end_date"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := s.validRequest()
			tt.mutate(&req)

			_, err := s.service.CreateReview(s.ctxFor(s.company), s.company.ID, req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
			s.Contains(dErrors.FieldsOf(err), tt.field)
		})
	}

	reviews, err := s.reviews.ListActiveByEmployee(context.Background(), s.employee.ID)
	s.Require().NoError(err)
	s.Empty(reviews, "rejected reviews are never persisted")
}

func (s *ServiceSuite) TestCreateReview_Window() {
	s.Run("sixteen days after employment is rejected even with bad ratings", func() {
		req := s.validRequest()
		req.Employment.EndDate = s.now.AddDate(0, 0, -16)
		req.Ratings.Teamwork = 42

		_, err := s.service.CreateReview(s.ctxFor(s.company), s.company.ID, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeWindowExceeded))
		s.Contains(s.kinds(), audit.KindReviewRejected)
	})

	s.Run("exactly fifteen days is accepted", func() {
		req := s.validRequest()
		req.Employment.EndDate = s.now.AddDate(0, 0, -15)

		_, err := s.service.CreateReview(s.ctxFor(s.company), s.company.ID, req)
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestCreateReview_UnknownParties() {
	s.Run("unknown employee", func() {
		req := s.validRequest()
		req.EmployeeID = id.NewEmployeeID()
		_, err := s.service.CreateReview(s.ctxFor(s.company), s.company.ID, req)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown company", func() {
		_, err := s.service.CreateReview(s.ctxFor(s.company), id.NewCompanyID(), s.validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestUpdateReview() {
	ctx := s.ctxFor(s.company)
	review, err := s.service.CreateReview(ctx, s.company.ID, s.validRequest())
	s.Require().NoError(err)
	original := review.Comment

	s.Run("other company is forbidden", func() {
		ratings := uniform(1)
		_, err := s.service.UpdateReview(s.ctxFor(s.rival), s.rival.ID, review.ID, models.UpdateRequest{Ratings: &ratings})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Contains(s.kinds(), audit.KindOwnershipViolation)
	})

	s.Run("empty patch is rejected", func() {
		_, err := s.service.UpdateReview(ctx, s.company.ID, review.ID, models.UpdateRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("each update appends exactly one snapshot", func() {
		ratings := uniform(6)
		updated, err := s.service.UpdateReview(ctx, s.company.ID, review.ID, models.UpdateRequest{Ratings: &ratings})
		s.Require().NoError(err)
		s.Require().Len(updated.EditHistory, 1)
		s.Equal(uniform(8), updated.EditHistory[0].PreviousRatings)
		s.Equal(original, updated.EditHistory[0].PreviousComment)
		s.Equal(s.company.OwnerUserID, updated.EditHistory[0].EditedBy)

		comment := strings.Repeat("Revised assessment after a second look at output. ", 2)
		again, err := s.service.UpdateReview(ctx, s.company.ID, review.ID, models.UpdateRequest{Comment: &comment})
		s.Require().NoError(err)
		s.Require().Len(again.EditHistory, 2)
		s.Equal(updated.EditHistory[0], again.EditHistory[0], "earlier entries are never rewritten")
		s.Equal(uniform(6), again.EditHistory[1].PreviousRatings)

		employee, err := s.employees.FindByID(context.Background(), s.employee.ID)
		s.Require().NoError(err)
		s.Equal(60, employee.OverallScore)
	})

	s.Run("deleted review is not found", func() {
		s.Require().NoError(s.service.DeleteReview(ctx, s.company.ID, review.ID))
		rehire := false
		_, err := s.service.UpdateReview(ctx, s.company.ID, review.ID, models.UpdateRequest{WouldRehire: &rehire})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDeleteReview() {
	s.setExposed(true)
	ctx := s.ctxFor(s.company)
	review, err := s.service.CreateReview(ctx, s.company.ID, s.validRequest())
	s.Require().NoError(err)

	s.Run("other company is forbidden", func() {
		err := s.service.DeleteReview(s.ctxFor(s.rival), s.rival.ID, review.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("deleting the only review resets the score", func() {
		s.Require().NoError(s.service.DeleteReview(ctx, s.company.ID, review.ID))

		employee, err := s.employees.FindByID(context.Background(), s.employee.ID)
		s.Require().NoError(err)
		s.Equal(0, employee.OverallScore)
		s.Equal(0, employee.TotalReviews)

		company, err := s.companies.FindByID(context.Background(), s.company.ID)
		s.Require().NoError(err)
		s.Equal(0, company.ReviewCount)

		listed, err := s.service.ListEmployeeReviews(ctx, s.employee.ID)
		s.Require().NoError(err)
		s.Empty(listed)

		_, err = s.service.GetReview(ctx, review.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("second delete is a no-op", func() {
		before := len(s.entries)
		s.Require().NoError(s.service.DeleteReview(ctx, s.company.ID, review.ID))
		s.Len(s.entries, before)
	})

	s.Run("unknown review is not found", func() {
		err := s.service.DeleteReview(ctx, s.company.ID, id.NewReviewID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListReviews() {
	s.setExposed(true)
	ctx := s.ctxFor(s.company)
	first, err := s.service.CreateReview(ctx, s.company.ID, s.validRequest())
	s.Require().NoError(err)

	later := requestcontext.WithTime(ctx, s.now.Add(time.Minute))
	second, err := s.service.CreateReview(later, s.company.ID, s.validRequest())
	s.Require().NoError(err)

	byEmployee, err := s.service.ListEmployeeReviews(ctx, s.employee.ID)
	s.Require().NoError(err)
	s.Require().Len(byEmployee, 2)
	s.Equal(second.ID, byEmployee[0].ID)
	s.Equal(first.ID, byEmployee[1].ID)

	byCompany, err := s.service.ListCompanyReviews(ctx, s.company.ID)
	s.Require().NoError(err)
	s.Len(byCompany, 2)

	byRival, err := s.service.ListCompanyReviews(ctx, s.rival.ID)
	s.Require().NoError(err)
	s.Empty(byRival)
}

func (s *ServiceSuite) TestReadsRespectConsentGate() {
	review, err := s.service.CreateReview(s.ctxFor(s.company), s.company.ID, s.validRequest())
	s.Require().NoError(err)
	s.setExposed(false)
	outsider := s.ctxFor(s.rival)

	s.Run("hidden employee's reviews read as not found", func() {
		s.entries = nil
		_, err := s.service.ListEmployeeReviews(outsider, s.employee.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Require().Len(s.entries, 1)
		s.Equal(audit.KindProfileViewed, s.entries[0].Kind)
		s.Equal(audit.OutcomeWarning, s.entries[0].Outcome)
	})

	s.Run("single review is hidden from other companies", func() {
		_, err := s.service.GetReview(outsider, review.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("company listing drops hidden employees for outsiders", func() {
		listed, err := s.service.ListCompanyReviews(outsider, s.company.ID)
		s.Require().NoError(err)
		s.Empty(listed)
	})

	s.Run("authoring company still sees its own review", func() {
		got, err := s.service.GetReview(s.ctxFor(s.company), review.ID)
		s.Require().NoError(err)
		s.Equal(review.ID, got.ID)

		listed, err := s.service.ListCompanyReviews(s.ctxFor(s.company), s.company.ID)
		s.Require().NoError(err)
		s.Len(listed, 1)
	})

	s.Run("employee reads their own reviews", func() {
		listed, err := s.service.ListEmployeeReviews(s.ctxForEmployee(), s.employee.ID)
		s.Require().NoError(err)
		s.Len(listed, 1)

		_, err = s.service.GetReview(s.ctxForEmployee(), review.ID)
		s.Require().NoError(err)
	})

	s.Run("exposed employee is readable by anyone", func() {
		s.setExposed(true)
		listed, err := s.service.ListEmployeeReviews(outsider, s.employee.ID)
		s.Require().NoError(err)
		s.Len(listed, 1)

		byCompany, err := s.service.ListCompanyReviews(outsider, s.company.ID)
		s.Require().NoError(err)
		s.Len(byCompany, 1)
	})
}
