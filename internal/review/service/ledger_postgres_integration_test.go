//go:build integration

package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	companyModels "trustline/internal/company/models"
	companyStore "trustline/internal/company/store"
	employeeModels "trustline/internal/employee/models"
	employeeStore "trustline/internal/employee/store"
	"trustline/internal/review/models"
	"trustline/internal/review/service"
	reviewStore "trustline/internal/review/store"
	"trustline/internal/scoring"
	id "trustline/pkg/domain"
	"trustline/pkg/platform/tx"
	"trustline/pkg/requestcontext"
	"trustline/pkg/testutil/containers"
)

// LedgerPostgresSuite runs the ledger end to end against Postgres so the
// recomputes share the review write's transaction.
type LedgerPostgresSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	employees *employeeStore.PostgresStore
	companies *companyStore.PostgresStore
	reviews   *reviewStore.PostgresStore
	ledger    *service.Service

	now      time.Time
	employee *employeeModels.Employee
	company  *companyModels.Company
}

func TestLedgerPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(LedgerPostgresSuite))
}

func (s *LedgerPostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.employees = employeeStore.NewPostgres(s.postgres.DB)
	s.companies = companyStore.NewPostgres(s.postgres.DB)
	s.reviews = reviewStore.NewPostgres(s.postgres.DB)

	scorer := scoring.NewService(s.reviews, s.employees, s.companies)
	var err error
	s.ledger, err = service.New(s.reviews, s.companies, s.employees, scorer, tx.NewPostgresRunner(s.postgres.DB))
	s.Require().NoError(err)
}

func (s *LedgerPostgresSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "documents", "reviews", "employees", "companies"))

	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.employee = employeeModels.NewEmployee(id.NewUserID(), employeeModels.RegisterRequest{
		FullName: "Ravi Kumar", Email: "ravi-" + uuid.NewString()[:8] + "@example.com",
	}, s.now)
	s.Require().NoError(s.employees.Save(ctx, s.employee))
	s.company = companyModels.NewCompany(id.NewUserID(), companyModels.RegisterRequest{Name: "Acme " + uuid.NewString()[:8]}, s.now)
	s.Require().NoError(s.companies.Save(ctx, s.company))
}

func (s *LedgerPostgresSuite) ctx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithPrincipal(ctx, requestcontext.Principal{
		ID:        s.company.OwnerUserID,
		Role:      requestcontext.RoleCompany,
		ProfileID: uuid.UUID(s.company.ID),
	})
}

func (s *LedgerPostgresSuite) request(rating int) models.CreateRequest {
	return models.CreateRequest{
		EmployeeID: s.employee.ID,
		Ratings: models.Ratings{
			TechnicalSkills: rating, Communication: rating, Teamwork: rating, ProblemSolving: rating,
			Punctuality: rating, Leadership: rating, Integrity: rating, WorkQuality: rating,
		},
		Employment: models.EmploymentDetails{
			Designation:    "Backend Engineer",
			StartDate:      s.now.AddDate(-2, 0, 0),
			EndDate:        s.now.AddDate(0, 0, -3),
			EmploymentType: models.EmploymentFullTime,
		},
		Comment:     strings.Repeat("Reliable, thorough and easy to work with. ", 2),
		WouldRehire: true,
	}
}

func (s *LedgerPostgresSuite) TestCreateEditDelete() {
	ctx := s.ctx()

	review, err := s.ledger.CreateReview(ctx, s.company.ID, s.request(8))
	s.Require().NoError(err)

	employee, err := s.employees.FindByID(ctx, s.employee.ID)
	s.Require().NoError(err)
	s.Equal(80, employee.OverallScore)
	s.Equal(1, employee.TotalReviews)

	company, err := s.companies.FindByID(ctx, s.company.ID)
	s.Require().NoError(err)
	s.Equal(1, company.ReviewCount)
	s.InDelta(8.0, company.AverageRating, 0.001)

	comment := strings.Repeat("Revised after a second look at the project. ", 2)
	_, err = s.ledger.UpdateReview(ctx, s.company.ID, review.ID, models.UpdateRequest{Comment: &comment})
	s.Require().NoError(err)
	stored, err := s.reviews.FindByID(ctx, review.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.EditHistory, 1)
	s.Equal(review.Comment, stored.EditHistory[0].PreviousComment)
	s.Equal(strings.TrimSpace(comment), stored.Comment)

	s.Require().NoError(s.ledger.DeleteReview(ctx, s.company.ID, review.ID))
	employee, err = s.employees.FindByID(ctx, s.employee.ID)
	s.Require().NoError(err)
	s.Zero(employee.OverallScore)
	s.Zero(employee.TotalReviews)

	active, err := s.reviews.ListActiveByEmployee(ctx, s.employee.ID)
	s.Require().NoError(err)
	s.Empty(active)
}

func (s *LedgerPostgresSuite) TestUnknownEmployeeWritesNothing() {
	ctx := s.ctx()
	req := s.request(7)
	req.EmployeeID = id.NewEmployeeID()

	_, err := s.ledger.CreateReview(ctx, s.company.ID, req)
	s.Require().Error(err)

	active, err := s.reviews.ListActiveByCompany(ctx, s.company.ID)
	s.Require().NoError(err)
	s.Empty(active)
}
