package scoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	companyModels "trustline/internal/company/models"
	companyStore "trustline/internal/company/store"
	employeeModels "trustline/internal/employee/models"
	employeeStore "trustline/internal/employee/store"
	"trustline/internal/review/models"
	reviewStore "trustline/internal/review/store"
	"trustline/internal/scoring"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	reviews   *reviewStore.InMemoryStore
	employees *employeeStore.InMemoryStore
	companies *companyStore.InMemoryStore
	service   *scoring.Service

	ctx      context.Context
	now      time.Time
	employee *employeeModels.Employee
	company  *companyModels.Company
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.reviews = reviewStore.NewInMemory()
	s.employees = employeeStore.NewInMemory()
	s.companies = companyStore.NewInMemory()
	s.service = scoring.NewService(s.reviews, s.employees, s.companies)

	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.employee = employeeModels.NewEmployee(id.NewUserID(), employeeModels.RegisterRequest{
		FullName: "Asha Rao", Email: "asha@example.com",
	}, s.now)
	s.Require().NoError(s.employees.Save(s.ctx, s.employee))

	s.company = companyModels.NewCompany(id.NewUserID(), companyModels.RegisterRequest{Name: "Acme"}, s.now)
	s.Require().NoError(s.companies.Save(s.ctx, s.company))
}

func (s *ServiceSuite) addReview(rating int) *models.Review {
	r := &models.Review{
		ID:         id.NewReviewID(),
		CompanyID:  s.company.ID,
		EmployeeID: s.employee.ID,
		Ratings: models.Ratings{
			TechnicalSkills: rating, Communication: rating, Teamwork: rating, ProblemSolving: rating,
			Punctuality: rating, Leadership: rating, Integrity: rating, WorkQuality: rating,
		},
		IsActive:  true,
		CreatedAt: s.now.Add(-time.Hour),
	}
	r.AverageRating = models.AverageOf(r.Ratings)
	s.Require().NoError(s.reviews.Save(s.ctx, r))
	return r
}

func (s *ServiceSuite) TestRecomputeEmployee() {
	s.Run("writes score to the employee row", func() {
		s.addReview(8)

		score, err := s.service.RecomputeEmployee(s.ctx, s.employee.ID)
		s.Require().NoError(err)
		s.Equal(80, score.OverallScore)

		stored, err := s.employees.FindByID(s.ctx, s.employee.ID)
		s.Require().NoError(err)
		s.Equal(80, stored.OverallScore)
		s.Equal(1, stored.TotalReviews)
	})

	s.Run("unknown employee is not found", func() {
		_, err := s.service.RecomputeEmployee(s.ctx, id.NewEmployeeID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestRecomputeCompany() {
	first := s.addReview(6)
	s.addReview(8)

	stats, err := s.service.RecomputeCompany(s.ctx, s.company.ID)
	s.Require().NoError(err)
	s.Equal(2, stats.ReviewCount)
	s.Equal(7.0, stats.AverageRating)
	s.Require().NotNil(stats.LastReviewAt)

	stored, err := s.companies.FindByID(s.ctx, s.company.ID)
	s.Require().NoError(err)
	s.Equal(2, stored.ReviewCount)
	s.Equal(stats.ReputationScore, stored.ReputationScore)

	s.Run("verification raises reputation", func() {
		s.Require().NoError(s.companies.SetVerified(s.ctx, s.company.ID, true, s.now))
		verified, err := s.service.RecomputeCompany(s.ctx, s.company.ID)
		s.Require().NoError(err)
		s.Equal(stats.ReputationScore+20, verified.ReputationScore)
	})

	s.Run("deleted reviews drop out", func() {
		first.SoftDelete(s.now)
		s.Require().NoError(s.reviews.Update(s.ctx, first))

		after, err := s.service.RecomputeCompany(s.ctx, s.company.ID)
		s.Require().NoError(err)
		s.Equal(1, after.ReviewCount)
		s.Equal(8.0, after.AverageRating)
	})

	s.Run("unknown company is not found", func() {
		_, err := s.service.RecomputeCompany(s.ctx, id.NewCompanyID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestGetEmployeeScore() {
	s.addReview(9)
	_, err := s.service.RecomputeEmployee(s.ctx, s.employee.ID)
	s.Require().NoError(err)

	view, err := s.service.GetEmployeeScore(s.ctx, s.employee.ID)
	s.Require().NoError(err)
	s.Equal(90, view.OverallScore)
	s.Equal(1, view.TotalReviews)
	s.Equal(9.0, view.Breakdown["integrity"])

	_, err = s.service.GetEmployeeScore(s.ctx, id.NewEmployeeID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
