package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustline/internal/employee/handler/mocks"
	"trustline/internal/employee/models"
	"trustline/internal/employee/service"
	"trustline/internal/scoring"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/requestcontext"
	"trustline/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/employee-mocks.go -package=mocks Service
type EmployeeHandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *mocks.MockService
	router      chi.Router
}

func TestEmployeeHandlerSuite(t *testing.T) {
	suite.Run(t, new(EmployeeHandlerSuite))
}

func (s *EmployeeHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.mockService, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *EmployeeHandlerSuite) TestRegister() {
	s.Run("201 with the created record", func() {
		req := models.RegisterRequest{FullName: "Lena Park", Email: "lena@example.com"}
		s.mockService.EXPECT().Register(gomock.Any(), req).Return(&models.Employee{
			ID: id.NewEmployeeID(), FullName: "Lena Park", Email: "lena@example.com",
		}, nil)

		httpReq := testutil.AsRole(testutil.NewJSONRequest(s.T(), http.MethodPost, "/employees", req), requestcontext.RoleEmployee)
		rr := testutil.DoRequest(s.router, httpReq)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "full_name", "Lena Park")
	})

	s.Run("companies cannot register employees", func() {
		httpReq := testutil.AsCompany(testutil.NewJSONRequest(s.T(), http.MethodPost, "/employees",
			models.RegisterRequest{FullName: "X", Email: "x@example.com"}), id.NewCompanyID())
		rr := testutil.DoRequest(s.router, httpReq)
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("conflict maps to 409", func() {
		s.mockService.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "exists"))
		httpReq := testutil.AsRole(testutil.NewJSONRequest(s.T(), http.MethodPost, "/employees",
			models.RegisterRequest{FullName: "X", Email: "x@example.com"}), requestcontext.RoleEmployee)
		rr := testutil.DoRequest(s.router, httpReq)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
	})
}

func (s *EmployeeHandlerSuite) TestGetScore() {
	employeeID := id.NewEmployeeID()

	s.Run("company may read any score", func() {
		s.mockService.EXPECT().GetScore(gomock.Any(), employeeID).Return(&scoring.EmployeeScoreView{
			EmployeeID: employeeID, OverallScore: 80, TotalReviews: 1,
		}, nil)
		req := testutil.AsCompany(testutil.NewRequest(s.T(), http.MethodGet, "/employees/"+employeeID.String()+"/score"), id.NewCompanyID())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "overall_score", float64(80))
	})

	s.Run("employee may read their own score", func() {
		s.mockService.EXPECT().GetScore(gomock.Any(), employeeID).Return(&scoring.EmployeeScoreView{EmployeeID: employeeID}, nil)
		req := testutil.AsEmployee(testutil.NewRequest(s.T(), http.MethodGet, "/employees/"+employeeID.String()+"/score"), employeeID)
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req))
	})

	s.Run("employee may not read another score", func() {
		req := testutil.AsEmployee(testutil.NewRequest(s.T(), http.MethodGet, "/employees/"+employeeID.String()+"/score"), id.NewEmployeeID())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("malformed id", func() {
		req := testutil.AsCompany(testutil.NewRequest(s.T(), http.MethodGet, "/employees/not-a-uuid/score"), id.NewCompanyID())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})
}

func (s *EmployeeHandlerSuite) TestPublicReads() {
	employeeID := id.NewEmployeeID()

	s.Run("blocked profile is a 404", func() {
		s.mockService.EXPECT().GetPublicProfile(gomock.Any(), employeeID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "employee not found"))
		req := testutil.AsRole(testutil.NewRequest(s.T(), http.MethodGet, "/profiles/"+employeeID.String()), requestcontext.RoleVerifier)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("search forwards the raw query", func() {
		s.mockService.EXPECT().Search(gomock.Any(), "go dev").Return(&service.SearchResult{
			Query: "go dev", Results: []models.PublicProfile{},
		}, nil)
		req := testutil.AsCompany(testutil.NewRequest(s.T(), http.MethodGet, "/profiles?q=go+dev"), id.NewCompanyID())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONHasKey(s.T(), rr, "results")
	})
}

func (s *EmployeeHandlerSuite) TestMyProfile() {
	employeeID := id.NewEmployeeID()
	s.mockService.EXPECT().GetProfile(gomock.Any(), employeeID).Return(&service.Profile{
		Employee: &models.Employee{ID: employeeID},
	}, nil)

	req := testutil.AsEmployee(testutil.NewRequest(s.T(), http.MethodGet, "/me/profile"), employeeID)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONHasKey(s.T(), rr, "employee")
}
