package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"trustline/internal/consent"
	"trustline/internal/consent/handler/mocks"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/requestcontext"
	"trustline/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/consent-mocks.go -package=mocks Service

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r, svc
}

func TestGrantConsent(t *testing.T) {
	employeeID := id.NewEmployeeID()
	grantedAt := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	testutil.Given(t, "an authenticated employee", func(t *testing.T) {
		testutil.When(t, "consent is granted", func(t *testing.T) {
			router, svc := newTestRouter(t)
			svc.EXPECT().GrantConsent(gomock.Any(), employeeID).Return(&consent.State{
				EmployeeID: employeeID, ConsentGiven: true, ConsentGivenAt: &grantedAt,
			}, nil)

			req := testutil.AsEmployee(testutil.NewRequest(t, http.MethodPost, "/me/consent"), employeeID)
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the new state is returned", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				got := testutil.UnmarshalResponse[consent.State](t, rr)
				assert.True(t, got.ConsentGiven)
				assert.False(t, got.Exposed)
			})
		})
	})

	testutil.Given(t, "a company principal", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().GrantConsent(gomock.Any(), gomock.Any()).Times(0)

		req := testutil.AsCompany(testutil.NewRequest(t, http.MethodPost, "/me/consent"), id.NewCompanyID())
		rr := testutil.DoRequest(router, req)

		testutil.Then(t, "the request is forbidden", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
		})
	})
}

func TestRevokeConsent(t *testing.T) {
	employeeID := id.NewEmployeeID()

	t.Run("not found passes through", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().RevokeConsent(gomock.Any(), employeeID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "employee not found"))

		req := testutil.AsEmployee(testutil.NewRequest(t, http.MethodDelete, "/me/consent"), employeeID)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	t.Run("store failures stay opaque", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().RevokeConsent(gomock.Any(), employeeID).
			Return(nil, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "failed to update consent"))

		req := testutil.AsEmployee(testutil.NewRequest(t, http.MethodDelete, "/me/consent"), employeeID)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusInternalServerError)
		assert.NotContains(t, rr.Body.String(), "connection refused")
	})
}

func TestSetVisibility(t *testing.T) {
	employeeID := id.NewEmployeeID()

	t.Run("visible flag is forwarded", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().SetProfileVisibility(gomock.Any(), employeeID, true).Return(&consent.State{
			EmployeeID: employeeID, ProfileVisible: true, ConsentGiven: true, Exposed: true,
		}, nil)

		req := testutil.NewJSONRequest(t, http.MethodPut, "/me/visibility", map[string]bool{"visible": true})
		rr := testutil.DoRequest(router, testutil.AsEmployee(req, employeeID))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "exposed", true)
	})

	t.Run("missing flag is a validation error", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().SetProfileVisibility(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req := testutil.NewRequestWithBody(t, http.MethodPut, "/me/visibility", `{}`)
		rr := testutil.DoRequest(router, testutil.AsEmployee(req, employeeID))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)
		req := testutil.NewRequestWithBody(t, http.MethodPut, "/me/visibility", `{"visible":true,"admin":true}`)
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, requestcontext.Principal{
			ID: id.NewUserID(), Role: requestcontext.RoleEmployee,
		}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})
}
