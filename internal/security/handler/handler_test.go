package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"trustline/internal/security"
	"trustline/internal/security/handler/mocks"
	id "trustline/pkg/domain"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/audit/anomaly"
	"trustline/pkg/requestcontext"
	"trustline/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/security-mocks.go -package=mocks Service

func TestHandleActivity(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	router := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)

	testutil.Given(t, "an actor with five rejected tokens", func(t *testing.T) {
		at := time.Date(2026, 4, 10, 14, 50, 0, 0, time.UTC)
		svc.EXPECT().Activity(gomock.Any(), "203.0.113.7").Return(&security.Activity{
			Report: anomaly.Report{ActorID: "203.0.113.7", Suspicious: true, Reason: "excessive failed logins", FailedLogins: 5},
			Entries: []audit.Entry{{
				ID:        uuid.New(),
				ActorID:   "203.0.113.7",
				Kind:      audit.KindTokenRejected,
				Category:  audit.CategoryAuthentication,
				Outcome:   audit.OutcomeFailure,
				Payload:   audit.AuthenticationPayload{Method: "bearer", Reason: "invalid token"},
				Timestamp: at,
				ExpiresAt: at.Add(audit.DefaultRetention),
			}},
		}, nil)

		testutil.When(t, "an admin asks for the activity report", func(t *testing.T) {
			req := testutil.AsRole(testutil.NewRequest(t, http.MethodGet, "/security/activity/203.0.113.7"), requestcontext.RoleAdmin)
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the verdict and the trail are returned", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				type body struct {
					Suspicious   bool `json:"suspicious"`
					FailedLogins int  `json:"failed_logins"`
					Entries      []struct {
						Kind    string         `json:"kind"`
						Payload map[string]any `json:"payload"`
					} `json:"entries"`
				}
				got := testutil.UnmarshalResponse[body](t, rr)
				assert.True(t, got.Suspicious)
				assert.Equal(t, 5, got.FailedLogins)
				require.Len(t, got.Entries, 1)
				assert.Equal(t, "token_rejected", got.Entries[0].Kind)
				assert.Equal(t, "bearer", got.Entries[0].Payload["method"])
			})
		})
	})

	testutil.Given(t, "a non-admin caller", func(t *testing.T) {
		req := testutil.AsEmployee(testutil.NewRequest(t, http.MethodGet, "/security/activity/x"), id.NewEmployeeID())
		rr := testutil.DoRequest(router, req)
		testutil.Then(t, "the request is forbidden", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusForbidden)
		})
	})
}
