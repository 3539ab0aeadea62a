package anomaly

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/audit/store/memory"
)

type DetectorSuite struct {
	suite.Suite
	store    *memory.InMemoryStore
	detector *Detector
	now      time.Time
}

func TestDetectorSuite(t *testing.T) {
	suite.Run(t, new(DetectorSuite))
}

func (s *DetectorSuite) SetupTest() {
	s.store = memory.NewInMemoryStore()
	s.detector = New(s.store)
	s.now = time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)
}

func (s *DetectorSuite) record(actor string, kind audit.Kind, n int, ago time.Duration) {
	category, _ := kind.Category()
	for range n {
		at := s.now.Add(-ago)
		s.Require().NoError(s.store.Append(context.Background(), audit.Entry{
			ID:        uuid.New(),
			ActorID:   actor,
			Kind:      kind,
			Category:  category,
			Outcome:   audit.OutcomeFailure,
			Timestamp: at,
			ExpiresAt: at.Add(audit.DefaultRetention),
		}))
	}
}

func (s *DetectorSuite) TestThresholds() {
	ctx := context.Background()

	s.Run("quiet actor is not suspicious", func() {
		s.record("quiet", audit.KindLoginFailed, 4, 10*time.Minute)
		s.record("quiet", audit.KindProfileViewed, 49, 10*time.Minute)

		report, err := s.detector.DetectSuspiciousActivity(ctx, "quiet", s.now)
		s.Require().NoError(err)
		s.False(report.Suspicious)
		s.Equal(4, report.FailedLogins)
		s.Equal(49, report.ProfileViews)
		s.Empty(report.Reason)
	})

	s.Run("five failed logins in the hour", func() {
		s.record("brute", audit.KindLoginFailed, 5, 30*time.Minute)

		report, err := s.detector.DetectSuspiciousActivity(ctx, "brute", s.now)
		s.Require().NoError(err)
		s.True(report.Suspicious)
		s.Equal(reasonFailedLogins, report.Reason)
	})

	s.Run("rejected tokens count as failed logins", func() {
		s.record("10.0.0.9", audit.KindLoginFailed, 2, 20*time.Minute)
		s.record("10.0.0.9", audit.KindTokenRejected, 3, 20*time.Minute)

		report, err := s.detector.DetectSuspiciousActivity(ctx, "10.0.0.9", s.now)
		s.Require().NoError(err)
		s.True(report.Suspicious)
		s.Equal(5, report.FailedLogins)
	})

	s.Run("fifty profile views in the hour", func() {
		s.record("scraper", audit.KindProfileViewed, 50, 5*time.Minute)

		report, err := s.detector.DetectSuspiciousActivity(ctx, "scraper", s.now)
		s.Require().NoError(err)
		s.True(report.Suspicious)
		s.Equal(reasonProfileViews, report.Reason)
	})

	s.Run("events outside the window are ignored", func() {
		s.record("old", audit.KindLoginFailed, 10, 2*time.Hour)

		report, err := s.detector.DetectSuspiciousActivity(ctx, "old", s.now)
		s.Require().NoError(err)
		s.False(report.Suspicious)
		s.Zero(report.FailedLogins)
	})
}

type brokenCounter struct{}

func (brokenCounter) CountByActorSince(context.Context, string, audit.Kind, time.Time, time.Time) (int, error) {
	return 0, errors.New("store down")
}

func (s *DetectorSuite) TestCounterError() {
	_, err := New(brokenCounter{}).DetectSuspiciousActivity(context.Background(), "a", s.now)
	s.Require().Error(err)
	s.Contains(err.Error(), "count failed logins")
}
