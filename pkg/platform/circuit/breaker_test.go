package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) breaker(opts ...Option) *Breaker {
	opts = append(opts, WithClock(func() time.Time { return s.now }))
	return New("audit-store", opts...)
}

func (s *BreakerSuite) fail(b *Breaker, n int) {
	for range n {
		b.RecordFailure()
	}
}

func (s *BreakerSuite) TestStartsClosed() {
	b := s.breaker()
	s.Equal("audit-store", b.Name())
	s.Equal(StateClosed, b.State())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestOpensOnConsecutiveFailures() {
	b := s.breaker(WithFailureThreshold(3))

	s.fail(b, 2)
	s.False(b.IsOpen())

	fallback, change := b.RecordFailure()
	s.True(fallback)
	s.True(change.Opened)
	s.Equal(StateOpen, b.State())

	s.Run("further failures report no transition", func() {
		fallback, change := b.RecordFailure()
		s.True(fallback)
		s.False(change.Opened)
	})
}

func (s *BreakerSuite) TestSuccessResetsFailureStreak() {
	b := s.breaker(WithFailureThreshold(3))

	s.fail(b, 2)
	b.RecordSuccess()
	s.fail(b, 2)
	s.False(b.IsOpen(), "streak restarted after the success")

	s.fail(b, 1)
	s.True(b.IsOpen())
}

func (s *BreakerSuite) TestClosesAfterSuccessStreak() {
	b := s.breaker(WithFailureThreshold(1), WithSuccessThreshold(3))
	s.fail(b, 1)

	b.RecordSuccess()
	b.RecordSuccess()
	b.RecordFailure()
	s.True(b.IsOpen(), "a failure restarts the success streak")

	b.RecordSuccess()
	b.RecordSuccess()
	s.True(b.IsOpen())

	primary, change := b.RecordSuccess()
	s.True(primary)
	s.True(change.Closed)
	s.False(b.IsOpen())
}

func (s *BreakerSuite) TestCooldownAdmitsSingleTrial() {
	b := s.breaker(WithFailureThreshold(2), WithCooldown(time.Minute))
	s.fail(b, 2)
	s.False(b.Allow(), "writes are shed during cooldown")

	s.now = s.now.Add(61 * time.Second)
	s.True(b.Allow(), "one trial write after cooldown")
	s.False(b.Allow(), "only one trial write in flight")

	s.Run("successful trial closes", func() {
		b.RecordSuccess()
		s.False(b.IsOpen())
		s.True(b.Allow())
	})
}

func (s *BreakerSuite) TestFailedTrialRestartsCooldown() {
	b := s.breaker(WithFailureThreshold(1), WithCooldown(time.Minute))
	s.fail(b, 1)

	s.now = s.now.Add(2 * time.Minute)
	s.True(b.Allow())
	b.RecordFailure()

	s.now = s.now.Add(30 * time.Second)
	s.False(b.Allow())
}

func (s *BreakerSuite) TestReset() {
	b := s.breaker(WithFailureThreshold(1))
	s.fail(b, 1)

	b.Reset()
	s.Equal(StateClosed, b.State())
	s.True(b.Allow())
}
