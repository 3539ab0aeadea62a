// Package anomaly flags actors whose recent audit trail looks abusive.
// It is a static rate rule over the trailing window, not a learned model.
package anomaly

import (
	"context"
	"fmt"
	"time"

	audit "trustline/pkg/platform/audit"
)

const (
	DefaultWindow           = time.Hour
	DefaultFailedLoginLimit = 5
	DefaultProfileViewLimit = 50
	reasonFailedLogins      = "excessive failed logins"
	reasonProfileViews      = "excessive profile views"
)

// failedAuthKinds both count toward the failed login threshold. Rejected
// bearer tokens are the only failed sign-in this service observes directly.
var failedAuthKinds = []audit.Kind{audit.KindLoginFailed, audit.KindTokenRejected}

// Counter is the read side of audit.Store the detector needs.
type Counter interface {
	CountByActorSince(ctx context.Context, actorID string, kind audit.Kind, since, now time.Time) (int, error)
}

// Report is the verdict for one actor.
type Report struct {
	ActorID      string    `json:"actor_id"`
	Suspicious   bool      `json:"suspicious"`
	Reason       string    `json:"reason,omitempty"`
	FailedLogins int       `json:"failed_logins"`
	ProfileViews int       `json:"profile_views"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
}

type Detector struct {
	counter          Counter
	window           time.Duration
	failedLoginLimit int
	profileViewLimit int
}

type Option func(*Detector)

func WithWindow(d time.Duration) Option {
	return func(det *Detector) {
		if d > 0 {
			det.window = d
		}
	}
}

func WithThresholds(failedLogins, profileViews int) Option {
	return func(det *Detector) {
		if failedLogins > 0 {
			det.failedLoginLimit = failedLogins
		}
		if profileViews > 0 {
			det.profileViewLimit = profileViews
		}
	}
}

func New(counter Counter, opts ...Option) *Detector {
	d := &Detector{
		counter:          counter,
		window:           DefaultWindow,
		failedLoginLimit: DefaultFailedLoginLimit,
		profileViewLimit: DefaultProfileViewLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectSuspiciousActivity counts failed sign-ins and profile_viewed entries by
// actorID in [now-window, now]. Reaching either threshold flags the actor;
// failed logins take precedence in the reason.
func (d *Detector) DetectSuspiciousActivity(ctx context.Context, actorID string, now time.Time) (Report, error) {
	since := now.Add(-d.window)
	report := Report{ActorID: actorID, WindowStart: since, WindowEnd: now}

	var failed int
	for _, kind := range failedAuthKinds {
		n, err := d.counter.CountByActorSince(ctx, actorID, kind, since, now)
		if err != nil {
			return Report{}, fmt.Errorf("count %s: %w", kind, err)
		}
		failed += n
	}
	views, err := d.counter.CountByActorSince(ctx, actorID, audit.KindProfileViewed, since, now)
	if err != nil {
		return Report{}, fmt.Errorf("count profile views: %w", err)
	}
	report.FailedLogins = failed
	report.ProfileViews = views

	switch {
	case failed >= d.failedLoginLimit:
		report.Suspicious = true
		report.Reason = reasonFailedLogins
	case views >= d.profileViewLimit:
		report.Suspicious = true
		report.Reason = reasonProfileViews
	}
	return report, nil
}
