// Package security serves the admin view of an actor's recent audit trail
// together with the anomaly verdict for it.
package security

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	dErrors "trustline/pkg/domain-errors"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/audit/anomaly"
	"trustline/pkg/requestcontext"
)

const (
	maxActorIDLength = 128
	trailLimit       = 100
)

type Detector interface {
	DetectSuspiciousActivity(ctx context.Context, actorID string, now time.Time) (anomaly.Report, error)
}

// TrailReader lists live audit entries for an actor, newest first.
type TrailReader interface {
	List(ctx context.Context, actorID string) ([]audit.Entry, error)
}

type AuditPublisher interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Activity is the anomaly report plus the most recent entries behind it.
type Activity struct {
	Report  anomaly.Report
	Entries []audit.Entry
}

type Service struct {
	detector Detector
	trail    TrailReader
	auditor  AuditPublisher
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func NewService(detector Detector, trail TrailReader, opts ...Option) (*Service, error) {
	if detector == nil {
		return nil, errors.New("anomaly detector is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail reader is required")
	}
	s := &Service{detector: detector, trail: trail, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Activity runs anomaly detection for actorID at the request time. A
// suspicious verdict is itself audited.
func (s *Service) Activity(ctx context.Context, actorID string) (*Activity, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" || len(actorID) > maxActorIDLength || !utf8.ValidString(actorID) {
		return nil, dErrors.Validation("invalid actor", map[string]string{
			"actor_id": "must be 1-128 characters",
		})
	}

	report, err := s.detector.DetectSuspiciousActivity(ctx, actorID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to evaluate activity")
	}
	entries, err := s.trail.List(ctx, actorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit trail")
	}
	if len(entries) > trailLimit {
		entries = entries[:trailLimit]
	}

	if report.Suspicious {
		s.logger.WarnContext(ctx, "suspicious activity detected",
			"actor_id", actorID,
			"reason", report.Reason,
			"failed_logins", report.FailedLogins,
			"profile_views", report.ProfileViews,
		)
		if s.auditor != nil {
			s.auditor.Record(ctx, audit.Entry{
				ActorID: requestcontext.ActorID(ctx),
				Kind:    audit.KindSuspiciousActivity,
				Outcome: audit.OutcomeWarning,
				Subject: actorID,
				Payload: audit.SecurityPayload{
					Reason:   report.Reason,
					Severity: "high",
					Count:    max(report.FailedLogins, report.ProfileViews),
				},
			})
		}
	}
	return &Activity{Report: report, Entries: entries}, nil
}
