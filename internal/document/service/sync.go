package service

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustline/internal/document/models"
	employeeModels "trustline/internal/employee/models"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/requestcontext"
)

// DefaultBadgeThreshold is the verification percentage that earns the
// verified badge.
const DefaultBadgeThreshold = 80

// Summarize derives the verification state from active document counts.
func Summarize(total, verified, badgeThreshold int) models.VerificationSummary {
	summary := models.VerificationSummary{
		TotalDocuments:    total,
		VerifiedDocuments: verified,
	}
	if total > 0 {
		summary.Percentage = int(math.Round(float64(verified) / float64(total) * 100))
	}
	summary.Verified = summary.Percentage >= badgeThreshold
	return summary
}

// SyncVerification recomputes the employee's verification percentage and
// badge from the active documents and stores them on the employee record.
func (s *Service) SyncVerification(ctx context.Context, employeeID id.EmployeeID) (models.VerificationSummary, error) {
	var summary models.VerificationSummary
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		summary, err = s.sync(ctx, employeeID)
		return err
	})
	if err != nil {
		return models.VerificationSummary{}, err
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Entry{
			Kind:    audit.KindVerificationSynced,
			Outcome: audit.OutcomeSuccess,
			Subject: employeeID.String(),
			Payload: audit.DocumentPayload{
				EmployeeID: employeeID.String(),
				Percentage: summary.Percentage,
			},
		})
	}
	return summary, nil
}

// GetVerificationSummary computes the summary at read time without writing.
func (s *Service) GetVerificationSummary(ctx context.Context, employeeID id.EmployeeID) (*models.VerificationSummary, error) {
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		return nil, translateNotFound(err, "employee not found")
	}
	total, verified, err := s.store.CountActive(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count documents")
	}
	summary := Summarize(total, verified, s.badgeThreshold)
	return &summary, nil
}

// sync must run inside the caller's transaction.
func (s *Service) sync(ctx context.Context, employeeID id.EmployeeID) (models.VerificationSummary, error) {
	ctx, span := tracer.Start(ctx, "document.SyncVerification", trace.WithAttributes(
		attribute.String("employee_id", employeeID.String()),
	))
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveRecompute("verification", start)

	total, verified, err := s.store.CountActive(ctx, employeeID)
	if err != nil {
		span.RecordError(err)
		return models.VerificationSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count documents")
	}
	summary := Summarize(total, verified, s.badgeThreshold)

	update := employeeModels.VerificationUpdate{
		Percentage: summary.Percentage,
		Verified:   summary.Verified,
	}
	if err := s.employees.UpdateVerification(ctx, employeeID, update, requestcontext.Now(ctx)); err != nil {
		span.RecordError(err)
		return models.VerificationSummary{}, translateNotFound(err, "employee not found")
	}
	s.metrics.IncVerificationSyncs()
	return summary, nil
}
