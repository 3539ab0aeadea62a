// Package service owns the document lifecycle: submission with automatic
// verification, manual decisions, soft deletion and the employee's derived
// verification percentage.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustline/internal/document/models"
	"trustline/internal/document/verifier"
	employeeModels "trustline/internal/employee/models"
	"trustline/internal/notification"
	"trustline/internal/platform/metrics"
	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/platform/tx"
	"trustline/pkg/requestcontext"
)

var tracer = otel.Tracer("trustline/document")

const cleanupTimeout = 5 * time.Second

type Store interface {
	Save(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	ListActiveByEmployee(ctx context.Context, employeeID id.EmployeeID) ([]*models.Document, error)
	CountActive(ctx context.Context, employeeID id.EmployeeID) (total, verified int, err error)
}

// EmployeeStore is the slice of the employee store the synchronizer owns.
type EmployeeStore interface {
	FindByID(ctx context.Context, employeeID id.EmployeeID) (*employeeModels.Employee, error)
	UpdateVerification(ctx context.Context, employeeID id.EmployeeID, u employeeModels.VerificationUpdate, now time.Time) error
}

// FileStore keeps uploaded file bytes; documents only hold the reference.
type FileStore interface {
	Put(ctx context.Context, upload models.Upload) (*models.FileRef, error)
	Delete(ctx context.Context, reference string) error
}

type Verifier interface {
	Verify(in verifier.Input) verifier.Result
}

type AuditPublisher interface {
	Record(ctx context.Context, entry audit.Entry)
}

type Notifier interface {
	Notify(ctx context.Context, n notification.Notification)
}

type Service struct {
	store          Store
	employees      EmployeeStore
	files          FileStore
	verifier       Verifier
	tx             tx.Runner
	auditor        AuditPublisher
	notifier       Notifier
	hasher         *audit.Hasher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	badgeThreshold int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithNumberHasher sets the keyed hasher used to reference document numbers
// in audit entries.
func WithNumberHasher(h *audit.Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithBadgeThreshold overrides the percentage at which an employee earns the
// verified badge.
func WithBadgeThreshold(pct int) Option {
	return func(s *Service) {
		if pct >= 0 && pct <= 100 {
			s.badgeThreshold = pct
		}
	}
}

func New(store Store, employees EmployeeStore, files FileStore, v Verifier, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if employees == nil {
		return nil, errors.New("employee store is required")
	}
	if files == nil {
		return nil, errors.New("file store is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if v == nil {
		v = verifier.New()
	}
	s := &Service{
		store:          store,
		employees:      employees,
		files:          files,
		verifier:       v,
		tx:             runner,
		hasher:         audit.NewHasher(""),
		logger:         slog.Default(),
		badgeThreshold: DefaultBadgeThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SubmitDocument stores the file, persists a pending document, applies the
// automatic verdict and resynchronises the employee's verification state.
// When persistence fails the stored file is removed again.
func (s *Service) SubmitDocument(ctx context.Context, employeeID id.EmployeeID, req models.SubmitRequest) (*models.Document, error) {
	ctx, span := tracer.Start(ctx, "document.Submit", trace.WithAttributes(
		attribute.String("employee_id", employeeID.String()),
		attribute.String("document_type", string(req.DocumentType)),
	))
	defer span.End()

	now := requestcontext.Now(ctx)
	doc, err := models.NewDocument(employeeID, req.DocumentType, req.DocumentNumber, nil, now)
	if err != nil {
		return nil, err
	}
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		return nil, translateNotFound(err, "employee not found")
	}

	if req.Upload != nil {
		ref, err := s.files.Put(ctx, *req.Upload)
		if err != nil {
			span.RecordError(err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store file")
		}
		doc.File = ref
	}

	result := s.verifier.Verify(verifierInput(doc))

	var summary models.VerificationSummary
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, doc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save document")
		}
		doc.ApplyAutoVerdict(result.AutoVerification(), now)
		if err := s.store.Update(ctx, doc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verdict")
		}
		var err error
		summary, err = s.sync(ctx, employeeID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		s.discardFile(ctx, doc)
		return nil, err
	}

	s.metrics.IncDocumentVerdict("auto", string(doc.VerificationStatus))
	s.record(ctx, audit.KindDocumentUploaded, audit.OutcomeSuccess, doc, summary)
	outcome := audit.OutcomeSuccess
	if !result.Passed {
		outcome = audit.OutcomeWarning
	}
	s.record(ctx, audit.KindDocumentAutoVerified, outcome, doc, summary)

	if doc.VerificationStatus == models.StatusVerified {
		s.notify(ctx, doc, notification.KindDocumentVerified, "Document verified",
			"Your document passed automatic verification.")
	} else {
		s.notify(ctx, doc, notification.KindDocumentUnderReview, "Document under review",
			"Your document needs a manual check by a verifier.")
	}
	s.logger.InfoContext(ctx, "document submitted",
		"document_id", doc.ID.String(),
		"employee_id", employeeID.String(),
		"status", string(doc.VerificationStatus),
		"confidence", result.Confidence,
	)
	return doc, nil
}

// DecideDocument records a verifier's verdict. It supersedes any automatic
// verdict and may be applied at any time.
func (s *Service) DecideDocument(ctx context.Context, documentID id.DocumentID, decision models.Decision) (*models.Document, error) {
	ctx, span := tracer.Start(ctx, "document.Decide", trace.WithAttributes(
		attribute.String("document_id", documentID.String()),
		attribute.String("status", string(decision.Status)),
	))
	defer span.End()

	principal := requestcontext.PrincipalFrom(ctx)
	if principal.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	var (
		doc     *models.Document
		summary models.VerificationSummary
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.store.FindByID(ctx, documentID)
		if err != nil {
			return translateNotFound(err, "document not found")
		}
		if err := doc.Decide(decision.Status, principal.ID, decision.Notes, now); err != nil {
			return err
		}
		if err := s.store.Update(ctx, doc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save decision")
		}
		summary, err = s.sync(ctx, doc.EmployeeID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.IncDocumentVerdict("manual", string(doc.VerificationStatus))
	if doc.VerificationStatus == models.StatusVerified {
		s.record(ctx, audit.KindDocumentVerified, audit.OutcomeSuccess, doc, summary)
		s.notify(ctx, doc, notification.KindDocumentVerified, "Document verified",
			"A verifier approved your document.")
	} else {
		s.record(ctx, audit.KindDocumentRejected, audit.OutcomeSuccess, doc, summary)
		s.notify(ctx, doc, notification.KindDocumentRejected, "Document rejected",
			"A verifier rejected your document.")
	}
	return doc, nil
}

// DeleteDocument soft-deletes a document owned by employeeID. Deleting an
// already deleted document is a no-op.
func (s *Service) DeleteDocument(ctx context.Context, employeeID id.EmployeeID, documentID id.DocumentID) error {
	ctx, span := tracer.Start(ctx, "document.Delete", trace.WithAttributes(
		attribute.String("document_id", documentID.String()),
	))
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		doc     *models.Document
		changed bool
		summary models.VerificationSummary
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.store.FindByID(ctx, documentID)
		if err != nil {
			return translateNotFound(err, "document not found")
		}
		if doc.EmployeeID != employeeID {
			s.recordOwnershipViolation(ctx, employeeID, doc)
			return dErrors.New(dErrors.CodeForbidden, "document belongs to another employee")
		}
		if changed = doc.SoftDelete(now); !changed {
			return nil
		}
		if err := s.store.Update(ctx, doc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete document")
		}
		summary, err = s.sync(ctx, employeeID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	if changed {
		s.record(ctx, audit.KindDocumentDeleted, audit.OutcomeSuccess, doc, summary)
	}
	return nil
}

func (s *Service) GetDocument(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, documentID)
	if err != nil {
		return nil, translateNotFound(err, "document not found")
	}
	if !doc.IsActive {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return doc, nil
}

// ListDocuments returns the employee's active documents, newest first.
func (s *Service) ListDocuments(ctx context.Context, employeeID id.EmployeeID) ([]*models.Document, error) {
	docs, err := s.store.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

func verifierInput(doc *models.Document) verifier.Input {
	in := verifier.Input{Type: doc.DocumentType, Number: doc.DocumentNumber}
	if doc.File != nil {
		in.File = &verifier.File{Size: doc.File.Size, MimeType: doc.File.MimeType}
	}
	return in
}

// discardFile removes a stored upload whose document was never committed.
// Failure leaves an orphaned object behind; it is logged and audited.
func (s *Service) discardFile(ctx context.Context, doc *models.Document) {
	if doc.File == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	err := s.files.Delete(ctx, doc.File.Reference)
	if err == nil {
		return
	}
	s.logger.ErrorContext(ctx, "failed to remove orphaned upload",
		"reference", doc.File.Reference,
		"document_id", doc.ID.String(),
		"error", err,
	)
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Entry{
		Kind:    audit.KindFileCleanupFailed,
		Outcome: audit.OutcomeFailure,
		Subject: doc.File.Reference,
		Payload: audit.SecurityPayload{
			Reason:   "uploaded file could not be removed after a failed submission",
			Severity: "low",
		},
	})
}

func (s *Service) record(ctx context.Context, kind audit.Kind, outcome audit.Outcome, doc *models.Document, summary models.VerificationSummary) {
	if s.auditor == nil {
		return
	}
	payload := audit.DocumentPayload{
		DocumentID:   doc.ID.String(),
		EmployeeID:   doc.EmployeeID.String(),
		DocumentType: string(doc.DocumentType),
		NumberHash:   s.hasher.Hash(doc.DocumentNumber),
		Status:       string(doc.VerificationStatus),
		Percentage:   summary.Percentage,
		Notes:        doc.DecisionNotes,
	}
	if doc.AutoVerification != nil {
		payload.Confidence = doc.AutoVerification.Confidence
	}
	s.auditor.Record(ctx, audit.Entry{
		Kind:    kind,
		Outcome: outcome,
		Subject: doc.ID.String(),
		Payload: payload,
	})
}

func (s *Service) recordOwnershipViolation(ctx context.Context, employeeID id.EmployeeID, doc *models.Document) {
	s.logger.WarnContext(ctx, "document ownership violation",
		"document_id", doc.ID.String(),
		"employee_id", employeeID.String(),
	)
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Entry{
		Kind:    audit.KindOwnershipViolation,
		Outcome: audit.OutcomeWarning,
		Subject: doc.ID.String(),
		Payload: audit.SecurityPayload{
			Reason:   "employee " + employeeID.String() + " attempted to delete a document it does not own",
			Severity: "medium",
		},
	})
}

func (s *Service) notify(ctx context.Context, doc *models.Document, kind notification.Kind, title, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, notification.Notification{
		Recipient: doc.EmployeeID.String(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		Subject:   doc.ID.String(),
	})
}

func translateNotFound(err error, message string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, message)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "store failure")
}
