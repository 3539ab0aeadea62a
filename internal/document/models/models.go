package models

import (
	"io"
	"strings"
	"time"

	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
)

// DocumentType is the closed set of documents an employee can submit.
type DocumentType string

const (
	TypeNationalID             DocumentType = "national_id"
	TypeTaxID                  DocumentType = "tax_id"
	TypePassport               DocumentType = "passport"
	TypeDrivingLicense         DocumentType = "driving_license"
	TypeEducationalCertificate DocumentType = "educational_certificate"
	TypeExperienceLetter       DocumentType = "experience_letter"
	TypePoliceVerification     DocumentType = "police_verification"
	TypeAddressProof           DocumentType = "address_proof"
	TypeBankStatement          DocumentType = "bank_statement"
	TypeOther                  DocumentType = "other"
)

func (t DocumentType) IsValid() bool {
	switch t {
	case TypeNationalID, TypeTaxID, TypePassport, TypeDrivingLicense,
		TypeEducationalCertificate, TypeExperienceLetter, TypePoliceVerification,
		TypeAddressProof, TypeBankStatement, TypeOther:
		return true
	}
	return false
}

func (t DocumentType) String() string { return string(t) }

// ParseDocumentType validates a type at the trust boundary.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", dErrors.Validation("invalid document type", map[string]string{
			"document_type": "unsupported document type",
		})
	}
	return t, nil
}

// VerificationStatus is the document state machine.
//
//	pending -> verified | under_review        (automatic verdict)
//	any     -> verified | rejected            (manual decision)
type VerificationStatus string

const (
	StatusPending     VerificationStatus = "pending"
	StatusVerified    VerificationStatus = "verified"
	StatusRejected    VerificationStatus = "rejected"
	StatusUnderReview VerificationStatus = "under_review"
)

func (s VerificationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected, StatusUnderReview:
		return true
	}
	return false
}

// IsDecision reports whether s is a status a verifier may set by hand.
func (s VerificationStatus) IsDecision() bool {
	return s == StatusVerified || s == StatusRejected
}

// FileRef points at the stored bytes of an uploaded document.
type FileRef struct {
	Reference string `json:"reference"`
	Name      string `json:"name,omitempty"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mime_type"`
}

// Check is one named rule evaluated by the verifier.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// AutoVerification records the automatic verdict.
type AutoVerification struct {
	Attempted  bool    `json:"attempted"`
	Passed     bool    `json:"passed"`
	Confidence int     `json:"confidence"`
	Checks     []Check `json:"checks"`
}

// Document is an identity or credential document submitted by an employee.
//
// Invariants:
//   - DocumentType is one of the closed set
//   - VerifiedAt is set iff VerificationStatus == verified
//   - inactive documents carry DeletedAt and are excluded from the verification percentage
type Document struct {
	ID                 id.DocumentID
	EmployeeID         id.EmployeeID
	DocumentType       DocumentType
	DocumentNumber     string
	File               *FileRef
	VerificationStatus VerificationStatus
	AutoVerification   *AutoVerification
	VerifiedAt         *time.Time
	DecidedBy          *id.UserID
	DecisionNotes      string
	IsActive           bool
	DeletedAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewDocument builds a pending document. The number is normalised
// (trimmed, upper-cased) before storage.
func NewDocument(employeeID id.EmployeeID, docType DocumentType, number string, file *FileRef, now time.Time) (*Document, error) {
	if employeeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "employee ID required")
	}
	if !docType.IsValid() {
		return nil, dErrors.Validation("invalid document type", map[string]string{
			"document_type": "unsupported document type",
		})
	}
	number = NormalizeNumber(number)
	if len(number) > 64 {
		return nil, dErrors.Validation("document number too long", map[string]string{
			"document_number": "must be at most 64 characters",
		})
	}
	return &Document{
		ID:                 id.NewDocumentID(),
		EmployeeID:         employeeID,
		DocumentType:       docType,
		DocumentNumber:     number,
		File:               file,
		VerificationStatus: StatusPending,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// NormalizeNumber trims and upper-cases a document number.
func NormalizeNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

// ApplyAutoVerdict moves a pending document to verified or under_review.
// A document that already carries a manual decision keeps it.
func (d *Document) ApplyAutoVerdict(result AutoVerification, now time.Time) {
	d.AutoVerification = &result
	d.UpdatedAt = now
	if d.VerificationStatus != StatusPending {
		return
	}
	if result.Passed {
		d.VerificationStatus = StatusVerified
		d.VerifiedAt = &now
		return
	}
	d.VerificationStatus = StatusUnderReview
}

// Decide applies a manual verdict; it always supersedes the automatic one.
func (d *Document) Decide(status VerificationStatus, decidedBy id.UserID, notes string, now time.Time) error {
	if !status.IsDecision() {
		return dErrors.Validation("invalid decision", map[string]string{
			"decision": "must be verified or rejected",
		})
	}
	if !d.IsActive {
		return dErrors.New(dErrors.CodeInvalidState, "document has been deleted")
	}
	d.VerificationStatus = status
	d.DecidedBy = &decidedBy
	d.DecisionNotes = strings.TrimSpace(notes)
	d.UpdatedAt = now
	if status == StatusVerified {
		d.VerifiedAt = &now
	} else {
		d.VerifiedAt = nil
	}
	return nil
}

// SoftDelete marks the document inactive. It reports false when the
// document was already deleted.
func (d *Document) SoftDelete(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	d.IsActive = false
	d.DeletedAt = &now
	d.UpdatedAt = now
	return true
}

// VerificationSummary is the derived verification state of one employee.
type VerificationSummary struct {
	Percentage        int  `json:"percentage"`
	Verified          bool `json:"verified"`
	TotalDocuments    int  `json:"total_documents"`
	VerifiedDocuments int  `json:"verified_documents"`
}

// Upload is an incoming file handed to the file store.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SubmitRequest is an employee's document submission. Upload is optional;
// a number-only submission is checked on the number alone.
type SubmitRequest struct {
	DocumentType   DocumentType
	DocumentNumber string
	Upload         *Upload
}

// Decision is a verifier's manual verdict.
type Decision struct {
	Status VerificationStatus `json:"decision"`
	Notes  string             `json:"notes"`
}
