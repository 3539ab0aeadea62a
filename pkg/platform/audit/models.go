package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category groups audit kinds. Every Kind belongs to exactly one Category,
// and the Category decides which payload type an entry may carry.
type Category string

const (
	CategoryAuthentication Category = "authentication"
	CategoryProfile        Category = "profile"
	CategoryReview         Category = "review"
	CategoryDocument       Category = "document"
	CategorySearch         Category = "search"
	CategoryConsent        Category = "consent"
	CategorySecurity       Category = "security"
)

// Outcome records whether the audited action succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeWarning Outcome = "warning"
)

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeWarning:
		return true
	}
	return false
}

// Kind is the closed enumeration of auditable events.
type Kind string

const (
	// Authentication
	KindLoginSucceeded  Kind = "login_succeeded"
	KindLoginFailed     Kind = "login_failed"
	KindLogout          Kind = "logout"
	KindTokenRejected   Kind = "token_rejected"
	KindPasswordChanged Kind = "password_changed"

	// Profile
	KindProfileCreated             Kind = "profile_created"
	KindProfileUpdated             Kind = "profile_updated"
	KindProfileViewed              Kind = "profile_viewed"
	KindProfileVisibilityChanged   Kind = "profile_visibility_changed"
	KindCompanyRegistered          Kind = "company_registered"
	KindCompanyVerificationChanged Kind = "company_verification_changed"
	KindScoreViewed                Kind = "score_viewed"

	// Review
	KindReviewCreated  Kind = "review_created"
	KindReviewUpdated  Kind = "review_updated"
	KindReviewDeleted  Kind = "review_deleted"
	KindReviewRejected Kind = "review_rejected"

	// Document
	KindDocumentUploaded     Kind = "document_uploaded"
	KindDocumentAutoVerified Kind = "document_auto_verified"
	KindDocumentVerified     Kind = "document_verified"
	KindDocumentRejected     Kind = "document_rejected"
	KindDocumentDeleted      Kind = "document_deleted"
	KindVerificationSynced   Kind = "verification_synced"

	// Search
	KindSearchPerformed Kind = "search_performed"

	// Consent
	KindConsentGranted Kind = "consent_granted"
	KindConsentRevoked Kind = "consent_revoked"

	// Security
	KindUnauthorizedAccess  Kind = "unauthorized_access"
	KindOwnershipViolation  Kind = "ownership_violation"
	KindSuspiciousActivity  Kind = "suspicious_activity_detected"
	KindFileCleanupFailed   Kind = "file_cleanup_failed"
	KindAuditRetentionPurge Kind = "audit_retention_purge"
)

var kindCategories = map[Kind]Category{
	KindLoginSucceeded:  CategoryAuthentication,
	KindLoginFailed:     CategoryAuthentication,
	KindLogout:          CategoryAuthentication,
	KindTokenRejected:   CategoryAuthentication,
	KindPasswordChanged: CategoryAuthentication,

	KindProfileCreated:             CategoryProfile,
	KindProfileUpdated:             CategoryProfile,
	KindProfileViewed:              CategoryProfile,
	KindProfileVisibilityChanged:   CategoryProfile,
	KindCompanyRegistered:          CategoryProfile,
	KindCompanyVerificationChanged: CategoryProfile,
	KindScoreViewed:                CategoryProfile,

	KindReviewCreated:  CategoryReview,
	KindReviewUpdated:  CategoryReview,
	KindReviewDeleted:  CategoryReview,
	KindReviewRejected: CategoryReview,

	KindDocumentUploaded:     CategoryDocument,
	KindDocumentAutoVerified: CategoryDocument,
	KindDocumentVerified:     CategoryDocument,
	KindDocumentRejected:     CategoryDocument,
	KindDocumentDeleted:      CategoryDocument,
	KindVerificationSynced:   CategoryDocument,

	KindSearchPerformed: CategorySearch,

	KindConsentGranted: CategoryConsent,
	KindConsentRevoked: CategoryConsent,

	KindUnauthorizedAccess:  CategorySecurity,
	KindOwnershipViolation:  CategorySecurity,
	KindSuspiciousActivity:  CategorySecurity,
	KindFileCleanupFailed:   CategorySecurity,
	KindAuditRetentionPurge: CategorySecurity,
}

// Category returns the category of k and false for unknown kinds.
func (k Kind) Category() (Category, bool) {
	c, ok := kindCategories[k]
	return c, ok
}

func (k Kind) IsValid() bool {
	_, ok := kindCategories[k]
	return ok
}

// Kinds returns every known kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindCategories))
	for k := range kindCategories {
		out = append(out, k)
	}
	return out
}

// DefaultRetention is how long entries stay readable before Purge removes them.
const DefaultRetention = 2 * 365 * 24 * time.Hour

// Entry is one append-only audit record.
//
// Invariants:
//   - Category == Kind.Category()
//   - Payload is nil or Payload.Category() == Category
//   - ExpiresAt = Timestamp + retention
type Entry struct {
	ID        uuid.UUID
	ActorID   string
	Kind      Kind
	Category  Category
	Outcome   Outcome
	Subject   string
	Payload   Payload
	RequestID string
	IP        string
	Device    string
	Timestamp time.Time
	ExpiresAt time.Time
}

// Validate checks the entry against its kind.
func (e Entry) Validate() error {
	category, ok := e.Kind.Category()
	if !ok {
		return fmt.Errorf("unknown audit kind %q", e.Kind)
	}
	if e.Category != "" && e.Category != category {
		return fmt.Errorf("audit kind %q belongs to %q, not %q", e.Kind, category, e.Category)
	}
	if !e.Outcome.IsValid() {
		return fmt.Errorf("invalid audit outcome %q", e.Outcome)
	}
	if e.Payload != nil && e.Payload.Category() != category {
		return fmt.Errorf("payload for %q must be a %s payload, got %s", e.Kind, category, e.Payload.Category())
	}
	return nil
}

// Expired reports whether the entry is past its retention horizon.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
