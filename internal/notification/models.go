// Package notification delivers in-app notices to employees and companies.
// Delivery is fire-and-forget: senders never see a failure.
package notification

import "time"

type Kind string

const (
	KindReviewReceived      Kind = "review_received"
	KindReviewUpdated       Kind = "review_updated"
	KindReviewDeleted       Kind = "review_deleted"
	KindDocumentVerified    Kind = "document_verified"
	KindDocumentRejected    Kind = "document_rejected"
	KindDocumentUnderReview Kind = "document_under_review"
	KindCompanyVerified     Kind = "company_verified"
)

// Notification is addressed to a profile (employee or company) by its ID.
type Notification struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Subject   string    `json:"subject,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
