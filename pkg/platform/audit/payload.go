package audit

import (
	"encoding/json"
	"fmt"
)

// Payload is the per-category event body. The set of implementations is
// closed: one struct per Category.
type Payload interface {
	Category() Category
	isPayload()
}

type AuthenticationPayload struct {
	Method string `json:"method,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type ProfilePayload struct {
	ProfileID  string `json:"profile_id,omitempty"`
	ViewerRole string `json:"viewer_role,omitempty"`
	Visible    *bool  `json:"visible,omitempty"`
	Verified   *bool  `json:"verified,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type ReviewPayload struct {
	ReviewID      string  `json:"review_id,omitempty"`
	CompanyID     string  `json:"company_id,omitempty"`
	EmployeeID    string  `json:"employee_id,omitempty"`
	AverageRating float64 `json:"average_rating,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

type DocumentPayload struct {
	DocumentID   string `json:"document_id,omitempty"`
	EmployeeID   string `json:"employee_id,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	// NumberHash is a keyed hash of the document number; raw numbers are never audited.
	NumberHash string `json:"number_hash,omitempty"`
	Status     string `json:"status,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type SearchPayload struct {
	Query       string `json:"query,omitempty"`
	ResultCount int    `json:"result_count"`
}

type ConsentPayload struct {
	EmployeeID string `json:"employee_id"`
	Granted    *bool  `json:"granted,omitempty"`
	Visible    *bool  `json:"visible,omitempty"`
}

type SecurityPayload struct {
	Reason   string `json:"reason"`
	Severity string `json:"severity,omitempty"`
	Count    int    `json:"count,omitempty"`
}

func (AuthenticationPayload) Category() Category { return CategoryAuthentication }
func (ProfilePayload) Category() Category        { return CategoryProfile }
func (ReviewPayload) Category() Category         { return CategoryReview }
func (DocumentPayload) Category() Category       { return CategoryDocument }
func (SearchPayload) Category() Category         { return CategorySearch }
func (ConsentPayload) Category() Category        { return CategoryConsent }
func (SecurityPayload) Category() Category       { return CategorySecurity }

func (AuthenticationPayload) isPayload() {}
func (ProfilePayload) isPayload()        {}
func (ReviewPayload) isPayload()         {}
func (DocumentPayload) isPayload()       {}
func (SearchPayload) isPayload()         {}
func (ConsentPayload) isPayload()        {}
func (SecurityPayload) isPayload()       {}

// EncodePayload marshals p for storage; a nil payload encodes as "{}".
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// DecodePayload is the inverse of EncodePayload, selecting the payload type
// from the entry's category.
func DecodePayload(category Category, raw []byte) (Payload, error) {
	if len(raw) == 0 || string(raw) == "{}" || string(raw) == "null" {
		return nil, nil
	}
	var (
		p   Payload
		err error
	)
	switch category {
	case CategoryAuthentication:
		p, err = decodeInto[AuthenticationPayload](raw)
	case CategoryProfile:
		p, err = decodeInto[ProfilePayload](raw)
	case CategoryReview:
		p, err = decodeInto[ReviewPayload](raw)
	case CategoryDocument:
		p, err = decodeInto[DocumentPayload](raw)
	case CategorySearch:
		p, err = decodeInto[SearchPayload](raw)
	case CategoryConsent:
		p, err = decodeInto[ConsentPayload](raw)
	case CategorySecurity:
		p, err = decodeInto[SecurityPayload](raw)
	default:
		return nil, fmt.Errorf("unknown audit category %q", category)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", category, err)
	}
	return p, nil
}

func decodeInto[T Payload](raw []byte) (Payload, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Bool returns a pointer for the optional flag fields on payloads.
func Bool(v bool) *bool { return &v }
