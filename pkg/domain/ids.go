package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "trustline/pkg/domain-errors"
)

// Typed identifiers. Each is a distinct named type over uuid.UUID so that an
// EmployeeID can never be passed where a CompanyID is expected.
type (
	UserID     uuid.UUID
	EmployeeID uuid.UUID
	CompanyID  uuid.UUID
	ReviewID   uuid.UUID
	DocumentID uuid.UUID
)

const maxIDLength = 64

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id EmployeeID) String() string { return uuid.UUID(id).String() }
func (id CompanyID) String() string  { return uuid.UUID(id).String() }
func (id ReviewID) String() string   { return uuid.UUID(id).String() }
func (id DocumentID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EmployeeID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CompanyID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ReviewID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewEmployeeID, NewCompanyID, ... mint fresh random identifiers.
func NewUserID() UserID         { return UserID(uuid.New()) }
func NewEmployeeID() EmployeeID { return EmployeeID(uuid.New()) }
func NewCompanyID() CompanyID   { return CompanyID(uuid.New()) }
func NewReviewID() ReviewID     { return ReviewID(uuid.New()) }
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// parseUUID is the single validation path for every ID type.
//
// Errors: returns CodeInvalidInput for empty, oversized, non-UTF8, malformed
// or nil UUIDs.
func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return parsed, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParseEmployeeID(s string) (EmployeeID, error) {
	u, err := parseUUID(s, "employee id")
	return EmployeeID(u), err
}

func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s, "company id")
	return CompanyID(u), err
}

func ParseReviewID(s string) (ReviewID, error) {
	u, err := parseUUID(s, "review id")
	return ReviewID(u), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document id")
	return DocumentID(u), err
}

// Text marshalling keeps IDs as canonical strings in JSON payloads.

func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id EmployeeID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id CompanyID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id ReviewID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id DocumentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error     { return unmarshalID((*uuid.UUID)(id), b) }
func (id *EmployeeID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }
func (id *CompanyID) UnmarshalText(b []byte) error  { return unmarshalID((*uuid.UUID)(id), b) }
func (id *ReviewID) UnmarshalText(b []byte) error   { return unmarshalID((*uuid.UUID)(id), b) }
func (id *DocumentID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }

func unmarshalID(dst *uuid.UUID, b []byte) error {
	parsed, err := parseUUID(string(b), "id")
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}
