// Package domainerrors defines the error vocabulary shared by services,
// stores and transport. Services return *Error values carrying a Code; the
// HTTP layer maps codes to status codes without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
	"maps"
)

// Code classifies an error for callers and transport mapping.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeInvariantViolation Code = "invariant_violation"
	// CodeWindowExceeded is returned when a review is submitted more than the
	// allowed number of days after employment ended.
	CodeWindowExceeded Code = "review_window_exceeded"
	CodeNotFound       Code = "not_found"
	CodeUnauthorized   Code = "unauthorized"
	// CodeForbidden covers cross-tenant mutation: a company touching a review
	// it does not own, an employee touching another employee's documents.
	CodeForbidden    Code = "forbidden"
	CodeConflict     Code = "conflict"
	CodeInvalidState Code = "invalid_state"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// Error is the concrete domain error.
type Error struct {
	Code    Code
	Message string
	// Fields carries field-level detail for validation failures
	// (field name -> reason).
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// Validation builds a CodeValidation error with field-level detail.
func Validation(message string, fields map[string]string) error {
	return &Error{Code: CodeValidation, Message: message, Fields: maps.Clone(fields)}
}

// As returns the outermost *Error in the chain, if any.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias for HasCode kept for call-site readability in handlers.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal for non-domain errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// FieldsOf returns validation field detail, if any.
func FieldsOf(err error) map[string]string {
	if de, ok := As(err); ok {
		return de.Fields
	}
	return nil
}
