package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these, optionally
// wrapped, and services translate them into domain errors:
//   - ErrNotFound: the row does not exist (or is soft-deleted where the store filters)
//   - ErrConflict: a uniqueness constraint was hit
//   - ErrUnavailable: the backing service could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
