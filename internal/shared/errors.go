package shared

import "errors"

// Domain error taxonomy. Services return these (usually wrapped with
// fmt.Errorf) and the httpx layer maps them to transport status codes.
var (
	// ErrValidation indicates malformed or out-of-range caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or foreign-reference conflict.
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition indicates a status change outside the allowed table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrImmutableState indicates an edit attempted on a non-draft quotation.
	ErrImmutableState = errors.New("quotation is no longer editable")
	// ErrConfiguration indicates a required pricing setting is missing.
	ErrConfiguration = errors.New("pricing configuration missing")
	// ErrLookup indicates no freight rate or HS code matched the request.
	ErrLookup = errors.New("pricing lookup failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
