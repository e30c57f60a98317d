package errors

import "errors"

// Shared application errors. Services wrap these with %w so handlers can map
// them to HTTP statuses with errors.Is.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for failed authentication (bad credentials,
	// bad token). The message is deliberately generic.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for state conflicts (e.g. duplicate email).
	ErrConflict = errors.New("resource state conflict")
)
