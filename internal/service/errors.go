package service

import "errors"

// Verification flow errors used by handlers for stable error mapping.
//
// ErrInvalidVerificationCode deliberately covers both "no pending code" and
// "wrong code" so callers cannot probe which emails have a signup in flight.
var (
	ErrInvalidVerificationCode = errors.New("invalid_verification_code")
	ErrVerificationExpired     = errors.New("verification_expired")
	ErrInvalidResetToken       = errors.New("invalid_reset_token")

	// ErrStorageFailure and ErrDeliveryFailure keep infrastructure failures
	// apart: a code that was persisted but not delivered reports the latter.
	ErrStorageFailure  = errors.New("storage_failure")
	ErrDeliveryFailure = errors.New("delivery_failure")
)
