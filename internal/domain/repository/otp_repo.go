package repository

import (
	"context"

	"github.com/yourusername/library-api/internal/domain/entity"
)

// OTPRepository is the one-time-code store: one live code per email with
// upsert-on-reissue semantics. The store expires entries on its own
// best-effort; callers must still check the code's age explicitly.
type OTPRepository interface {
	// Upsert stores the code under its email, replacing any prior code and
	// restarting the store-side expiry.
	Upsert(ctx context.Context, code *entity.OneTimeCode) error

	// Get returns the live code for the email, or ErrNotFound.
	Get(ctx context.Context, email string) (*entity.OneTimeCode, error)

	// Delete removes the code for the email, if any.
	Delete(ctx context.Context, email string) error
}
