package repository

import (
	"time"

	"github.com/yourusername/library-api/internal/domain/entity"
)

// UserRepository defines methods for working with user records.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)

	// SetResetToken writes token/expiry onto the user row, overwriting any
	// previously issued token.
	SetResetToken(userID uint, token string, expiry time.Time) error

	// ConsumeResetToken atomically matches a live (unexpired) reset token,
	// replaces the password hash and clears the token in a single storage
	// operation. Returns ErrNotFound when no live token matches, so a second
	// consumption of the same token fails.
	ConsumeResetToken(token, passwordHash string) error
}
