package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/library-api/internal/domain/entity"
	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
)

// UserRepo implements repository.UserRepository on PostgreSQL.
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a new user repository.
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user. A duplicate email maps to ErrConflict.
func (r *UserRepo) Create(user *entity.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return err
	}
	return nil
}

// GetByID returns the user with the given ID.
func (r *UserRepo) GetByID(id uint) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns the user with the given (normalized) email.
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetResetToken writes a reset token and its expiry onto the user row,
// overwriting whatever token was there before.
func (r *UserRepo) SetResetToken(userID uint, token string, expiry time.Time) error {
	return r.db.Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_token":        token,
			"reset_token_expiry": expiry,
			"updated_at":         time.Now(),
		}).Error
}

// ConsumeResetToken swaps the password hash in and clears the token in one
// UPDATE. The WHERE clause matches only a live token, so of two concurrent
// consumptions exactly one sees RowsAffected == 1; the other gets
// ErrNotFound. Expiry is checked here, not left to any background sweep.
func (r *UserRepo) ConsumeResetToken(token, passwordHash string) error {
	result := r.db.Exec(
		`UPDATE users
		 SET password = ?, reset_token = NULL, reset_token_expiry = NULL, updated_at = ?
		 WHERE reset_token = ? AND reset_token_expiry > ?`,
		passwordHash, time.Now(), token, time.Now(),
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// isUniqueViolation checks for a Postgres unique violation (23505) under both
// the pgconn and lib/pq drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
