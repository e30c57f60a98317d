package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/library-api/internal/domain/entity"
	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
)

const otpKeyPrefix = "otp:"

// OTPRepo implements repository.OTPRepository on Redis. SET with a TTL gives
// the upsert-and-reset-expiry semantics in one atomic per-key operation, and
// Redis garbage-collects expired codes on its own. Callers still check the
// issue timestamp: the key TTL is a best-effort sweep, not the source of
// truth for expiry.
type OTPRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewOTPRepo creates a new one-time-code repository.
func NewOTPRepo(client redis.UniversalClient, ttl time.Duration) (*OTPRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for OTPRepo")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OTPRepo{client: client, ttl: ttl}, nil
}

// Upsert stores the code under its email, replacing any prior value and
// restarting the key TTL.
func (r *OTPRepo) Upsert(ctx context.Context, code *entity.OneTimeCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, otpKeyPrefix+code.Email, data, r.ttl).Err()
}

// Get returns the live code for the email, or ErrNotFound.
func (r *OTPRepo) Get(ctx context.Context, email string) (*entity.OneTimeCode, error) {
	data, err := r.client.Get(ctx, otpKeyPrefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	var code entity.OneTimeCode
	if err := json.Unmarshal(data, &code); err != nil {
		return nil, fmt.Errorf("failed to decode one-time code: %w", err)
	}
	return &code, nil
}

// Delete removes the code for the email, if any.
func (r *OTPRepo) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, otpKeyPrefix+email).Err()
}
