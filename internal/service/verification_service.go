package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/library-api/internal/domain/entity"
	"github.com/yourusername/library-api/internal/domain/repository"
	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
)

// VerificationService issues and checks one-time signup codes and drives the
// password reset flow.
type VerificationService struct {
	userRepo     repository.UserRepository
	otpRepo      repository.OTPRepository
	emailService EmailService
	otpTTL       time.Duration
	resetTTL     time.Duration
	resetBaseURL string
}

// NewVerificationService creates a new verification service.
func NewVerificationService(
	userRepo repository.UserRepository,
	otpRepo repository.OTPRepository,
	emailService EmailService,
	otpTTL time.Duration,
	resetTTL time.Duration,
	resetBaseURL string,
) (*VerificationService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("userRepo cannot be nil")
	}
	if otpRepo == nil {
		return nil, fmt.Errorf("otpRepo cannot be nil")
	}
	if emailService == nil {
		return nil, fmt.Errorf("emailService cannot be nil")
	}
	if otpTTL <= 0 {
		otpTTL = 10 * time.Minute
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &VerificationService{
		userRepo:     userRepo,
		otpRepo:      otpRepo,
		emailService: emailService,
		otpTTL:       otpTTL,
		resetTTL:     resetTTL,
		resetBaseURL: strings.TrimRight(resetBaseURL, "/"),
	}, nil
}

// RequestCode generates a fresh six-digit code for the email, stores it
// (replacing any previous code and restarting its lifetime), then delivers it.
// Storage failures and delivery failures come back as distinct errors: after
// ErrDeliveryFailure the code is already persisted and verifiable.
func (s *VerificationService) RequestCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}

	code, err := generateOneTimeCode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	record := &entity.OneTimeCode{
		Email:    email,
		Code:     code,
		IssuedAt: time.Now(),
	}
	if err := s.otpRepo.Upsert(ctx, record); err != nil {
		log.Printf("[VerificationService] failed to store code for %s: %v", email, err)
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if err := s.emailService.SendOneTimeCode(ctx, email, code); err != nil {
		log.Printf("[VerificationService] failed to deliver code to %s: %v", email, err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}

	log.Printf("[VerificationService] one-time code issued for %s", email)
	return nil
}

// VerifyCode checks the submitted code against the pending one for the email.
// A missing record and a wrong code are indistinguishable to the caller. The
// code is not consumed on success, so the same code verifies again until it
// expires or is replaced.
func (s *VerificationService) VerifyCode(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return fmt.Errorf("%w: email and code are required", apperrors.ErrValidation)
	}

	record, err := s.otpRepo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrInvalidVerificationCode
		}
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		return ErrInvalidVerificationCode
	}

	// The store evicts expired codes on its own, but expiry is decided here
	// from the issue timestamp, not from eviction timing.
	if record.IsExpired(time.Now(), s.otpTTL) {
		return ErrVerificationExpired
	}

	return nil
}

// RequestReset issues a reset token for an existing account and emails a link
// carrying it. An unknown email returns ErrNotFound; callers that want to
// hide account existence must map it themselves.
func (s *VerificationService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return err
	}

	token := uuid.NewString()
	expiry := time.Now().Add(s.resetTTL)
	if err := s.userRepo.SetResetToken(user.ID, token, expiry); err != nil {
		log.Printf("[VerificationService] failed to store reset token for %s: %v", email, err)
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	link := fmt.Sprintf("%s/%s", s.resetBaseURL, token)
	if err := s.emailService.SendPasswordReset(ctx, email, link); err != nil {
		log.Printf("[VerificationService] failed to deliver reset link to %s: %v", email, err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}

	log.Printf("[VerificationService] reset token issued for user %d", user.ID)
	return nil
}

// ResetPassword consumes a live reset token and installs the new password.
// The swap happens in a single conditional update, so a token can only ever
// be spent once even under concurrent submissions.
func (s *VerificationService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password are required", apperrors.ErrValidation)
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", apperrors.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if err := s.userRepo.ConsumeResetToken(token, string(hash)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("[VerificationService] password reset completed")
	return nil
}

// generateOneTimeCode draws a uniform six-digit code from [100000, 999999].
func generateOneTimeCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
