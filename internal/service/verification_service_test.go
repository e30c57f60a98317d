package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/library-api/internal/domain/entity"
	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
)

func newTestVerificationService(t *testing.T, userRepo *MockUserRepository, otpRepo *MockOTPRepository, email *MockEmailService) *VerificationService {
	t.Helper()
	svc, err := NewVerificationService(
		userRepo, otpRepo, email,
		10*time.Minute, time.Hour,
		"https://app.example.com/reset-password",
	)
	require.NoError(t, err)
	return svc
}

// ============================================================================
// RequestCode
// ============================================================================

func TestRequestCode_StoresThenDelivers(t *testing.T) {
	userRepo := new(MockUserRepository)
	otpRepo := new(MockOTPRepository)
	email := new(MockEmailService)

	var stored *entity.OneTimeCode
	otpRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*entity.OneTimeCode")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*entity.OneTimeCode)
		}).Return(nil)
	email.On("SendOneTimeCode", mock.Anything, "user@example.com", mock.AnythingOfType("string")).Return(nil)

	svc := newTestVerificationService(t, userRepo, otpRepo, email)
	err := svc.RequestCode(context.Background(), "  User@Example.COM ")
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, "user@example.com", stored.Email, "email must be normalized before storage")
	assert.Len(t, stored.Code, 6)
	n, convErr := strconv.Atoi(stored.Code)
	require.NoError(t, convErr)
	assert.GreaterOrEqual(t, n, 100000)
	assert.LessOrEqual(t, n, 999999)
	assert.WithinDuration(t, time.Now(), stored.IssuedAt, 2*time.Second)

	// Delivery carries the exact code that was stored.
	email.AssertCalled(t, "SendOneTimeCode", mock.Anything, "user@example.com", stored.Code)
}

func TestRequestCode_EmptyEmail(t *testing.T) {
	svc := newTestVerificationService(t, new(MockUserRepository), new(MockOTPRepository), new(MockEmailService))

	err := svc.RequestCode(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRequestCode_StorageFailure(t *testing.T) {
	otpRepo := new(MockOTPRepository)
	email := new(MockEmailService)
	otpRepo.On("Upsert", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := newTestVerificationService(t, new(MockUserRepository), otpRepo, email)
	err := svc.RequestCode(context.Background(), "user@example.com")

	assert.ErrorIs(t, err, ErrStorageFailure)
	email.AssertNotCalled(t, "SendOneTimeCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestCode_DeliveryFailureAfterStore(t *testing.T) {
	otpRepo := new(MockOTPRepository)
	email := new(MockEmailService)
	otpRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	email.On("SendOneTimeCode", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	svc := newTestVerificationService(t, new(MockUserRepository), otpRepo, email)
	err := svc.RequestCode(context.Background(), "user@example.com")

	// The code was persisted before delivery failed, and the error says so.
	assert.ErrorIs(t, err, ErrDeliveryFailure)
	otpRepo.AssertCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestRequestCode_ReissueReplacesPriorCode(t *testing.T) {
	otpRepo := new(MockOTPRepository)
	email := new(MockEmailService)

	var stored []*entity.OneTimeCode
	otpRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*entity.OneTimeCode")).
		Run(func(args mock.Arguments) {
			stored = append(stored, args.Get(1).(*entity.OneTimeCode))
		}).Return(nil)
	email.On("SendOneTimeCode", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestVerificationService(t, new(MockUserRepository), otpRepo, email)
	require.NoError(t, svc.RequestCode(context.Background(), "user@example.com"))
	require.NoError(t, svc.RequestCode(context.Background(), "user@example.com"))

	// Both writes target the same key, so the second upsert replaces the
	// first; only the latest code can ever verify.
	require.Len(t, stored, 2)
	assert.Equal(t, stored[0].Email, stored[1].Email)
	assert.NotEqual(t, stored[0].Code, stored[1].Code)
	assert.False(t, stored[1].IssuedAt.Before(stored[0].IssuedAt))
}

func TestGenerateOneTimeCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateOneTimeCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}

// ============================================================================
// VerifyCode
// ============================================================================

func TestVerifyCode_Success_DoesNotConsume(t *testing.T) {
	otpRepo := new(MockOTPRepository)
	record := &entity.OneTimeCode{
		Email:    "user@example.com",
		Code:     "123456",
		IssuedAt: time.Now().Add(-1 * time.Minute),
	}
	otpRepo.On("Get", mock.Anything, "user@example.com").Return(record, nil)

	svc := newTestVerificationService(t, new(MockUserRepository), otpRepo, new(MockEmailService))

	// The same code verifies repeatedly: success does not consume it.
	require.NoError(t, svc.VerifyCode(context.Background(), "user@example.com", "123456"))
	require.NoError(t, svc.VerifyCode(context.Background(), "User@Example.com", "123456"))
	otpRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestVerifyCode_WrongCodeAndMissingRecordLookAlike(t *testing.T) {
	otpRepo := new(MockOTPRepository)
	record := &entity.OneTimeCode{
		Email:    "known@example.com",
		Code:     "123456",
		IssuedAt: time.Now(),
	}
	otpRepo.On("Get", mock.Anything, "known@example.com").Return(record, nil)
	otpRepo.On("Get", mock.Anything, "unknown@example.com").Return(nil, apperrors.ErrNotFound)

	svc := newTestVerificationService(t, new(MockUserRepository), otpRepo, new(MockEmailService))

	errWrong := svc.VerifyCode(context.Background(), "known@example.com", "654321")
	errMissing := svc.VerifyCode(context.Background(), "unknown@example.com", "123456")

	assert.ErrorIs(t, errWrong, ErrInvalidVerificationCode)
	assert.ErrorIs(t, errMissing, ErrInvalidVerificationCode)
	// Both paths surface the same error value, so a caller cannot tell a
	// pending signup apart from no signup at all.
	assert.Equal(t, errWrong, errMissing)
}

func TestVerifyCode_Expired(t *testing.T) {
	otpRepo := new(MockOTPRepository)
	record := &entity.OneTimeCode{
		Email:    "user@example.com",
		Code:     "123456",
		IssuedAt: time.Now().Add(-11 * time.Minute),
	}
	otpRepo.On("Get", mock.Anything, "user@example.com").Return(record, nil)

	svc := newTestVerificationService(t, new(MockUserRepository), otpRepo, new(MockEmailService))
	err := svc.VerifyCode(context.Background(), "user@example.com", "123456")

	assert.ErrorIs(t, err, ErrVerificationExpired)
}

func TestVerifyCode_ExpiredButWrongCodeReportsMismatch(t *testing.T) {
	otpRepo := new(MockOTPRepository)
	record := &entity.OneTimeCode{
		Email:    "user@example.com",
		Code:     "123456",
		IssuedAt: time.Now().Add(-11 * time.Minute),
	}
	otpRepo.On("Get", mock.Anything, "user@example.com").Return(record, nil)

	svc := newTestVerificationService(t, new(MockUserRepository), otpRepo, new(MockEmailService))
	err := svc.VerifyCode(context.Background(), "user@example.com", "999999")

	// Mismatch is checked before expiry: a wrong code never learns whether a
	// live code exists.
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)
}

func TestVerifyCode_MissingParams(t *testing.T) {
	svc := newTestVerificationService(t, new(MockUserRepository), new(MockOTPRepository), new(MockEmailService))

	assert.ErrorIs(t, svc.VerifyCode(context.Background(), "", "123456"), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.VerifyCode(context.Background(), "user@example.com", ""), apperrors.ErrValidation)
}

// ============================================================================
// RequestReset
// ============================================================================

func TestRequestReset_IssuesTokenAndLink(t *testing.T) {
	userRepo := new(MockUserRepository)
	email := new(MockEmailService)

	user := &entity.User{ID: 7, Email: "user@example.com"}
	userRepo.On("GetByEmail", "user@example.com").Return(user, nil)

	var issuedToken string
	userRepo.On("SetResetToken", uint(7), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			issuedToken = args.String(1)
			expiry := args.Get(2).(time.Time)
			assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)
		}).Return(nil)
	email.On("SendPasswordReset", mock.Anything, "user@example.com", mock.AnythingOfType("string")).Return(nil)

	svc := newTestVerificationService(t, userRepo, new(MockOTPRepository), email)
	require.NoError(t, svc.RequestReset(context.Background(), "user@example.com"))

	require.NotEmpty(t, issuedToken)
	email.AssertCalled(t, "SendPasswordReset", mock.Anything, "user@example.com",
		"https://app.example.com/reset-password/"+issuedToken)
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("GetByEmail", "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	svc := newTestVerificationService(t, userRepo, new(MockOTPRepository), new(MockEmailService))
	err := svc.RequestReset(context.Background(), "ghost@example.com")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRequestReset_ReissueOverwritesToken(t *testing.T) {
	userRepo := new(MockUserRepository)
	email := new(MockEmailService)

	user := &entity.User{ID: 7, Email: "user@example.com"}
	userRepo.On("GetByEmail", "user@example.com").Return(user, nil)

	var tokens []string
	userRepo.On("SetResetToken", uint(7), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			tokens = append(tokens, args.String(1))
		}).Return(nil)
	email.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestVerificationService(t, userRepo, new(MockOTPRepository), email)
	require.NoError(t, svc.RequestReset(context.Background(), "user@example.com"))
	require.NoError(t, svc.RequestReset(context.Background(), "user@example.com"))

	require.Len(t, tokens, 2)
	assert.NotEqual(t, tokens[0], tokens[1], "each request issues a fresh token")
}

// ============================================================================
// ResetPassword
// ============================================================================

func TestResetPassword_Success(t *testing.T) {
	userRepo := new(MockUserRepository)

	var storedHash string
	userRepo.On("ConsumeResetToken", "tok-1", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			storedHash = args.String(1)
		}).Return(nil)

	svc := newTestVerificationService(t, userRepo, new(MockOTPRepository), new(MockEmailService))
	require.NoError(t, svc.ResetPassword(context.Background(), "tok-1", "newpassword"))

	// The repository receives a bcrypt hash of the new password, never the
	// plaintext.
	require.NotEqual(t, "newpassword", storedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("newpassword")))
}

func TestResetPassword_InvalidToken(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("ConsumeResetToken", "bad-token", mock.AnythingOfType("string")).
		Return(apperrors.ErrNotFound)

	svc := newTestVerificationService(t, userRepo, new(MockOTPRepository), new(MockEmailService))
	err := svc.ResetPassword(context.Background(), "bad-token", "newpassword")

	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPassword_Validation(t *testing.T) {
	svc := newTestVerificationService(t, new(MockUserRepository), new(MockOTPRepository), new(MockEmailService))

	assert.ErrorIs(t, svc.ResetPassword(context.Background(), "", "newpassword"), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.ResetPassword(context.Background(), "tok", ""), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.ResetPassword(context.Background(), "tok", "short"), apperrors.ErrValidation)
}

// fakeAtomicUserRepo backs ConsumeResetToken with a mutex so two goroutines
// racing on the same token resolve the way the SQL compare-and-clear does.
type fakeAtomicUserRepo struct {
	MockUserRepository

	mu    sync.Mutex
	token string
}

func (f *fakeAtomicUserRepo) ConsumeResetToken(token, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token != token {
		return apperrors.ErrNotFound
	}
	f.token = ""
	return nil
}

func TestResetPassword_ConcurrentConsumption_ExactlyOneWins(t *testing.T) {
	repo := &fakeAtomicUserRepo{token: "tok-race"}
	svc, err := NewVerificationService(
		repo, new(MockOTPRepository), new(MockEmailService),
		10*time.Minute, time.Hour, "https://app.example.com/reset-password",
	)
	require.NoError(t, err)

	results := make(chan error, 2)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < 2; i++ {
		go func() {
			start.Wait()
			results <- svc.ResetPassword(context.Background(), "tok-race", "newpassword")
		}()
	}
	start.Done()

	var succeeded, rejected int
	for i := 0; i < 2; i++ {
		if err := <-results; err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInvalidResetToken)
			rejected++
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one concurrent reset must win")
	assert.Equal(t, 1, rejected)
}

func TestResetPassword_TokenUnusableAfterConsumption(t *testing.T) {
	repo := &fakeAtomicUserRepo{token: "tok-once"}
	svc, err := NewVerificationService(
		repo, new(MockOTPRepository), new(MockEmailService),
		10*time.Minute, time.Hour, "https://app.example.com/reset-password",
	)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(context.Background(), "tok-once", "newpassword"))
	err = svc.ResetPassword(context.Background(), "tok-once", "anotherpassword")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}
