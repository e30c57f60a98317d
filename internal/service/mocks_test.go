package service

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/library-api/internal/domain/entity"
	"github.com/yourusername/library-api/internal/domain/repository"
	"github.com/yourusername/library-api/internal/storage"
)

// ============================================================================
// Shared mocks for service tests
// ============================================================================

// MockUserRepository implements repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) SetResetToken(userID uint, token string, expiry time.Time) error {
	args := m.Called(userID, token, expiry)
	return args.Error(0)
}

func (m *MockUserRepository) ConsumeResetToken(token, passwordHash string) error {
	args := m.Called(token, passwordHash)
	return args.Error(0)
}

// MockOTPRepository implements repository.OTPRepository
type MockOTPRepository struct {
	mock.Mock
}

func (m *MockOTPRepository) Upsert(ctx context.Context, code *entity.OneTimeCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockOTPRepository) Get(ctx context.Context, email string) (*entity.OneTimeCode, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OneTimeCode), args.Error(1)
}

func (m *MockOTPRepository) Delete(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockEmailService implements EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendOneTimeCode(ctx context.Context, toEmail, code string) error {
	args := m.Called(ctx, toEmail, code)
	return args.Error(0)
}

func (m *MockEmailService) SendPasswordReset(ctx context.Context, toEmail, resetLink string) error {
	args := m.Called(ctx, toEmail, resetLink)
	return args.Error(0)
}

// MockBookRepository implements repository.BookRepository
type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) Create(book *entity.Book) error {
	args := m.Called(book)
	return args.Error(0)
}

func (m *MockBookRepository) GetByID(id uint) (*entity.Book, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Book), args.Error(1)
}

func (m *MockBookRepository) List(params repository.BookListParams) ([]entity.Book, int64, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Book), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookRepository) ListAll() ([]entity.Book, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Book), args.Error(1)
}

func (m *MockBookRepository) IncrementViews(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockBookRepository) IncrementDownloads(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockFileStorage implements storage.FileStorage
type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) Save(ctx context.Context, kind storage.Kind, filename string, r io.Reader) (string, error) {
	args := m.Called(ctx, kind, filename, r)
	return args.String(0), args.Error(1)
}

func (m *MockFileStorage) Resolve(ctx context.Context, key string) (storage.Location, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(storage.Location), args.Error(1)
}

func (m *MockFileStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
