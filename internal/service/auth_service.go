package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/library-api/internal/domain/entity"
	"github.com/yourusername/library-api/internal/domain/repository"
	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
	"github.com/yourusername/library-api/pkg/auth"
)

// AuthService handles account registration and login.
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService creates a new auth service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// RegisterUser creates an account once the email has passed verification.
// A duplicate email returns ErrConflict.
func (s *AuthService) RegisterUser(email, password, confirmPassword string) (*entity.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperrors.ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", apperrors.ErrValidation)
	}
	if password != confirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", apperrors.ErrValidation)
	}

	user := &entity.User{
		Email:    email,
		Password: password, // hashed by the BeforeSave hook
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.ErrConflict
		}
		log.Printf("[AuthService] failed to create user %s: %v", email, err)
		return nil, err
	}

	log.Printf("[AuthService] user registered: id=%d", user.ID)
	return user, nil
}

// LoginUser checks credentials and returns the user with a signed token.
// An unknown email and a wrong password produce the same ErrUnauthorized.
func (s *AuthService) LoginUser(email, password string) (*entity.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.ErrUnauthorized
		}
		return nil, "", err
	}

	if !user.CheckPassword(password) {
		return nil, "", apperrors.ErrUnauthorized
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Printf("[AuthService] failed to sign token for user %d: %v", user.ID, err)
		return nil, "", err
	}

	log.Printf("[AuthService] user logged in: id=%d", user.ID)
	return user, token, nil
}

// GetUserByID returns the user for an authenticated request.
func (s *AuthService) GetUserByID(id uint) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}
