package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/library-api/internal/domain/entity"
	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
	"github.com/yourusername/library-api/internal/service"
)

// AuthHandler handles signup verification, registration, login and password
// reset requests.
type AuthHandler struct {
	authService         *service.AuthService
	verificationService *service.VerificationService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *service.AuthService, verificationService *service.VerificationService) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		verificationService: verificationService,
	}
}

// Request and response structures

// SendOTPRequest asks for a one-time code to be emailed.
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyOTPRequest submits a one-time code for checking.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// SignupRequest registers an account after the email was verified.
type SignupRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest asks for a password-reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest submits a new password under a reset token.
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// AuthResponse is returned on successful login.
type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *entity.User `json:"user"`
}

// SendOTP handles POST /api/auth/send-otp.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Valid email is required")
		return
	}

	if err := h.verificationService.RequestCode(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			respondError(c, http.StatusBadRequest, "Valid email is required")
		case errors.Is(err, service.ErrDeliveryFailure):
			respondError(c, http.StatusInternalServerError, "Failed to send OTP email")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to generate OTP")
		}
		return
	}

	respondOK(c, "OTP sent successfully")
}

// VerifyOTP handles POST /api/auth/verify-otp. A wrong code, a missing code
// and an expired code all come back as the same 400.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email and OTP are required")
		return
	}

	if err := h.verificationService.VerifyCode(c.Request.Context(), req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			respondError(c, http.StatusBadRequest, "Email and OTP are required")
		case errors.Is(err, service.ErrInvalidVerificationCode),
			errors.Is(err, service.ErrVerificationExpired):
			respondError(c, http.StatusBadRequest, "Incorrect or expired OTP")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to verify OTP")
		}
		return
	}

	respondOK(c, "OTP verified successfully")
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email and password (min 6 characters) are required")
		return
	}

	user, err := h.authService.RegisterUser(req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			respondError(c, http.StatusBadRequest, "Passwords do not match")
		case errors.Is(err, apperrors.ErrConflict):
			respondError(c, http.StatusConflict, "User already exists")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to create account")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Account created successfully",
		"user":    user,
	})
}

// Login handles POST /api/auth/login. An unknown email and a wrong password
// produce the same response.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.authService.LoginUser(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			respondError(c, http.StatusBadRequest, "Email and password are required")
		case errors.Is(err, apperrors.ErrUnauthorized):
			respondError(c, http.StatusUnauthorized, "Invalid credentials")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to log in")
		}
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Success: true,
		Message: "Logged in successfully",
		Token:   token,
		User:    user,
	})
}

// ForgotPassword handles POST /api/auth/forgot-password. An unknown email is
// reported as such; hiding account existence is out of scope here.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Valid email is required")
		return
	}

	if err := h.verificationService.RequestReset(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			respondError(c, http.StatusBadRequest, "Valid email is required")
		case errors.Is(err, apperrors.ErrNotFound):
			respondError(c, http.StatusBadRequest, "User not found")
		case errors.Is(err, service.ErrDeliveryFailure):
			respondError(c, http.StatusInternalServerError, "Failed to send reset email")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to process reset request")
		}
		return
	}

	respondOK(c, "Password reset email sent")
}

// ResetPassword handles POST /api/auth/reset-password/:token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Param("token")

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "New password (min 6 characters) is required")
		return
	}

	if err := h.verificationService.ResetPassword(c.Request.Context(), token, req.Password); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			respondError(c, http.StatusBadRequest, "New password (min 6 characters) is required")
		case errors.Is(err, service.ErrInvalidResetToken):
			respondError(c, http.StatusBadRequest, "Invalid or expired reset token")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to reset password")
		}
		return
	}

	respondOK(c, "Password reset successfully")
}

// Me handles GET /api/auth/me for authenticated requests.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.authService.GetUserByID(userID.(uint))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to load user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func respondOK(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}
