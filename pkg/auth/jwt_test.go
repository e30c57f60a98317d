package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService("", 24)
	assert.Error(t, err)
}

func TestJWTService_GenerateAndParse(t *testing.T) {
	service, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	tokenString, err := service.GenerateToken(42, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := service.ParseToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestJWTService_ParseToken_WrongSecret(t *testing.T) {
	issuer, err := NewJWTService("secret-a", 24)
	require.NoError(t, err)
	verifier, err := NewJWTService("secret-b", 24)
	require.NoError(t, err)

	tokenString, err := issuer.GenerateToken(1, "user@example.com")
	require.NoError(t, err)

	_, err = verifier.ParseToken(tokenString)
	assert.Error(t, err)
}

func TestJWTService_ParseToken_Expired(t *testing.T) {
	service, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	claims := &JWTCustomClaims{
		UserID: 1,
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = service.ParseToken(tokenString)
	assert.Error(t, err)
}

func TestJWTService_ParseToken_WrongAlgorithm(t *testing.T) {
	service, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTCustomClaims{UserID: 1})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ParseToken(tokenString)
	assert.Error(t, err)
}
