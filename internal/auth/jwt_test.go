package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "alice@example.com", "user")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "a@example.com", "user")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsForeignIssuer(t *testing.T) {
	secret := "shared-secret"
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "some-other-service",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := foreign.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewJWTService(secret, 1).Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsExpired(t *testing.T) {
	secret := "test-secret"
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewJWTService(secret, 1).Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
