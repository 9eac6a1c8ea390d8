package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) JWTService {
	t.Helper()
	svc, err := NewJWTService(Config{Secret: "test-secret", Issuer: "healthmate-idp", Audience: "healthmate-api"})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newService(t)

	token, err := svc.GenerateToken("patient-1", RolePatient, "p@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "patient-1", claims.Subject)
	assert.Equal(t, RolePatient, claims.Role)
	assert.Equal(t, "p@example.com", claims.Email)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := newService(t)

	token, err := svc.GenerateToken("patient-1", RolePatient, "", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	other, err := NewJWTService(Config{Secret: "other", Issuer: "healthmate-idp", Audience: "healthmate-api"})
	require.NoError(t, err)
	token, err := other.GenerateToken("patient-1", RolePatient, "", time.Hour)
	require.NoError(t, err)

	_, err = newService(t).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	other, err := NewJWTService(Config{Secret: "test-secret", Issuer: "someone-else", Audience: "healthmate-api"})
	require.NoError(t, err)
	token, err := other.GenerateToken("admin-1", RoleAdmin, "", time.Hour)
	require.NoError(t, err)

	_, err = newService(t).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			Issuer:    "healthmate-idp",
			Audience:  jwt.ClaimStrings{"healthmate-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "doctor",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newService(t).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestGenerateRejectsUnknownRole(t *testing.T) {
	_, err := newService(t).GenerateToken("x", "nurse", "", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(Config{})
	assert.Error(t, err)
}
