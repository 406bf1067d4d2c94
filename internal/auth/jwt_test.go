package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestSecret(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, InitJWTSecret())
}

func TestInitJWTSecretMissing(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.Error(t, InitJWTSecret())
}

func TestInitJWTSecretInvalidTTL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL_HOURS", "soon")
	assert.Error(t, InitJWTSecret())

	t.Setenv("JWT_TTL_HOURS", "0")
	assert.Error(t, InitJWTSecret())
}

func TestGenerateAndVerifyJWT(t *testing.T) {
	initTestSecret(t)

	tokenString, err := GenerateJWT(42, "oncall@example.com")
	require.NoError(t, err)

	token, err := VerifyJWT(tokenString)
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, issuer, claims["iss"])
	assert.Equal(t, float64(42), claims["user_id"])
	assert.Equal(t, "oncall@example.com", claims["email"])
}

func TestVerifyJWTRejectsGarbage(t *testing.T) {
	initTestSecret(t)

	_, err := VerifyJWT("not-a-token")
	assert.Error(t, err)
}

func TestVerifyJWTRejectsWrongSecret(t *testing.T) {
	initTestSecret(t)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":     issuer,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"user_id": 42,
	})
	tokenString, err := foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = VerifyJWT(tokenString)
	assert.Error(t, err)
}

func TestVerifyJWTRejectsExpired(t *testing.T) {
	initTestSecret(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":     issuer,
		"exp":     time.Now().Add(-time.Minute).Unix(),
		"user_id": 42,
	})
	tokenString, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = VerifyJWT(tokenString)
	assert.Error(t, err)
}

func TestTTLFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL_HOURS", "1")
	require.NoError(t, InitJWTSecret())
	t.Cleanup(func() { tokenTTL = defaultTTL })

	tokenString, err := GenerateJWT(7, "oncall@example.com")
	require.NoError(t, err)

	token, err := VerifyJWT(tokenString)
	require.NoError(t, err)

	claims := token.Claims.(jwt.MapClaims)
	exp := time.Unix(int64(claims["exp"].(float64)), 0)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}
