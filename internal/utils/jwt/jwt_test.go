package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestVerifyToken(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateAccessToken(userID, testSecret, 15*time.Minute)
	require.NoError(t, err)

	claims, err := VerifyToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), testSecret, 15*time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), testSecret, -1*time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(token, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyTokenMalformed(t *testing.T) {
	_, err := VerifyToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateRefreshToken(userID, testSecret, 7*24*time.Hour)
	require.NoError(t, err)

	claims, err := VerifyToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}
