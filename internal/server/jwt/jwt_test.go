package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(accessTTL time.Duration) *Service {
	return NewService(Config{
		Secret:          []byte("test-secret-key"),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: 24 * time.Hour,
	})
}

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	svc := newTestService(15 * time.Minute)

	token, expiresIn, err := svc.GenerateAccessToken("user-123", "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(900), expiresIn)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "notesync", claims.Issuer)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := newTestService(-time.Minute)

	token, _, err := svc.GenerateAccessToken("user-123", "alice")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	svc := newTestService(15 * time.Minute)
	token, _, err := svc.GenerateAccessToken("user-123", "alice")
	require.NoError(t, err)

	other := NewService(Config{
		Secret:         []byte("another-secret"),
		AccessTokenTTL: 15 * time.Minute,
	})

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc := newTestService(15 * time.Minute)

	_, err := svc.ValidateAccessToken("not.a.jwt")
	assert.Error(t, err)
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	svc := newTestService(15 * time.Minute)

	first, expiresAt, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, first)
	assert.True(t, expiresAt.After(time.Now()))

	second, _, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
