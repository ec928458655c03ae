package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/contract_manager/pkg/auth"
	"github.com/nurlyy/contract_manager/pkg/config"
)

func newManager() *auth.JWTManager {
	return auth.NewJWTManager(&config.JWTConfig{
		Secret:           "test-secret",
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: 24 * time.Hour,
		Issuer:           "contract-manager-test",
	})
}

func TestGenerateAndVerifyToken(t *testing.T) {
	manager := newManager()

	token, expiresAt, err := manager.GenerateToken("user-1", "user@example.com", "manager", auth.AccessToken)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := manager.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, string(auth.AccessToken), claims.Type)
	assert.Equal(t, "contract-manager-test", claims.Issuer)
}

func TestVerifyTokenRejectsMalformed(t *testing.T) {
	manager := newManager()

	_, err := manager.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	manager := newManager()
	other := auth.NewJWTManager(&config.JWTConfig{
		Secret:           "another-secret",
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: 24 * time.Hour,
		Issuer:           "contract-manager-test",
	})

	token, _, err := other.GenerateToken("user-1", "user@example.com", "viewer", auth.AccessToken)
	require.NoError(t, err)

	_, err = manager.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	expired := auth.NewJWTManager(&config.JWTConfig{
		Secret:           "test-secret",
		AccessExpiresIn:  -time.Minute,
		RefreshExpiresIn: 24 * time.Hour,
		Issuer:           "contract-manager-test",
	})

	token, _, err := expired.GenerateToken("user-1", "user@example.com", "viewer", auth.AccessToken)
	require.NoError(t, err)

	_, err = newManager().VerifyToken(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestGenerateTokenPair(t *testing.T) {
	manager := newManager()

	accessToken, refreshToken, err := manager.GenerateTokenPair("user-1", "user@example.com", "admin")
	require.NoError(t, err)

	accessClaims, err := manager.VerifyToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, string(auth.AccessToken), accessClaims.Type)

	refreshClaims, err := manager.VerifyToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, string(auth.RefreshToken), refreshClaims.Type)
}

func TestRefreshTokens(t *testing.T) {
	manager := newManager()

	accessToken, refreshToken, err := manager.GenerateTokenPair("user-1", "user@example.com", "lawyer")
	require.NoError(t, err)

	newAccess, newRefresh, err := manager.RefreshTokens(refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)

	claims, err := manager.VerifyToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "lawyer", claims.Role)

	// Access токен не принимается в качестве refresh
	_, _, err = manager.RefreshTokens(accessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
