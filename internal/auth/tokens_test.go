package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService("test-secret", "storefront", "storefront-web",
		15*time.Minute, 7*24*time.Hour, 24*time.Hour)
}

func TestIssueAndVerifyTokenPair(t *testing.T) {
	svc := newTestTokenService()

	pair, err := svc.IssueTokenPair("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	userID, err := svc.Verify(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	userID, err = svc.Verify(pair.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	svc := newTestTokenService()

	pair, err := svc.IssueTokenPair("user-1")
	require.NoError(t, err)

	// A refresh token must not pass as an access token
	_, err = svc.Verify(pair.RefreshToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.Verify(pair.AccessToken, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	verify, err := svc.IssueVerifyToken("user-1")
	require.NoError(t, err)
	_, err = svc.Verify(verify, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", "storefront", "storefront-web",
		-time.Minute, -time.Minute, -time.Minute)

	pair, err := svc.IssueTokenPair("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService()
	other := NewTokenService("other-secret", "storefront", "storefront-web",
		15*time.Minute, 7*24*time.Hour, 24*time.Hour)

	pair, err := other.IssueTokenPair("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	svc := newTestTokenService()
	other := NewTokenService("test-secret", "someone-else", "storefront-web",
		15*time.Minute, 7*24*time.Hour, 24*time.Hour)

	pair, err := other.IssueTokenPair("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.Verify("not-a-token", TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, CheckPassword("correct horse battery", hash))
	assert.False(t, CheckPassword("wrong password", hash))
}

func TestHashPasswordTooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
