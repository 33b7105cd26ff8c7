package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenManager() *TokenManager {
	return NewTokenManager(testSecret, "cotizo-test", time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestTokenManager()
	user := &User{ID: 42, Email: "sales@example.com", FullName: "Sam Seller", Role: "sales"}

	token, expiresAt, err := m.IssueAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	id, email, fullName, role, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "sales@example.com", email)
	assert.Equal(t, "Sam Seller", fullName)
	assert.Equal(t, "sales", role)
}

func TestShareTokenRoundTrip(t *testing.T) {
	m := newTestTokenManager()

	token, expiresAt, err := m.IssueShareToken(17, 48*time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), expiresAt, time.Minute)

	id, err := m.VerifyShareToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)
}

func TestShareTokenExpiryRejected(t *testing.T) {
	m := newTestTokenManager()

	token, _, err := m.IssueShareToken(17, -time.Minute)
	require.NoError(t, err)

	_, err = m.VerifyShareToken(token)
	assert.Error(t, err)
}

func TestAudiencesDoNotCross(t *testing.T) {
	m := newTestTokenManager()

	shareToken, _, err := m.IssueShareToken(17, time.Hour)
	require.NoError(t, err)
	_, _, _, _, err = m.VerifyAccessToken(shareToken)
	assert.Error(t, err, "share token must not authenticate a user")

	accessToken, _, err := m.IssueAccessToken(&User{ID: 1, Email: "a@b.co", Role: "admin"})
	require.NoError(t, err)
	_, err = m.VerifyShareToken(accessToken)
	assert.Error(t, err, "user token must not open a share link")
}

func TestForeignKeyRejected(t *testing.T) {
	m := newTestTokenManager()
	other := NewTokenManager("ffffffffffffffffffffffffffffffff", "cotizo-test", time.Hour)

	token, _, err := other.IssueShareToken(17, time.Hour)
	require.NoError(t, err)

	_, err = m.VerifyShareToken(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	m := newTestTokenManager()
	_, err := m.VerifyShareToken("not-a-jwt")
	assert.Error(t, err)
	_, _, _, _, err = m.VerifyAccessToken("")
	assert.Error(t, err)
}
