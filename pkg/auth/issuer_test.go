package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopeworks/smile/pkg/identity"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() *identity.User {
	return &identity.User{
		ID:       7,
		Username: "mwilson",
		Email:    "mwilson@example.org",
	}
}

func TestIssueTokenPair(t *testing.T) {
	issuer := NewIssuer(testSecret, 30*time.Minute, 7*24*time.Hour)

	pair, err := issuer.IssueTokenPair(testUser(), []string{"Manager"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := issuer.ParseAccessToken(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "mwilson", claims.Username)
	assert.Equal(t, identity.RoleManager, claims.Role)
	assert.Equal(t, []string{"Manager"}, claims.Groups)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	refreshClaims, err := issuer.ParseRefreshToken(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
}

func TestIssueTokenPairNoRole(t *testing.T) {
	issuer := NewIssuer(testSecret, 30*time.Minute, 7*24*time.Hour)

	_, err := issuer.IssueTokenPair(testUser(), []string{"Accounting"})
	assert.ErrorIs(t, err, ErrRoleNotFound)

	_, err = issuer.IssueTokenPair(testUser(), nil)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestIssueTokenPairSuperuserWithoutGroups(t *testing.T) {
	issuer := NewIssuer(testSecret, 30*time.Minute, 7*24*time.Hour)

	user := testUser()
	user.IsSuperuser = true

	pair, err := issuer.IssueTokenPair(user, nil)
	require.NoError(t, err)

	claims, err := issuer.ParseAccessToken(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, claims.Role)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	issuer := NewIssuer(testSecret, 30*time.Minute, 7*24*time.Hour)

	pair, err := issuer.IssueTokenPair(testUser(), []string{"Viewer"})
	require.NoError(t, err)

	_, err = issuer.ParseAccessToken(pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.ParseRefreshToken(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := NewIssuer(testSecret, 30*time.Minute, 7*24*time.Hour)

	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }

	pair, err := issuer.IssueTokenPair(testUser(), []string{"Viewer"})
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(31 * time.Minute) }
	_, err = issuer.ParseAccessToken(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Refresh token is still within its TTL.
	_, err = issuer.ParseRefreshToken(pair.Refresh)
	assert.NoError(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := NewIssuer(testSecret, 30*time.Minute, 7*24*time.Hour)
	other := NewIssuer("ffffffffffffffffffffffffffffffff", 30*time.Minute, 7*24*time.Hour)

	pair, err := issuer.IssueTokenPair(testUser(), []string{"Admin"})
	require.NoError(t, err)

	_, err = other.ParseAccessToken(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	issuer := NewIssuer(testSecret, 30*time.Minute, 7*24*time.Hour)

	_, err := issuer.ParseAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
