package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/femmie/marketplace/internal/core/domain"
)

func testUser() *domain.User {
	return &domain.User{ID: "u-1", Email: "ann@x.com", Role: domain.RoleRegular}
}

func TestManager_AccessToken_Roundtrip(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	u := testUser()

	pair, err := m.Issue(u)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	id, err := m.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: "u-1", Email: "ann@x.com", Role: domain.RoleRegular}, id)
}

func TestManager_RefreshToken_BoundToUser(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	u := testUser()

	pair, err := m.Issue(u)
	require.NoError(t, err)

	email, err := m.ExtractRefreshIdentity(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.Email, email)

	assert.True(t, m.IsValidRefresh(pair.RefreshToken, u))
	assert.False(t, m.IsValidRefresh(pair.RefreshToken, &domain.User{ID: "u-2", Email: "bob@x.com"}))
	assert.False(t, m.IsValidRefresh(pair.RefreshToken, &domain.User{ID: "u-2", Email: u.Email}))
	assert.False(t, m.IsValidRefresh(pair.RefreshToken, nil))
}

func TestManager_TokenTypeMismatch(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	u := testUser()

	pair, err := m.Issue(u)
	require.NoError(t, err)

	_, err = m.ExtractRefreshIdentity(pair.AccessToken)
	require.ErrorIs(t, err, errTokenType)
	assert.False(t, m.IsValidRefresh(pair.AccessToken, u))

	_, err = m.VerifyAccess(pair.RefreshToken)
	require.ErrorIs(t, err, errTokenType)
}

func TestManager_ExpiredRefreshToken(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour, WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	u := testUser()

	pair, err := m.Issue(u)
	require.NoError(t, err)

	// Decoding ignores expiry; validation does not.
	email, err := m.ExtractRefreshIdentity(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.Email, email)
	assert.False(t, m.IsValidRefresh(pair.RefreshToken, u))

	_, err = m.VerifyAccess(pair.AccessToken)
	require.Error(t, err)
}

func TestManager_WrongSecret(t *testing.T) {
	issuer := NewManager("secret", time.Minute, time.Hour)
	other := NewManager("other", time.Minute, time.Hour)
	u := testUser()

	pair, err := issuer.Issue(u)
	require.NoError(t, err)

	_, err = other.ExtractRefreshIdentity(pair.RefreshToken)
	require.Error(t, err)
	assert.False(t, other.IsValidRefresh(pair.RefreshToken, u))
	_, err = other.VerifyAccess(pair.AccessToken)
	require.Error(t, err)
}

func TestManager_Garbage(t *testing.T) {
	m := NewManager("secret", 0, 0)
	assert.Equal(t, defaultAccessTTL, m.accessTTL)
	assert.Equal(t, defaultRefreshTTL, m.refreshTTL)

	_, err := m.ExtractRefreshIdentity("not-a-token")
	require.Error(t, err)
	_, err = m.VerifyAccess("")
	require.Error(t, err)
}
