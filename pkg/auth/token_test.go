package auth

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenPair_Validation(t *testing.T) {
	now := time.Now()

	_, err := NewTokenPair("access", "refresh", "Bearer", now, 0)
	require.ErrorIs(t, err, ErrInvalidExpiry)

	_, err = NewTokenPair("access", "refresh", "Bearer", now, -10)
	require.ErrorIs(t, err, ErrInvalidExpiry)

	_, err = NewTokenPair("", "refresh", "Bearer", now, 3600)
	require.Error(t, err)

	tp, err := NewTokenPair("access", "refresh", "Bearer", now, 3600)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), tp.IssuedAt.Unix())
	assert.Equal(t, 0, tp.IssuedAt.Nanosecond())
}

func TestTokenPair_Expiry(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	tp, err := NewTokenPair("a", "r", "Bearer", issued, 3600)
	require.NoError(t, err)

	expiresAt := issued.Add(time.Hour)
	assert.True(t, tp.ExpiresAt().Equal(expiresAt))

	t.Run("fresh token is neither expired nor due", func(t *testing.T) {
		assert.False(t, tp.IsExpired(issued))
		assert.False(t, tp.NeedsRefresh(issued))
	})

	t.Run("needs refresh inside the five minute window", func(t *testing.T) {
		assert.True(t, tp.NeedsRefresh(expiresAt.Add(-RefreshWindow)))
		assert.True(t, tp.NeedsRefresh(expiresAt.Add(-time.Minute)))
		assert.False(t, tp.NeedsRefresh(expiresAt.Add(-RefreshWindow-time.Second)))
		assert.False(t, tp.IsExpired(expiresAt.Add(-time.Minute)))
	})

	t.Run("expired at and after expiry", func(t *testing.T) {
		assert.True(t, tp.IsExpired(expiresAt))
		assert.True(t, tp.IsExpired(expiresAt.Add(time.Second)))
		assert.True(t, tp.NeedsRefresh(expiresAt))
	})
}

func TestTokenPair_NotExpiredImmediatelyAfterConstruction(t *testing.T) {
	for _, expiresIn := range []int{301, 900, 3600, 86400} {
		tp, err := NewTokenPair("a", "r", "Bearer", time.Now(), expiresIn)
		require.NoError(t, err)
		assert.False(t, tp.IsExpired(time.Now()), "expires_in=%d", expiresIn)
	}
}

func TestTokenPair_JSONRoundTrip(t *testing.T) {
	tp, err := NewTokenPair("access-1", "refresh-1", "Bearer", time.Now(), 7200)
	require.NoError(t, err)

	data, err := json.Marshal(tp)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "access-1", raw["access_token"])
	assert.Equal(t, "refresh-1", raw["refresh_token"])
	assert.Equal(t, float64(7200), raw["expires_in"])
	assert.Equal(t, float64(tp.IssuedAt.Unix()), raw["created_at"])

	var decoded TokenPair
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, tp, decoded)
}

func TestTokenPair_StringRedacts(t *testing.T) {
	tp, err := NewTokenPair("super-secret-access", "super-secret-refresh", "Bearer", time.Now(), 3600)
	require.NoError(t, err)

	for _, s := range []string{tp.String(), fmt.Sprintf("%v", tp), fmt.Sprintf("%#v", tp)} {
		assert.NotContains(t, s, "super-secret")
		assert.Contains(t, s, "[REDACTED]")
	}
	assert.Equal(t, "Bearer super-secret-access", tp.BearerHeader())
}

func TestSessionState_String(t *testing.T) {
	testCases := []struct {
		state    SessionState
		expected string
	}{
		{StateUnauthenticated, "unauthenticated"},
		{StateAuthenticated, "authenticated"},
		{StateMfaPending, "mfa_pending"},
		{SessionState(99), "unknown"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.state.String())
	}
}

func TestUserProfile_DisplayName(t *testing.T) {
	assert.Equal(t, "A B", UserProfile{FirstName: "A", LastName: "B", Email: "a@b.com"}.DisplayName())
	assert.Equal(t, "a@b.com", UserProfile{Email: "a@b.com"}.DisplayName())
}

func TestNewStatusResponse(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tp, err := NewTokenPair("a", "r", "Bearer", now, 200)
	require.NoError(t, err)
	user := UserProfile{ID: "u1", Email: "a@b.com", FirstName: "A", LastName: "B"}

	resp := NewStatusResponse(Session{State: StateAuthenticated, Tokens: &tp, User: &user}, now, "keychain")
	assert.True(t, resp.Authenticated)
	assert.Equal(t, "authenticated", resp.State)
	assert.Equal(t, "A B", resp.User)
	assert.True(t, resp.NeedsRefresh)
	assert.True(t, resp.HasRefresh)
	require.NotNil(t, resp.ExpiresAt)
	assert.True(t, resp.ExpiresAt.Equal(now.Add(200*time.Second)))

	empty := NewStatusResponse(Session{}, now, "file")
	assert.False(t, empty.Authenticated)
	assert.Nil(t, empty.ExpiresAt)
}
