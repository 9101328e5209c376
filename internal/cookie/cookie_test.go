package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestSetSessionCookie(t *testing.T) {
	w := httptest.NewRecorder()
	SetSession(w, "session-id-123", 24*time.Hour)

	c := findCookie(t, w.Result().Cookies(), SessionCookie)
	assert.Equal(t, "session-id-123", c.Value)
	assert.True(t, c.HttpOnly, "session cookie must not be readable from scripts")
	assert.Equal(t, int((24 * time.Hour).Seconds()), c.MaxAge)
	assert.Equal(t, "/", c.Path)
}

func TestSetTokensLegacyContract(t *testing.T) {
	w := httptest.NewRecorder()
	SetTokens(w, "access-token", "refresh-token")

	cookies := w.Result().Cookies()

	access := findCookie(t, cookies, AccessTokenCookie)
	assert.Equal(t, "access-token", access.Value)
	// The web client reads both tokens from document.cookie and expects a
	// 900000ms expiry, so these two properties are part of the contract.
	assert.False(t, access.HttpOnly)
	assert.Equal(t, 900, access.MaxAge)

	refresh := findCookie(t, cookies, RefreshTokenCookie)
	assert.Equal(t, "refresh-token", refresh.Value)
	assert.False(t, refresh.HttpOnly)
	assert.Equal(t, 900, refresh.MaxAge)
}

func TestClearTokens(t *testing.T) {
	w := httptest.NewRecorder()
	ClearTokens(w)

	cookies := w.Result().Cookies()
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c := findCookie(t, cookies, name)
		assert.Equal(t, "", c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
}

func TestGetSession(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "session-id-123"})

	value, err := GetSession(r)
	require.NoError(t, err)
	assert.Equal(t, "session-id-123", value)
}

func TestGetSessionMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := GetSession(r)
	assert.ErrorIs(t, err, http.ErrNoCookie)
}
