package cookie

import (
	"net/http"
	"time"

	"lyricfront/internal/envutil"
	"lyricfront/internal/log"
)

// Cookie names used in lyricfront
const (
	// SessionCookie carries the opaque server-side session ID
	SessionCookie = "lyricfront_session"

	// AccessTokenCookie and RefreshTokenCookie expose the Spotify tokens to
	// the browser. The legacy web client reads these directly, which is why
	// they are not HttpOnly. Documented trade-off, not an accident.
	AccessTokenCookie  = "user.token"
	RefreshTokenCookie = "user.refresh"
)

// TokenCookieMaxAge matches the legacy client contract: 900000 ms
const TokenCookieMaxAge = 900 * time.Second

// SetSession sets the session cookie with appropriate security settings
func SetSession(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := !envutil.IsDev()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})

	log.LogDebugWithFields("cookie", "Session cookie set", map[string]any{
		"maxAge": maxAge.String(),
		"secure": secure,
	})
}

// SetTokens sets the browser-readable token cookies
func SetTokens(w http.ResponseWriter, accessToken, refreshToken string) {
	secure := !envutil.IsDev()
	for _, c := range []struct {
		name  string
		value string
	}{
		{AccessTokenCookie, accessToken},
		{RefreshTokenCookie, refreshToken},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    c.value,
			Path:     "/",
			HttpOnly: false, // the web client reads these from document.cookie
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(TokenCookieMaxAge.Seconds()),
		})
	}
}

// Clear removes a cookie by setting MaxAge to -1
func Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// ClearSession removes the session cookie
func ClearSession(w http.ResponseWriter) {
	Clear(w, SessionCookie)
}

// ClearTokens removes the browser-readable token cookies
func ClearTokens(w http.ResponseWriter) {
	Clear(w, AccessTokenCookie)
	Clear(w, RefreshTokenCookie)
}

// Get retrieves a cookie value from the request
func Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// GetSession retrieves the session cookie value
func GetSession(r *http.Request) (string, error) {
	return Get(r, SessionCookie)
}
