package server

import (
	"context"
	"net/http"
	"time"

	"lyricfront/internal/config"
	"lyricfront/internal/cookie"
	"lyricfront/internal/crypto"
	"lyricfront/internal/log"
	"lyricfront/internal/session"
	"lyricfront/internal/spotifyauth"
	"lyricfront/internal/storage"
)

// stateTTL bounds how long a pending authorization may take
const stateTTL = 10 * time.Minute

// AuthHandlers drives the OAuth flow: Anonymous -> PendingAuthorization
// (login redirect) -> Authenticated (callback persisted a session) ->
// Anonymous again on logout.
type AuthHandlers struct {
	spotifyConfig config.SpotifyConfig
	serverConfig  config.ServerConfig
	store         storage.Store
	stateToken    crypto.TokenSigner
	sessionTTL    time.Duration
}

// NewAuthHandlers creates the OAuth flow handlers
func NewAuthHandlers(cfg config.Config, store storage.Store) *AuthHandlers {
	return &AuthHandlers{
		spotifyConfig: cfg.Spotify,
		serverConfig:  cfg.Server,
		store:         store,
		stateToken:    crypto.NewTokenSigner([]byte(cfg.Sessions.SigningKey), stateTTL),
		sessionTTL:    cfg.Sessions.TTL.Unwrap(),
	}
}

// LoginHandler redirects the browser to Spotify's authorization URL.
// Nothing is persisted yet; the signed state parameter is the only
// artifact of the pending authorization.
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	nonce, err := crypto.GenerateSecureToken()
	if err != nil {
		log.LogError("Failed to generate state nonce: %v", err)
		http.Redirect(w, r, h.failureURL(), http.StatusFound)
		return
	}

	state, err := h.stateToken.Sign(session.AuthorizationState{
		Nonce:     nonce,
		ReturnURL: h.serverConfig.BaseURL + "/",
	})
	if err != nil {
		log.LogError("Failed to sign state: %v", err)
		http.Redirect(w, r, h.failureURL(), http.StatusFound)
		return
	}

	authURL := spotifyauth.AuthURL(h.spotifyConfig, state)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// CallbackHandler completes the authorization-code exchange. On success a
// session is persisted and the browser gets the session cookie plus the
// two token cookies the legacy client reads. On any failure the browser
// is redirected to the configured failure route; there is no retry.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		log.LogWarnWithFields("auth", "Authorization rejected by provider", map[string]any{
			"error": errParam,
		})
		http.Redirect(w, r, h.failureURL(), http.StatusFound)
		return
	}

	var state session.AuthorizationState
	if err := h.stateToken.Verify(r.URL.Query().Get("state"), &state); err != nil {
		log.LogWarnWithFields("auth", "Invalid state parameter", map[string]any{
			"error": err.Error(),
		})
		http.Redirect(w, r, h.failureURL(), http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		log.LogWarn("Callback missing authorization code")
		http.Redirect(w, r, h.failureURL(), http.StatusFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.spotifyConfig.Timeout.Unwrap())
	defer cancel()

	token, err := spotifyauth.ExchangeCode(ctx, h.spotifyConfig, code)
	if err != nil {
		log.LogErrorWithFields("auth", "Token exchange failed", map[string]any{
			"error": err.Error(),
		})
		http.Redirect(w, r, h.failureURL(), http.StatusFound)
		return
	}

	profile, err := spotifyauth.FetchProfile(ctx, h.spotifyConfig, token)
	if err != nil {
		log.LogErrorWithFields("auth", "Profile fetch failed", map[string]any{
			"error": err.Error(),
		})
		http.Redirect(w, r, h.failureURL(), http.StatusFound)
		return
	}

	sessionID, err := crypto.GenerateSecureToken()
	if err != nil {
		log.LogError("Failed to generate session ID: %v", err)
		http.Redirect(w, r, h.failureURL(), http.StatusFound)
		return
	}

	now := time.Now()
	sess := &session.Session{
		ID:           sessionID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Profile:      profile,
		CreatedAt:    now,
		ExpiresAt:    now.Add(h.sessionTTL),
	}

	if err := h.store.PutSession(r.Context(), sess); err != nil {
		log.LogErrorWithFields("auth", "Failed to persist session", map[string]any{
			"error": err.Error(),
		})
		http.Redirect(w, r, h.failureURL(), http.StatusFound)
		return
	}

	cookie.SetSession(w, sessionID, h.sessionTTL)
	cookie.SetTokens(w, token.AccessToken, token.RefreshToken)

	log.LogInfoWithFields("auth", "Login successful", map[string]any{
		"user": profile.ID,
	})

	returnURL := state.ReturnURL
	if returnURL == "" {
		returnURL = h.serverConfig.BaseURL + "/"
	}
	http.Redirect(w, r, returnURL, http.StatusFound)
}

// LogoutHandler invalidates the session and redirects. The delete is
// best-effort: the redirect and cookie clearing happen regardless, so a
// store outage can't trap a browser in a logged-in state.
func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := cookie.GetSession(r); err == nil && sessionID != "" {
		if err := h.store.DeleteSession(r.Context(), sessionID); err != nil {
			log.LogWarnWithFields("auth", "Failed to delete session on logout", map[string]any{
				"error": err.Error(),
			})
		}
	}

	cookie.ClearSession(w)
	cookie.ClearTokens(w)

	http.Redirect(w, r, h.serverConfig.BaseURL+"/", http.StatusFound)
}

func (h *AuthHandlers) failureURL() string {
	return h.serverConfig.FailureRedirect
}
