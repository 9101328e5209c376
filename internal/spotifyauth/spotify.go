package spotifyauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"

	"lyricfront/internal/config"
	"lyricfront/internal/session"
)

const (
	spotifyAuthURL    = "https://accounts.spotify.com/authorize"
	spotifyTokenURL   = "https://accounts.spotify.com/api/token"
	spotifyProfileURL = "https://api.spotify.com/v1/me"
)

// AuthURL generates the Spotify authorization URL for the given state
func AuthURL(spotifyConfig config.SpotifyConfig, state string) string {
	oauthConfig := newOAuth2Config(spotifyConfig)
	return oauthConfig.AuthCodeURL(state)
}

// ExchangeCode exchanges the authorization code for tokens
func ExchangeCode(ctx context.Context, spotifyConfig config.SpotifyConfig, code string) (*oauth2.Token, error) {
	oauthConfig := newOAuth2Config(spotifyConfig)
	return oauthConfig.Exchange(ctx, code)
}

// FetchProfile retrieves the authenticated user's Spotify profile
func FetchProfile(ctx context.Context, spotifyConfig config.SpotifyConfig, token *oauth2.Token) (session.Profile, error) {
	oauthConfig := newOAuth2Config(spotifyConfig)
	client := oauthConfig.Client(ctx, token)

	profileURL := spotifyProfileURL
	if customURL := os.Getenv("SPOTIFY_PROFILE_URL"); customURL != "" {
		profileURL = customURL
	}

	resp, err := client.Get(profileURL)
	if err != nil {
		return session.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return session.Profile{}, fmt.Errorf("failed to get profile: status %d", resp.StatusCode)
	}

	var profile session.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return session.Profile{}, fmt.Errorf("failed to decode profile: %w", err)
	}

	return profile, nil
}

// newOAuth2Config builds a fresh, request-scoped oauth2.Config. No client
// state is shared between requests, so concurrent callbacks can never race
// on each other's tokens.
func newOAuth2Config(spotifyConfig config.SpotifyConfig) oauth2.Config {
	// Custom OAuth endpoints can be provided for testing
	authURL := spotifyAuthURL
	if customURL := os.Getenv("SPOTIFY_OAUTH_AUTH_URL"); customURL != "" {
		authURL = customURL
	}
	tokenURL := spotifyTokenURL
	if customURL := os.Getenv("SPOTIFY_OAUTH_TOKEN_URL"); customURL != "" {
		tokenURL = customURL
	}

	return oauth2.Config{
		ClientID:     spotifyConfig.ClientID,
		ClientSecret: string(spotifyConfig.ClientSecret),
		RedirectURL:  spotifyConfig.CallbackURL,
		Scopes:       spotifyConfig.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}
}
