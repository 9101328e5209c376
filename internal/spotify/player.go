// Package spotify is the token-bearing client for the Spotify Web API
// player endpoints.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.spotify.com/v1"

// Artist represents a Spotify artist
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album represents a Spotify album
type Album struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track represents a Spotify track
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
}

// currentlyPlayingResponse is the raw player payload
type currentlyPlayingResponse struct {
	IsPlaying  bool   `json:"is_playing"`
	ProgressMS int    `json:"progress_ms"`
	Item       *Track `json:"item"`
}

// NowPlaying is the request-scoped projection of the player state. It is
// derived per request and never persisted or cached.
type NowPlaying struct {
	IsPlaying bool
	Album     string
	Artist    string
	TrackName string
	Progress  int
	Duration  int
}

// MarshalJSON emits exactly {"isPlaying":false} when nothing is playing,
// and all six fields when something is. The web client branches on the
// isPlaying discriminator and must not see stray zero-valued fields.
func (n NowPlaying) MarshalJSON() ([]byte, error) {
	if !n.IsPlaying {
		return json.Marshal(map[string]bool{"isPlaying": false})
	}
	return json.Marshal(map[string]any{
		"isPlaying": true,
		"album":     n.Album,
		"artist":    n.Artist,
		"trackName": n.TrackName,
		"progress":  n.Progress,
		"duration":  n.Duration,
	})
}

// Client calls the Spotify player API. It holds no token state; every call
// builds a request-scoped HTTP client from the access token it is given.
type Client struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a player client. An empty baseURL selects the real
// Spotify API; tests point it at a stub server.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
	}
}

// CurrentlyPlaying fetches the user's currently playing track and maps it
// into NowPlaying. A 204 from the player endpoint means nothing is playing.
func (c *Client) CurrentlyPlaying(ctx context.Context, accessToken string) (NowPlaying, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me/player/currently-playing", nil)
	if err != nil {
		return NowPlaying{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return NowPlaying{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return NowPlaying{IsPlaying: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return NowPlaying{}, fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	var payload currentlyPlayingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return NowPlaying{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return mapNowPlaying(payload), nil
}

// mapNowPlaying projects the raw payload onto the client contract
func mapNowPlaying(payload currentlyPlayingResponse) NowPlaying {
	if !payload.IsPlaying || payload.Item == nil {
		return NowPlaying{IsPlaying: false}
	}

	artist := ""
	if len(payload.Item.Artists) > 0 {
		artist = payload.Item.Artists[0].Name
	}

	return NowPlaying{
		IsPlaying: true,
		Album:     payload.Item.Album.Name,
		Artist:    artist,
		TrackName: payload.Item.Name,
		Progress:  payload.ProgressMS,
		Duration:  payload.Item.DurationMS,
	}
}
