// Package musixmatch is a stateless client for the Musixmatch lyrics API.
// It is unrelated to the Spotify OAuth tokens; lookups are keyed only by
// the caller-supplied track and artist.
package musixmatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"lyricfront/internal/log"
)

const defaultBaseURL = "https://api.musixmatch.com/ws/1.1"

// LyricsResult is the normalized lookup outcome. A nil Lyrics means "not
// found or upstream failure", never "empty lyrics".
type LyricsResult struct {
	Lyrics *string `json:"lyrics"`
	Album  string  `json:"album,omitempty"`
}

// searchResponse is the track.search payload, trimmed to what we read
type searchResponse struct {
	Message struct {
		Header struct {
			StatusCode int `json:"status_code"`
		} `json:"header"`
		Body struct {
			TrackList []struct {
				Track struct {
					CommontrackID int    `json:"commontrack_id"`
					TrackName     string `json:"track_name"`
					ArtistName    string `json:"artist_name"`
					AlbumName     string `json:"album_name"`
				} `json:"track"`
			} `json:"track_list"`
		} `json:"body"`
	} `json:"message"`
}

// subtitleResponse is the track.subtitle.get payload, trimmed to what we read
type subtitleResponse struct {
	Message struct {
		Header struct {
			StatusCode int `json:"status_code"`
		} `json:"header"`
		Body struct {
			Subtitle struct {
				SubtitleBody string `json:"subtitle_body"`
			} `json:"subtitle"`
		} `json:"body"`
	} `json:"message"`
}

// Client performs the two-step Musixmatch lookup: search the track by
// name and artist, then fetch the subtitle by the resolved commontrack ID.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	group      singleflight.Group
}

// NewClient creates a Musixmatch client. An empty baseURL selects the
// real API; tests point it at a stub server.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetLyrics resolves lyrics for the given track and artist. Concurrent
// identical lookups share a single upstream flight; results are never
// cached beyond that, so every later poll re-executes the lookup.
func (c *Client) GetLyrics(ctx context.Context, trackName, artist string) (LyricsResult, error) {
	key := trackName + "\x00" + artist
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.lookup(ctx, trackName, artist)
	})
	if err != nil {
		return LyricsResult{}, err
	}
	return v.(LyricsResult), nil
}

func (c *Client) lookup(ctx context.Context, trackName, artist string) (LyricsResult, error) {
	commontrackID, album, err := c.searchTrack(ctx, trackName, artist)
	if err != nil {
		return LyricsResult{}, err
	}
	if commontrackID == 0 {
		// No match; not an error, the caller maps this to lyrics:null
		return LyricsResult{}, nil
	}

	log.LogDebugWithFields("musixmatch", "Resolved track", map[string]any{
		"track":          trackName,
		"artist":         artist,
		"commontrack_id": commontrackID,
	})

	subtitle, err := c.trackSubtitle(ctx, commontrackID)
	if err != nil {
		return LyricsResult{}, err
	}
	if subtitle == "" {
		return LyricsResult{}, nil
	}

	return LyricsResult{Lyrics: &subtitle, Album: album}, nil
}

// searchTrack returns the commontrack ID and album of the best match,
// or a zero ID when nothing with a subtitle matches
func (c *Client) searchTrack(ctx context.Context, trackName, artist string) (int, string, error) {
	params := url.Values{}
	params.Set("q_track", trackName)
	params.Set("q_artist", artist)
	params.Set("f_has_subtitle", "1")

	var payload searchResponse
	if err := c.doRequest(ctx, "/track.search", params, &payload); err != nil {
		return 0, "", err
	}

	if payload.Message.Header.StatusCode != 0 && payload.Message.Header.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("musixmatch search error: status %d", payload.Message.Header.StatusCode)
	}
	if len(payload.Message.Body.TrackList) == 0 {
		return 0, "", nil
	}

	best := payload.Message.Body.TrackList[0].Track
	return best.CommontrackID, best.AlbumName, nil
}

// trackSubtitle fetches the subtitle body for a commontrack ID
func (c *Client) trackSubtitle(ctx context.Context, commontrackID int) (string, error) {
	params := url.Values{}
	params.Set("commontrack_id", fmt.Sprintf("%d", commontrackID))

	var payload subtitleResponse
	if err := c.doRequest(ctx, "/track.subtitle.get", params, &payload); err != nil {
		return "", err
	}

	if payload.Message.Header.StatusCode != 0 && payload.Message.Header.StatusCode != http.StatusOK {
		return "", fmt.Errorf("musixmatch subtitle error: status %d", payload.Message.Header.StatusCode)
	}

	return payload.Message.Body.Subtitle.SubtitleBody, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	params.Set("apikey", c.apiKey)
	apiURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("musixmatch API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
