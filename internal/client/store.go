// Package client implements the polling state store that consumes the
// proxy's JSON responses and exposes display-ready state. It branches on
// body shape, never on HTTP status: both endpoints answer 200 even when
// the downstream call failed.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Song is the display-ready record derived from a currently-playing
// response. Playing is the discriminant: when false all other fields are
// zero.
type Song struct {
	Playing   bool
	TrackName string
	Artist    string
	Album     string
	Progress  int
	Duration  int
}

// Lyrics holds the lyrics state. Pending is true only while a GetLyrics
// call is in flight; every call clears it before returning.
type Lyrics struct {
	Pending bool
	Text    *string
	Album   string
}

type songEnvelope struct {
	Result struct {
		Body struct {
			IsPlaying bool   `json:"isPlaying"`
			Album     string `json:"album"`
			Artist    string `json:"artist"`
			TrackName string `json:"trackName"`
			Progress  int    `json:"progress"`
			Duration  int    `json:"duration"`
		} `json:"body"`
	} `json:"result"`
	Error string `json:"error"`
}

type lyricsPayload struct {
	Lyrics *string `json:"lyrics"`
	Album  string  `json:"album"`
}

// Store polls the proxy and maintains the latest song and lyrics state.
// Actions are idempotent: reads never mutate server state, so they are
// safe to re-trigger on every poll tick.
type Store struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	song   Song
	lyrics Lyrics
}

// NewStore creates a state store polling the service at baseURL
func NewStore(baseURL string, timeout time.Duration) *Store {
	return &Store{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Song returns the latest song state
func (s *Store) Song() Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.song
}

// Lyrics returns the latest lyrics state
func (s *Store) Lyrics() Lyrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lyrics
}

// GetCurrentSong fetches the playing state and settles song to either a
// populated record or the not-playing zero record. A soft-error body or
// transport failure maps to not-playing; the call never leaves song in
// an intermediate state.
func (s *Store) GetCurrentSong(ctx context.Context) Song {
	var envelope songEnvelope
	if err := s.get(ctx, "/api/getCurrentSong", nil, &envelope); err != nil {
		return s.setSong(Song{})
	}
	if envelope.Error != "" || !envelope.Result.Body.IsPlaying {
		return s.setSong(Song{})
	}

	body := envelope.Result.Body
	return s.setSong(Song{
		Playing:   true,
		TrackName: body.TrackName,
		Artist:    body.Artist,
		Album:     body.Album,
		Progress:  body.Progress,
		Duration:  body.Duration,
	})
}

// GetLyrics clears lyrics to the pending marker, fetches lyrics for the
// named track, and settles to the result or nil on any failure
func (s *Store) GetLyrics(ctx context.Context, trackName, artist string) Lyrics {
	s.mu.Lock()
	s.lyrics = Lyrics{Pending: true}
	s.mu.Unlock()

	params := map[string]string{
		"trackName": trackName,
		"artist":    artist,
	}

	var payload lyricsPayload
	if err := s.get(ctx, "/api/getLyrics", params, &payload); err != nil {
		return s.setLyrics(Lyrics{})
	}

	return s.setLyrics(Lyrics{Text: payload.Lyrics, Album: payload.Album})
}

func (s *Store) setSong(song Song) Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.song = song
	return song
}

func (s *Store) setLyrics(lyrics Lyrics) Lyrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lyrics = lyrics
	return lyrics
}

func (s *Store) get(ctx context.Context, path string, params map[string]string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if len(params) > 0 {
		q := req.URL.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
