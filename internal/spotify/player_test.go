package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playingPayload = `{
	"is_playing": true,
	"progress_ms": 1500,
	"item": {
		"id": "track-id",
		"name": "Jeremy",
		"artists": [{"id": "artist-id", "name": "Pearl Jam"}],
		"album": {"id": "album-id", "name": "Vs."},
		"duration_ms": 300000
	}
}`

func newStubPlayer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestCurrentlyPlayingMapsTrack(t *testing.T) {
	client := newStubPlayer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/player/currently-playing", r.URL.Path)
		assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(playingPayload))
	})

	got, err := client.CurrentlyPlaying(context.Background(), "test-access-token")
	require.NoError(t, err)

	assert.Equal(t, NowPlaying{
		IsPlaying: true,
		Album:     "Vs.",
		Artist:    "Pearl Jam",
		TrackName: "Jeremy",
		Progress:  1500,
		Duration:  300000,
	}, got)
}

func TestCurrentlyPlayingNotPlaying(t *testing.T) {
	client := newStubPlayer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"is_playing": false}`))
	})

	got, err := client.CurrentlyPlaying(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, NowPlaying{IsPlaying: false}, got)
}

func TestCurrentlyPlayingNoContent(t *testing.T) {
	client := newStubPlayer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	got, err := client.CurrentlyPlaying(context.Background(), "token")
	require.NoError(t, err)
	assert.False(t, got.IsPlaying)
}

func TestCurrentlyPlayingUpstreamError(t *testing.T) {
	client := newStubPlayer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.CurrentlyPlaying(context.Background(), "expired-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCurrentlyPlayingIdempotent(t *testing.T) {
	client := newStubPlayer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playingPayload))
	})

	first, err := client.CurrentlyPlaying(context.Background(), "token")
	require.NoError(t, err)
	second, err := client.CurrentlyPlaying(context.Background(), "token")
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestMapNowPlayingMissingItem(t *testing.T) {
	got := mapNowPlaying(currentlyPlayingResponse{IsPlaying: true, Item: nil})
	assert.Equal(t, NowPlaying{IsPlaying: false}, got)
}

func TestNowPlayingMarshalNotPlayingIsExact(t *testing.T) {
	data, err := json.Marshal(NowPlaying{IsPlaying: false, Album: "leaks", Progress: 42})
	require.NoError(t, err)
	// The not-playing record carries the discriminator and nothing else
	assert.JSONEq(t, `{"isPlaying": false}`, string(data))

	var keys map[string]any
	require.NoError(t, json.Unmarshal(data, &keys))
	assert.Len(t, keys, 1)
}

func TestNowPlayingMarshalPlayingHasAllFields(t *testing.T) {
	data, err := json.Marshal(NowPlaying{
		IsPlaying: true,
		Album:     "Vs.",
		Artist:    "Pearl Jam",
		TrackName: "Jeremy",
		Progress:  1500,
		Duration:  300000,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"isPlaying": true,
		"album": "Vs.",
		"artist": "Pearl Jam",
		"trackName": "Jeremy",
		"progress": 1500,
		"duration": 300000
	}`, string(data))
}

func TestNowPlayingMarshalKeepsZeroProgress(t *testing.T) {
	data, err := json.Marshal(NowPlaying{IsPlaying: true, TrackName: "Jeremy"})
	require.NoError(t, err)

	var keys map[string]any
	require.NoError(t, json.Unmarshal(data, &keys))
	assert.Contains(t, keys, "progress")
	assert.Contains(t, keys, "duration")
	assert.Contains(t, keys, "album")
}
