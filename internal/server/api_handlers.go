package server

import (
	"net/http"

	"lyricfront/internal/json"
	"lyricfront/internal/log"
	"lyricfront/internal/musixmatch"
	"lyricfront/internal/session"
	"lyricfront/internal/spotify"
)

// currentSongResponse is the envelope the web client unwraps as
// response.result.body.
type currentSongResponse struct {
	Result currentSongResult `json:"result"`
}

type currentSongResult struct {
	Body spotify.NowPlaying `json:"body"`
}

// APIHandlers serves the token-bearing proxy endpoints. Downstream
// failures surface as HTTP 200 payloads the client inspects, never as
// error status codes.
type APIHandlers struct {
	player *spotify.Client
	lyrics *musixmatch.Client
}

// NewAPIHandlers creates the proxy endpoint handlers
func NewAPIHandlers(player *spotify.Client, lyrics *musixmatch.Client) *APIHandlers {
	return &APIHandlers{
		player: player,
		lyrics: lyrics,
	}
}

// CurrentSongHandler proxies the player state for the session's user.
// Without a session it reports the legacy "No access token" payload so
// an anonymous poll settles instead of erroring.
func (h *APIHandlers) CurrentSongHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		json.WriteSoftError(w, "No access token")
		return
	}

	nowPlaying, err := h.player.CurrentlyPlaying(r.Context(), sess.AccessToken)
	if err != nil {
		log.LogErrorWithFields("api", "Currently-playing lookup failed", map[string]any{
			"error": err.Error(),
			"user":  sess.Profile.ID,
		})
		json.WriteSoftError(w, err.Error())
		return
	}

	if err := json.Write(w, currentSongResponse{Result: currentSongResult{Body: nowPlaying}}); err != nil {
		log.LogError("Failed to write current-song response: %v", err)
	}
}

// LyricsHandler resolves lyrics for the track named by the trackName and
// artist query parameters. Lookup failures and missing matches both
// produce {"lyrics": null}.
func (h *APIHandlers) LyricsHandler(w http.ResponseWriter, r *http.Request) {
	trackName := r.URL.Query().Get("trackName")
	artist := r.URL.Query().Get("artist")

	result, err := h.lyrics.GetLyrics(r.Context(), trackName, artist)
	if err != nil {
		log.LogErrorWithFields("api", "Lyrics lookup failed", map[string]any{
			"error":     err.Error(),
			"trackName": trackName,
			"artist":    artist,
		})
		result = musixmatch.LyricsResult{}
	}

	if err := json.Write(w, result); err != nil {
		log.LogError("Failed to write lyrics response: %v", err)
	}
}
