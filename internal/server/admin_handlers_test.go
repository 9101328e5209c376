package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyricfront/internal/session"
	"lyricfront/internal/storage"
)

func TestStatusHandler(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.PutSession(context.Background(), &session.Session{
		ID:          "sess-1",
		AccessToken: "access-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	handlers := NewAdminHandlers(store, "memory")

	w := httptest.NewRecorder()
	handlers.StatusHandler(w, httptest.NewRequest(http.MethodGet, "/admin/status", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "memory", body.Storage)
	assert.Equal(t, 1, body.SessionCount)
	assert.NotEmpty(t, body.LogLevel)
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}
