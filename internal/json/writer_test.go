package json

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteSoftError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSoftError(w, "No access token")

	// Soft errors ride on a success status; the client inspects the body
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "No access token"}`, w.Body.String())
}

func TestWrite(t *testing.T) {
	w := httptest.NewRecorder()
	assert.NoError(t, Write(w, map[string]int{"count": 3}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count": 3}`, w.Body.String())
}

func TestWriteErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter)
		wantStatus int
		wantError  string
	}{
		{
			name:       "unauthorized",
			write:      func(w http.ResponseWriter) { WriteUnauthorized(w, "nope") },
			wantStatus: http.StatusUnauthorized,
			wantError:  "unauthorized",
		},
		{
			name:       "internal server error",
			write:      func(w http.ResponseWriter) { WriteInternalServerError(w, "broke") },
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_server_error",
		},
		{
			name:       "bad request",
			write:      func(w http.ResponseWriter) { WriteBadRequest(w, "bad") },
			wantStatus: http.StatusBadRequest,
			wantError:  "bad_request",
		},
		{
			name:       "not found",
			write:      func(w http.ResponseWriter) { WriteNotFound(w, "missing") },
			wantStatus: http.StatusNotFound,
			wantError:  "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantError)
		})
	}
}
