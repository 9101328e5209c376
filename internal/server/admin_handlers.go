package server

import (
	"net/http"

	"lyricfront/internal/json"
	"lyricfront/internal/log"
	"lyricfront/internal/storage"
)

type statusResponse struct {
	Status       string `json:"status"`
	Storage      string `json:"storage"`
	SessionCount int    `json:"sessionCount"`
	LogLevel     string `json:"logLevel"`
}

// AdminHandlers exposes operational state behind the admin middleware
type AdminHandlers struct {
	store       storage.Store
	storageKind string
}

// NewAdminHandlers creates the admin endpoint handlers
func NewAdminHandlers(store storage.Store, storageKind string) *AdminHandlers {
	return &AdminHandlers{
		store:       store,
		storageKind: storageKind,
	}
}

// StatusHandler reports storage health and the live session count
func (h *AdminHandlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountSessions(r.Context())
	if err != nil {
		log.LogError("Failed to count sessions: %v", err)
		json.WriteInternalServerError(w, "failed to query session store")
		return
	}

	if err := json.Write(w, statusResponse{
		Status:       "ok",
		Storage:      h.storageKind,
		SessionCount: count,
		LogLevel:     log.GetLogLevel(),
	}); err != nil {
		log.LogError("Failed to write status response: %v", err)
	}
}
