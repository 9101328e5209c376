package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lyricfront/internal/config"
	"lyricfront/internal/log"
	"lyricfront/internal/musixmatch"
	"lyricfront/internal/server"
	"lyricfront/internal/spotify"
	"lyricfront/internal/storage"
)

// LyricFront represents the complete application: the OAuth flow, the
// session store, and the token-bearing API proxy behind one HTTP server.
type LyricFront struct {
	config     config.Config
	httpServer *server.HTTPServer
	store      storage.Store
	cleanup    *storage.CleanupManager
}

// NewLyricFront creates the application with all dependencies built
func NewLyricFront(ctx context.Context, cfg config.Config) (*LyricFront, error) {
	log.LogInfoWithFields("lyricfront", "Building application", map[string]any{
		"baseURL": cfg.Server.BaseURL,
		"storage": string(cfg.Sessions.Storage),
	})

	store, err := setupStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	cleanup := storage.NewCleanupManager(store, cfg.Sessions.CleanupInterval.Unwrap())

	player := spotify.NewClient("", cfg.Spotify.Timeout.Unwrap())
	lyrics := musixmatch.NewClient(
		string(cfg.Musixmatch.APIKey),
		cfg.Musixmatch.BaseURL,
		cfg.Musixmatch.Timeout.Unwrap(),
	)

	handler := buildHTTPHandler(cfg, store, player, lyrics)
	httpServer := server.NewHTTPServer(handler, cfg.Server.Addr)

	return &LyricFront{
		config:     cfg,
		httpServer: httpServer,
		store:      store,
		cleanup:    cleanup,
	}, nil
}

// Run starts the application and blocks until shutdown
func (l *LyricFront) Run() error {
	log.LogInfoWithFields("lyricfront", "Starting application", map[string]any{
		"addr": l.config.Server.Addr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l.cleanup.Start(ctx)

	errChan := make(chan error, 1)
	go func() {
		if err := l.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var shutdownReason string
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("lyricfront", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		log.LogErrorWithFields("lyricfront", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := l.httpServer.Stop(shutdownCtx); err != nil {
		log.LogErrorWithFields("lyricfront", "HTTP server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	l.cleanup.Stop()

	if err := l.store.Close(); err != nil {
		log.LogWarnWithFields("lyricfront", "Session store close error", map[string]any{
			"error": err.Error(),
		})
	}

	log.LogInfoWithFields("lyricfront", "Application shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return nil
}

// setupStorage creates the session store named by the configuration
func setupStorage(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.Sessions.Storage == config.StorageKindFirestore {
		log.LogInfoWithFields("storage", "Using Firestore session store", map[string]any{
			"project":    cfg.Sessions.FirestoreProject,
			"database":   cfg.Sessions.FirestoreDatabase,
			"collection": cfg.Sessions.Collection,
		})
		store, err := storage.NewFirestoreStore(
			ctx,
			cfg.Sessions.FirestoreProject,
			cfg.Sessions.FirestoreDatabase,
			cfg.Sessions.Collection,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore store: %w", err)
		}
		return store, nil
	}

	log.LogInfoWithFields("storage", "Using in-memory session store", map[string]any{})
	return storage.NewMemoryStore(), nil
}

// buildHTTPHandler wires all routes and middleware into one handler
func buildHTTPHandler(
	cfg config.Config,
	store storage.Store,
	player *spotify.Client,
	lyrics *musixmatch.Client,
) http.Handler {
	authHandlers := server.NewAuthHandlers(cfg, store)
	apiHandlers := server.NewAPIHandlers(player, lyrics)
	adminHandlers := server.NewAdminHandlers(store, string(cfg.Sessions.Storage))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/spotify", authHandlers.LoginHandler)
	mux.HandleFunc("GET /auth/callback", authHandlers.CallbackHandler)
	mux.HandleFunc("GET /logout", authHandlers.LogoutHandler)

	mux.HandleFunc("GET /api/getCurrentSong", apiHandlers.CurrentSongHandler)
	mux.HandleFunc("GET /api/getLyrics", apiHandlers.LyricsHandler)

	mux.Handle("GET /health", server.NewHealthHandler())

	statusHandler := http.HandlerFunc(adminHandlers.StatusHandler)
	if cfg.Server.AdminUsername != "" {
		adminAuth := server.NewAdminAuthMiddleware(cfg.Server.AdminUsername, cfg.Server.AdminPasswordHash)
		mux.Handle("GET /admin/status", adminAuth(statusHandler))
	} else {
		mux.Handle("GET /admin/status", statusHandler)
	}

	if cfg.Server.WebRoot != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.Server.WebRoot)))
	}

	// Listed innermost first: the recover middleware wraps everything
	return server.ChainMiddleware(
		mux,
		server.NewSessionMiddleware(store),
		server.NewLoggerMiddleware("http"),
		server.NewRecoverMiddleware("http"),
	)
}
