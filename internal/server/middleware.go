package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lyricfront/internal/config"
	"lyricfront/internal/cookie"
	jsonwriter "lyricfront/internal/json"
	"lyricfront/internal/log"
	"lyricfront/internal/session"
	"lyricfront/internal/storage"
)

// MiddlewareFunc is a function that wraps an http.Handler
type MiddlewareFunc func(http.Handler) http.Handler

// ChainMiddleware chains multiple middleware functions
func ChainMiddleware(h http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	for _, mw := range middlewares {
		h = mw(h)
	}
	return h
}

// responseWriterDelegator wraps http.ResponseWriter to capture status and
// bytes written
type responseWriterDelegator struct {
	http.ResponseWriter
	status      int
	written     int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriterDelegator {
	return &responseWriterDelegator{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

func (r *responseWriterDelegator) Status() int {
	return r.status
}

func (r *responseWriterDelegator) BytesWritten() int {
	return r.written
}

func (r *responseWriterDelegator) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseWriterDelegator) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += n
	return n, err
}

// Unwrap returns the underlying ResponseWriter for interface detection
func (r *responseWriterDelegator) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

var _ http.ResponseWriter = (*responseWriterDelegator)(nil)

// NewLoggerMiddleware adds request/response logging with per-request IDs
func NewLoggerMiddleware(prefix string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			fields := map[string]any{
				"request_id":  requestID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"bytes":       wrapped.BytesWritten(),
				"remote_addr": r.RemoteAddr,
			}

			if r.URL.RawQuery != "" {
				fields["query"] = r.URL.RawQuery
			}

			log.LogInfoWithFields(prefix, "request", fields)
		})
	}
}

// NewRecoverMiddleware recovers from panics
func NewRecoverMiddleware(prefix string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Logf("<%s> Recovered from panic: %v", prefix, err)
					jsonwriter.WriteInternalServerError(w, "Internal Server Error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NewSessionMiddleware resolves the session cookie into a fully-populated
// session on the request context. Requests without a cookie, with an
// unknown session ID, or with a stored record that fails validation
// proceed as anonymous; handlers decide what anonymity means for them.
// Lookups are read-only, so concurrent requests from the same browser
// never race on session state.
func NewSessionMiddleware(store storage.Store) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := cookie.GetSession(r)
			if err != nil || sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := store.GetSession(r.Context(), sessionID)
			if err != nil {
				if !errors.Is(err, storage.ErrSessionNotFound) {
					log.LogErrorWithFields("session", "Session lookup failed", map[string]any{
						"error": err.Error(),
					})
				}
				next.ServeHTTP(w, r)
				return
			}

			if err := sess.Validate(); err != nil {
				// Never serve a partially-populated session
				log.LogWarnWithFields("session", "Rejecting invalid session record", map[string]any{
					"session_id": sessionID,
					"error":      err.Error(),
				})
				next.ServeHTTP(w, r)
				return
			}

			if sess.Expired() {
				log.LogDebug("Session %s expired, treating as anonymous", sessionID)
				next.ServeHTTP(w, r)
				return
			}

			ctx := session.WithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewAdminAuthMiddleware guards admin routes with basic auth. The config
// holds a bcrypt hash, never the plain password.
func NewAdminAuthMiddleware(username string, passwordHash config.Secret) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != username {
				w.Header().Set("WWW-Authenticate", `Basic realm="lyricfront"`)
				jsonwriter.WriteUnauthorized(w, "Unauthorized")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pass)); err != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="lyricfront"`)
				jsonwriter.WriteUnauthorized(w, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
