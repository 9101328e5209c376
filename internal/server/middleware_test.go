package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lyricfront/internal/config"
	"lyricfront/internal/cookie"
	"lyricfront/internal/session"
	"lyricfront/internal/storage"
)

func putTestSession(t *testing.T, store storage.Store, sess *session.Session) {
	t.Helper()
	require.NoError(t, store.PutSession(context.Background(), sess))
}

func sessionProbe(captured **session.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionMiddlewareResolvesSession(t *testing.T) {
	store := storage.NewMemoryStore()
	putTestSession(t, store, &session.Session{
		ID:          "sess-1",
		AccessToken: "access-token",
		Profile:     session.Profile{ID: "user-1"},
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	var captured *session.Session
	handler := NewSessionMiddleware(store)(sessionProbe(&captured))

	r := httptest.NewRequest(http.MethodGet, "/api/getCurrentSong", nil)
	r.AddCookie(&http.Cookie{Name: cookie.SessionCookie, Value: "sess-1"})
	handler.ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, captured)
	assert.Equal(t, "access-token", captured.AccessToken)
	assert.Equal(t, "user-1", captured.Profile.ID)
}

func TestSessionMiddlewareAnonymousWithoutCookie(t *testing.T) {
	store := storage.NewMemoryStore()

	var captured *session.Session
	handler := NewSessionMiddleware(store)(sessionProbe(&captured))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Nil(t, captured)
	assert.Equal(t, http.StatusOK, w.Code, "anonymous requests proceed to the handler")
}

func TestSessionMiddlewareAnonymousOnUnknownSession(t *testing.T) {
	store := storage.NewMemoryStore()

	var captured *session.Session
	handler := NewSessionMiddleware(store)(sessionProbe(&captured))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: cookie.SessionCookie, Value: "no-such-session"})
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.Nil(t, captured)
}

func TestSessionMiddlewareRejectsIncompleteRecord(t *testing.T) {
	store := storage.NewMemoryStore()
	// A record missing its access token must be treated as anonymous,
	// never served partially populated
	putTestSession(t, store, &session.Session{
		ID:        "sess-broken",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	var captured *session.Session
	handler := NewSessionMiddleware(store)(sessionProbe(&captured))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: cookie.SessionCookie, Value: "sess-broken"})
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.Nil(t, captured)
}

func TestSessionMiddlewareRejectsExpiredSession(t *testing.T) {
	store := storage.NewMemoryStore()
	putTestSession(t, store, &session.Session{
		ID:          "sess-old",
		AccessToken: "access-token",
		ExpiresAt:   time.Now().Add(-time.Minute),
	})

	var captured *session.Session
	handler := NewSessionMiddleware(store)(sessionProbe(&captured))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: cookie.SessionCookie, Value: "sess-old"})
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.Nil(t, captured)
}

func TestRecoverMiddleware(t *testing.T) {
	handler := NewRecoverMiddleware("test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminAuthMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	middleware := NewAdminAuthMiddleware("admin", config.Secret(hash))
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		user       string
		pass       string
		noAuth     bool
		wantStatus int
	}{
		{name: "valid credentials", user: "admin", pass: "correct-password", wantStatus: http.StatusOK},
		{name: "wrong password", user: "admin", pass: "wrong", wantStatus: http.StatusUnauthorized},
		{name: "wrong username", user: "root", pass: "correct-password", wantStatus: http.StatusUnauthorized},
		{name: "missing credentials", noAuth: true, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
			if !tt.noAuth {
				r.SetBasicAuth(tt.user, tt.pass)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
			}
		})
	}
}

func TestChainMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := ChainMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), tag("inner"), tag("outer"))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	// Later middlewares wrap earlier ones, so the last one runs first
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
