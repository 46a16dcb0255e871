package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/yamacamp/backend/internal/models"
	"github.com/yamacamp/backend/internal/render"
	"github.com/yamacamp/backend/internal/repositories"
	"github.com/yamacamp/backend/internal/session"
	"go.uber.org/zap"
)

const testCookieName = "yamacamp_session"

// memorySessionStore is an in-memory session.SessionRepository for handler tests
type memorySessionStore struct {
	sessions map[string]models.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]models.Session)}
}

func (s *memorySessionStore) Create(ctx context.Context, sess *models.Session) error {
	s.sessions[sess.Token] = *sess
	return nil
}

func (s *memorySessionStore) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	sess, ok := s.sessions[token]
	if !ok || sess.Expired(time.Now()) {
		return nil, repositories.ErrNotFound
	}
	copied := sess
	return &copied, nil
}

func (s *memorySessionStore) Update(ctx context.Context, sess *models.Session) error {
	s.sessions[sess.Token] = *sess
	return nil
}

func (s *memorySessionStore) DeleteByToken(ctx context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

// staticUserGetter is an in-memory session.UserGetter for handler tests
type staticUserGetter struct {
	users map[int]models.User
}

func (g *staticUserGetter) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := g.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := user
	return &copied, nil
}

// handlerEnv wires a router with a real session manager and renderer around
// the handler under test
type handlerEnv struct {
	router *chi.Mux
	store  *memorySessionStore
	users  *staticUserGetter

	renderer *render.Renderer
	logger   *zap.Logger
}

func setupHandlerTest(t *testing.T) *handlerEnv {
	t.Helper()

	logger := zap.NewNop()
	renderer, err := render.New(logger)
	require.NoError(t, err)

	store := newMemorySessionStore()
	users := &staticUserGetter{users: make(map[int]models.User)}
	manager := session.NewManager(store, users, logger, testCookieName, 24*time.Hour)

	router := chi.NewRouter()
	router.Use(manager.Middleware)

	return &handlerEnv{
		router:   router,
		store:    store,
		users:    users,
		renderer: renderer,
		logger:   logger,
	}
}

// loginAs seeds an authenticated session and returns its cookie
func (e *handlerEnv) loginAs(user models.User) *http.Cookie {
	e.users.users[user.ID] = user

	token := fmt.Sprintf("session-for-user-%d", user.ID)
	e.store.sessions[token] = models.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	return &http.Cookie{Name: testCookieName, Value: token}
}

// serve runs one request through the router
func (e *handlerEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// sessionAfter resolves the session row the response left the client on:
// the rotated token when a fresh cookie was set, the request cookie's
// token otherwise
func (e *handlerEnv) sessionAfter(t *testing.T, rec *httptest.ResponseRecorder, sent *http.Cookie) models.Session {
	t.Helper()

	token := ""
	if sent != nil {
		token = sent.Value
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == testCookieName {
			token = cookie.Value
		}
	}
	require.NotEmpty(t, token)

	sess, ok := e.store.sessions[token]
	require.True(t, ok, "no session stored for token %q", token)
	return sess
}
