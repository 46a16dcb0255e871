// Package session carries authenticated identity, one-shot flash messages
// and the return-to URL across the redirect-based request cycle. Sessions
// live server-side keyed by an opaque token; the client only holds the
// token in a cookie.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yamacamp/backend/internal/models"
	"github.com/yamacamp/backend/internal/repositories"
	"go.uber.org/zap"
)

// SessionRepository is the interface that wraps methods for Session table data access
type SessionRepository interface {
	// Method Create inserts a new session into the database.
	//
	// "session" parameter is the session record to persist.
	//
	// If some error occurs during session creation, the error will be returned.
	Create(ctx context.Context, session *models.Session) error
	// Method GetByToken retrieves a session by its opaque token.
	//
	// "token" parameter is the opaque client-held token.
	//
	// If a session with such token does not exist or has expired, repositories.ErrNotFound will be returned together with "nil" value.
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	// Method Update persists session mutations.
	//
	// "session" parameter is the session record to persist.
	//
	// If some error occurs during session update, the error will be returned.
	Update(ctx context.Context, session *models.Session) error
	// Method DeleteByToken deletes a session by its token.
	//
	// "token" parameter is the opaque client-held token.
	//
	// Deleting an unknown token is not an error.
	DeleteByToken(ctx context.Context, token string) error
}

// SessionPurger deletes expired session rows
type SessionPurger interface {
	// Method DeleteExpired purges sessions past their expiry time.
	//
	// The number of deleted rows will be returned together with any error.
	DeleteExpired(ctx context.Context) (int64, error)
}

// PurgeExpired deletes expired session rows every interval until ctx is
// cancelled. Expired rows are already invisible to GetByToken; this keeps
// the table from growing without bound.
func PurgeExpired(ctx context.Context, repo SessionPurger, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Error("failed to purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}

// UserGetter resolves the session identity to a user record
type UserGetter interface {
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// Manager loads and persists sessions around each request
type Manager struct {
	repo       SessionRepository
	users      UserGetter
	logger     *zap.Logger
	cookieName string
	expiry     time.Duration
}

// NewManager creates a new session manager
func NewManager(repo SessionRepository, users UserGetter, logger *zap.Logger, cookieName string, expiry time.Duration) *Manager {
	return &Manager{
		repo:       repo,
		users:      users,
		logger:     logger,
		cookieName: cookieName,
		expiry:     expiry,
	}
}

// State is the per-request session view handlers mutate. It is created by
// the manager's middleware and committed before the first response byte.
type State struct {
	session     *models.Session
	currentUser *models.User
	isNew       bool
	dirty       bool
	rotatedFrom string
}

// CurrentUser returns the authenticated user, or nil for anonymous sessions
func (s *State) CurrentUser() *models.User {
	return s.currentUser
}

// LoggedIn reports whether the session carries an authenticated identity
func (s *State) LoggedIn() bool {
	return s.currentUser != nil
}

// Login binds the user to the session. The token is regenerated so a
// pre-login token can never become an authenticated one.
func (s *State) Login(user *models.User) {
	if !s.isNew && s.rotatedFrom == "" {
		s.rotatedFrom = s.session.Token
	}
	s.session.Token = uuid.New().String()
	s.session.UserID = user.ID
	s.currentUser = user
	s.dirty = true
}

// Logout destroys the authenticated session. The request continues on a
// fresh anonymous session (new token) so a goodbye flash still renders.
func (s *State) Logout() {
	if !s.isNew && s.rotatedFrom == "" {
		s.rotatedFrom = s.session.Token
	}
	s.session.Token = uuid.New().String()
	s.session.UserID = 0
	s.session.ReturnTo = ""
	s.currentUser = nil
	s.dirty = true
}

// AddFlash appends a one-shot message under the given category
func (s *State) AddFlash(category, message string) {
	s.session.AddFlash(category, message)
	s.dirty = true
}

// Flashes returns all flash messages and clears them (read-once)
func (s *State) Flashes() map[string][]string {
	flashes := s.session.ConsumeFlashes()
	if len(flashes) > 0 {
		s.dirty = true
	}
	return flashes
}

// SetReturnTo remembers the URL to resume after a forced login
func (s *State) SetReturnTo(url string) {
	s.session.ReturnTo = url
	s.dirty = true
}

// PopReturnTo returns the remembered URL and clears it
func (s *State) PopReturnTo() string {
	url := s.session.ReturnTo
	if url != "" {
		s.session.ReturnTo = ""
		s.dirty = true
	}
	return url
}

type stateContextKey struct{}

// FromContext retrieves the request's session state. It is nil only for
// requests that did not pass through the manager's middleware.
func FromContext(ctx context.Context) *State {
	state, _ := ctx.Value(stateContextKey{}).(*State)
	return state
}

// Middleware resolves the session cookie into a State, threads it through
// the request context, and commits mutations just before the first response
// byte so the Set-Cookie header can still be written.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := m.load(r)

		cw := &commitWriter{
			ResponseWriter: w,
			commit:         func() { m.commit(r.Context(), w, state) },
		}

		ctx := context.WithValue(r.Context(), stateContextKey{}, state)
		next.ServeHTTP(cw, r.WithContext(ctx))

		// Requests that wrote no body (rare) still need the commit
		cw.commitOnce()
	})
}

// load resolves the cookie token to a stored session, or starts a fresh
// anonymous one. A fresh session is not persisted until something writes
// to it.
func (m *Manager) load(r *http.Request) *State {
	cookie, err := r.Cookie(m.cookieName)
	if err == nil && cookie.Value != "" {
		sess, err := m.repo.GetByToken(r.Context(), cookie.Value)
		if err == nil {
			state := &State{session: sess}
			// Sliding window: push the expiry forward once the session
			// has burned through half of it
			if time.Until(sess.ExpiresAt) < m.expiry/2 {
				sess.ExpiresAt = time.Now().Add(m.expiry)
				state.dirty = true
			}
			if sess.UserID != 0 {
				user, err := m.users.GetByID(r.Context(), sess.UserID)
				if err == nil {
					state.currentUser = user
				} else {
					// Deleted user: drop the stale identity
					sess.UserID = 0
					state.dirty = true
				}
			}
			return state
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			m.logger.Error("failed to load session", zap.Error(err))
		}
	}

	return &State{
		session: &models.Session{
			Token:     uuid.New().String(),
			ExpiresAt: time.Now().Add(m.expiry),
		},
		isNew: true,
	}
}

// commit persists session mutations and refreshes the cookie
func (m *Manager) commit(ctx context.Context, w http.ResponseWriter, state *State) {
	if !state.dirty {
		return
	}

	state.session.ExpiresAt = time.Now().Add(m.expiry)

	var err error
	switch {
	case state.isNew:
		err = m.repo.Create(ctx, state.session)
	case state.rotatedFrom != "":
		// Token rotation: the old row goes away, the session continues
		// under a new token
		if delErr := m.repo.DeleteByToken(ctx, state.rotatedFrom); delErr != nil {
			m.logger.Error("failed to delete rotated session", zap.Error(delErr))
		}
		err = m.repo.Create(ctx, state.session)
	default:
		err = m.repo.Update(ctx, state.session)
	}
	if err != nil {
		m.logger.Error("failed to persist session", zap.Error(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    state.session.Token,
		Path:     "/",
		Expires:  state.session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// commitWriter defers session persistence until the response starts, so
// handlers can keep mutating the session up to their final render/redirect
type commitWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (cw *commitWriter) commitOnce() {
	if !cw.committed {
		cw.committed = true
		cw.commit()
	}
}

func (cw *commitWriter) WriteHeader(code int) {
	cw.commitOnce()
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *commitWriter) Write(p []byte) (int, error) {
	cw.commitOnce()
	return cw.ResponseWriter.Write(p)
}
