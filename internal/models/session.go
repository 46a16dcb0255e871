package models

import "time"

// Flash categories
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Session represents a server-side session record keyed by an opaque token.
// UserID is 0 for anonymous sessions. Flashes are one-shot messages grouped
// by category, cleared on the first render that reads them.
type Session struct {
	Token     string              `json:"token"`
	UserID    int                 `json:"userId"`
	ReturnTo  string              `json:"returnTo"`
	Flashes   map[string][]string `json:"flashes"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

// AddFlash appends a one-shot message under the given category
func (s *Session) AddFlash(category, message string) {
	if s.Flashes == nil {
		s.Flashes = make(map[string][]string)
	}
	s.Flashes[category] = append(s.Flashes[category], message)
}

// ConsumeFlashes returns all flash messages and clears them
func (s *Session) ConsumeFlashes() map[string][]string {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// LoggedIn reports whether the session carries an authenticated identity
func (s *Session) LoggedIn() bool {
	return s.UserID != 0
}

// Expired reports whether the session has passed its expiry time
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
