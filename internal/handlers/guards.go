package handlers

import (
	"net/http"

	"github.com/yamacamp/backend/internal/models"
	"github.com/yamacamp/backend/internal/session"
)

// RequireLogin rejects anonymous requests with a redirect to the login page.
// The originally requested URL is remembered on the session so a successful
// login can resume it. Runs before validation and before any repository call.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := session.FromContext(r.Context())
		if state == nil || !state.LoggedIn() {
			if state != nil {
				if r.Method == http.MethodGet {
					state.SetReturnTo(r.URL.RequestURI())
				}
				state.AddFlash(models.FlashError, msgLoginRequired)
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
