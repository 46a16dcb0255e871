package middleware

import (
	"net/http"
	"strings"
)

// overrideField is the form field HTML forms use to request PUT/DELETE,
// since browsers can only submit GET and POST natively
const overrideField = "_method"

// MethodOverrideMiddleware rewrites POST requests carrying a _method form
// field (or query parameter) to the requested PUT or DELETE method before
// routing. Only those two methods are honored; anything else is ignored.
func MethodOverrideMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if m := overrideMethod(r); m != "" {
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

// overrideMethod extracts the override method from the query string or a
// form-encoded body without consuming multipart bodies
func overrideMethod(r *http.Request) string {
	if m := normalizeOverride(r.URL.Query().Get(overrideField)); m != "" {
		return m
	}

	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		return ""
	}

	// ParseForm consumes the body and caches the values on the request,
	// so later handler calls to FormValue still see them
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return normalizeOverride(r.PostForm.Get(overrideField))
}

// normalizeOverride validates a requested override method
func normalizeOverride(value string) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case http.MethodPut:
		return http.MethodPut
	case http.MethodDelete:
		return http.MethodDelete
	}
	return ""
}
