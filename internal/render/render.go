// Package render renders the embedded HTML views. The template engine is an
// external collaborator to the rest of the app: handlers hand it a view name
// and data, and it takes care of the layout, the current user and the
// one-shot flash messages.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yamacamp/backend/internal/session"
	"go.uber.org/zap"
)

//go:embed templates
var templateFS embed.FS

// views are the renderable pages; each is parsed together with the layout
var views = []string{
	"home",
	"error",
	"campgrounds/index",
	"campgrounds/show",
	"campgrounds/new",
	"campgrounds/edit",
	"users/register",
	"users/login",
}

// Renderer executes embedded views inside the shared layout
type Renderer struct {
	templates map[string]*template.Template
	logger    *zap.Logger
}

// New parses all embedded views
func New(logger *zap.Logger) (*Renderer, error) {
	templates := make(map[string]*template.Template, len(views))
	for _, view := range views {
		tmpl, err := template.ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+view+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse view %s: %w", view, err)
		}
		templates[view] = tmpl
	}

	return &Renderer{
		templates: templates,
		logger:    logger,
	}, nil
}

// Render writes the view with the given status. The session's current user
// and flash messages are injected into every render; reading the flashes
// clears them.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, view string, data map[string]any) {
	tmpl, ok := r.templates[view]
	if !ok {
		r.logger.Error("unknown view", zap.String("view", view))
		r.renderFallback(w)
		return
	}

	if data == nil {
		data = make(map[string]any)
	}
	if state := session.FromContext(req.Context()); state != nil {
		data["CurrentUser"] = state.CurrentUser()
		data["Flashes"] = state.Flashes()
	}

	// Execute into a buffer first: a template failure must not leave a
	// half-written page with a 200 status
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		r.logger.Error("failed to execute view", zap.String("view", view), zap.Error(err))
		r.renderFallback(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// Error renders the error page with the given status and message
func (r *Renderer) Error(w http.ResponseWriter, req *http.Request, status int, message string, violations []string) {
	if message == "" {
		message = "問題が発生しました"
	}
	r.Render(w, req, status, "error", map[string]any{
		"Message":    message,
		"Violations": violations,
	})
}

// renderFallback is the last resort when the error view itself fails
func (r *Renderer) renderFallback(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte("<h1>問題が発生しました</h1>"))
}
