package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yamacamp/backend/internal/forms"
	"github.com/yamacamp/backend/internal/models"
	"github.com/yamacamp/backend/internal/render"
	"github.com/yamacamp/backend/internal/services"
	"github.com/yamacamp/backend/internal/session"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic
type AuthService interface {
	// Method Register creates a new user account with a salted password hash.
	//
	// "email", "username" and "password" parameters are the registration credentials.
	//
	// If the email or username is already taken, services.ErrUserExists will be returned together with "nil" value.
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	// Method Authenticate verifies the credentials and returns the user.
	//
	// Any credential failure comes back as services.ErrInvalidCredentials together with "nil" value;
	// unknown identity and wrong password are not distinguished.
	Authenticate(ctx context.Context, login, password string) (*models.User, error)
}

// UserHandler handles registration, login and logout
type UserHandler struct {
	BaseHandler
	authService AuthService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService AuthService, renderer *render.Renderer, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{Logger: logger, Renderer: renderer},
		authService: authService,
	}
}

// RegisterRoutes registers all user handler routes
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
}

// RegisterForm handles GET /register
func (h *UserHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.Renderer.Render(w, r, http.StatusOK, "users/register", map[string]any{
		"Form": &forms.RegisterForm{},
	})
}

// Register handles POST /register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Renderer.Error(w, r, http.StatusBadRequest, "リクエストを解析できませんでした", nil)
		return
	}

	form := forms.ParseRegisterForm(r.PostForm)
	if violations := form.Validate(); len(violations) > 0 {
		h.Renderer.Render(w, r, http.StatusBadRequest, "users/register", map[string]any{
			"Form":       form,
			"Violations": violations,
		})
		return
	}

	user, err := h.authService.Register(r.Context(), form.Email, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			h.FlashRedirect(w, r, models.FlashError, msgDuplicateUser, "/register")
			return
		}
		h.ServerError(w, r, err)
		return
	}

	// Registration logs the user straight in
	state := session.FromContext(r.Context())
	state.Login(user)
	state.AddFlash(models.FlashSuccess, msgWelcome)
	h.Redirect(w, r, "/campgrounds")
}

// LoginForm handles GET /login
func (h *UserHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.Renderer.Render(w, r, http.StatusOK, "users/login", nil)
}

// Login handles POST /login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Renderer.Error(w, r, http.StatusBadRequest, "リクエストを解析できませんでした", nil)
		return
	}

	form := forms.ParseLoginForm(r.PostForm)
	if violations := form.Validate(); len(violations) > 0 {
		h.FlashRedirect(w, r, models.FlashError, msgBadCredentials, "/login")
		return
	}

	user, err := h.authService.Authenticate(r.Context(), form.Login, form.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.FlashRedirect(w, r, models.FlashError, msgBadCredentials, "/login")
			return
		}
		h.ServerError(w, r, err)
		return
	}

	state := session.FromContext(r.Context())
	state.Login(user)
	state.AddFlash(models.FlashSuccess, msgWelcomeBack)

	// Resume the page the user was originally after, if any
	redirectURL := state.PopReturnTo()
	if redirectURL == "" {
		redirectURL = "/campgrounds"
	}
	h.Redirect(w, r, redirectURL)
}

// Logout handles GET /logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	state := session.FromContext(r.Context())
	state.Logout()
	state.AddFlash(models.FlashSuccess, msgLoggedOut)
	h.Redirect(w, r, "/campgrounds")
}
