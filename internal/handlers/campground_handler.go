package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/yamacamp/backend/internal/forms"
	"github.com/yamacamp/backend/internal/models"
	"github.com/yamacamp/backend/internal/render"
	"github.com/yamacamp/backend/internal/repositories"
	"github.com/yamacamp/backend/internal/services"
	"github.com/yamacamp/backend/internal/session"
	"go.uber.org/zap"
)

// maxUploadSize bounds a single create/update request body
const maxUploadSize = 20 << 20 // 20MB

// CampgroundService is the interface that wraps methods for campground business logic
type CampgroundService interface {
	// Method List retrieves all campgrounds with their image lists.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	List(ctx context.Context) ([]models.Campground, error)
	// Method Get retrieves a campground with its author, images and reviews.
	//
	// If campground with such ID does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	Get(ctx context.Context, id int) (*models.Campground, error)
	// Method GetForOwner retrieves a campground without its review relation, for ownership checks and edit forms.
	//
	// If campground with such ID does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	GetForOwner(ctx context.Context, id int) (*models.Campground, error)
	// Method Create stores uploaded images and persists the campground.
	//
	// If some error occurs, the error will be returned and no stored media is leaked.
	Create(ctx context.Context, campground *models.Campground, uploads []services.Upload) error
	// Method Update rewrites the campground, appends new images and removes checked ones.
	//
	// If campground with such ID does not exist, repositories.ErrNotFound will be returned.
	Update(ctx context.Context, campground *models.Campground, uploads []services.Upload, deleteFilenames []string) error
	// Method Delete cascades the campground and its reviews, then removes stored media.
	//
	// If campground with such ID does not exist, repositories.ErrNotFound will be returned.
	Delete(ctx context.Context, campground *models.Campground) error
}

// CampgroundHandler handles campground HTTP requests
type CampgroundHandler struct {
	BaseHandler
	campgroundService CampgroundService
}

// NewCampgroundHandler creates a new campground handler
func NewCampgroundHandler(campgroundService CampgroundService, renderer *render.Renderer, logger *zap.Logger) *CampgroundHandler {
	return &CampgroundHandler{
		BaseHandler:       BaseHandler{Logger: logger, Renderer: renderer},
		campgroundService: campgroundService,
	}
}

// RegisterRoutes registers all campground handler routes
func (h *CampgroundHandler) RegisterRoutes(r chi.Router) {
	r.Route("/campgrounds", func(r chi.Router) {
		r.Get("/", h.Index)
		r.Get("/{id}", h.Show)

		r.Group(func(r chi.Router) {
			r.Use(RequireLogin)
			r.Get("/new", h.New)
			r.Post("/", h.Create)
			r.Get("/{id}/edit", h.Edit)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// Index handles GET /campgrounds
func (h *CampgroundHandler) Index(w http.ResponseWriter, r *http.Request) {
	campgrounds, err := h.campgroundService.List(r.Context())
	if err != nil {
		h.ServerError(w, r, err)
		return
	}

	h.Renderer.Render(w, r, http.StatusOK, "campgrounds/index", map[string]any{
		"Campgrounds": campgrounds,
	})
}

// Show handles GET /campgrounds/{id}
func (h *CampgroundHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := h.campgroundID(r)
	if err != nil {
		h.FlashRedirect(w, r, models.FlashError, msgCampgroundGone, "/campgrounds")
		return
	}

	campground, err := h.campgroundService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.FlashRedirect(w, r, models.FlashError, msgCampgroundGone, "/campgrounds")
			return
		}
		h.ServerError(w, r, err)
		return
	}

	h.Renderer.Render(w, r, http.StatusOK, "campgrounds/show", map[string]any{
		"Campground": campground,
	})
}

// New handles GET /campgrounds/new
func (h *CampgroundHandler) New(w http.ResponseWriter, r *http.Request) {
	h.Renderer.Render(w, r, http.StatusOK, "campgrounds/new", map[string]any{
		"Form": &forms.CampgroundForm{},
	})
}

// Create handles POST /campgrounds
func (h *CampgroundHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, uploads, cleanup, err := h.parseCampgroundRequest(r)
	if err != nil {
		h.Renderer.Error(w, r, http.StatusBadRequest, "リクエストを解析できませんでした", nil)
		return
	}
	defer cleanup()

	if violations := form.Validate(); len(violations) > 0 {
		h.Renderer.Render(w, r, http.StatusBadRequest, "campgrounds/new", map[string]any{
			"Form":       form,
			"Violations": violations,
		})
		return
	}

	campground := form.Campground()
	campground.AuthorID = session.FromContext(r.Context()).CurrentUser().ID

	if err := h.campgroundService.Create(r.Context(), campground, uploads); err != nil {
		h.ServerError(w, r, err)
		return
	}

	h.FlashRedirect(w, r, models.FlashSuccess, msgCampgroundMade, fmt.Sprintf("/campgrounds/%d", campground.ID))
}

// Edit handles GET /campgrounds/{id}/edit
func (h *CampgroundHandler) Edit(w http.ResponseWriter, r *http.Request) {
	campground, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	h.Renderer.Render(w, r, http.StatusOK, "campgrounds/edit", map[string]any{
		"Campground": campground,
		"Form":       campgroundFormFor(campground),
	})
}

// Update handles PUT /campgrounds/{id}
func (h *CampgroundHandler) Update(w http.ResponseWriter, r *http.Request) {
	campground, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	form, uploads, cleanup, err := h.parseCampgroundRequest(r)
	if err != nil {
		h.Renderer.Error(w, r, http.StatusBadRequest, "リクエストを解析できませんでした", nil)
		return
	}
	defer cleanup()

	if violations := form.Validate(); len(violations) > 0 {
		h.Renderer.Render(w, r, http.StatusBadRequest, "campgrounds/edit", map[string]any{
			"Campground": campground,
			"Form":       form,
			"Violations": violations,
		})
		return
	}

	updated := form.Campground()
	updated.ID = campground.ID
	updated.AuthorID = campground.AuthorID

	if err := h.campgroundService.Update(r.Context(), updated, uploads, form.DeleteImages); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.FlashRedirect(w, r, models.FlashError, msgCampgroundGone, "/campgrounds")
			return
		}
		h.ServerError(w, r, err)
		return
	}

	h.FlashRedirect(w, r, models.FlashSuccess, msgCampgroundEdit, fmt.Sprintf("/campgrounds/%d", campground.ID))
}

// Delete handles DELETE /campgrounds/{id}
func (h *CampgroundHandler) Delete(w http.ResponseWriter, r *http.Request) {
	campground, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.campgroundService.Delete(r.Context(), campground); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.FlashRedirect(w, r, models.FlashError, msgCampgroundGone, "/campgrounds")
			return
		}
		h.ServerError(w, r, err)
		return
	}

	h.FlashRedirect(w, r, models.FlashSuccess, msgCampgroundGoneD, "/campgrounds")
}

// loadOwned loads the target campground and enforces ownership. On any
// rejection it has already written the response.
func (h *CampgroundHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Campground, bool) {
	id, err := h.campgroundID(r)
	if err != nil {
		h.FlashRedirect(w, r, models.FlashError, msgCampgroundGone, "/campgrounds")
		return nil, false
	}

	campground, err := h.campgroundService.GetForOwner(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.FlashRedirect(w, r, models.FlashError, msgCampgroundGone, "/campgrounds")
			return nil, false
		}
		h.ServerError(w, r, err)
		return nil, false
	}

	currentUser := session.FromContext(r.Context()).CurrentUser()
	if campground.AuthorID != currentUser.ID {
		h.FlashRedirect(w, r, models.FlashError, msgNotAuthorized, fmt.Sprintf("/campgrounds/%d", id))
		return nil, false
	}

	return campground, true
}

// campgroundID extracts the {id} route parameter
func (h *CampgroundHandler) campgroundID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// parseCampgroundRequest parses the multipart (or form-encoded) body into
// the campground form plus its uploads. The uploads stay open until cleanup
// runs; they belong to the request until persisted or discarded.
func (h *CampgroundHandler) parseCampgroundRequest(r *http.Request) (*forms.CampgroundForm, []services.Upload, func(), error) {
	cleanup := func() {}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		if err != http.ErrNotMultipart {
			return nil, nil, cleanup, fmt.Errorf("failed to parse multipart form: %w", err)
		}
		// Plain form submission without files
		if err := r.ParseForm(); err != nil {
			return nil, nil, cleanup, fmt.Errorf("failed to parse form: %w", err)
		}
	}

	form := forms.ParseCampgroundForm(r.PostForm)

	var uploads []services.Upload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			if header.Size == 0 {
				continue
			}
			file, err := header.Open()
			if err != nil {
				cleanup()
				return nil, nil, func() {}, fmt.Errorf("failed to open uploaded file: %w", err)
			}
			prev := cleanup
			cleanup = func() { file.Close(); prev() }
			uploads = append(uploads, services.Upload{
				Reader:   file,
				Filename: header.Filename,
			})
		}
	}

	return form, uploads, cleanup, nil
}

// campgroundFormFor pre-fills the edit form from the stored record
func campgroundFormFor(c *models.Campground) *forms.CampgroundForm {
	return &forms.CampgroundForm{
		Title:       c.Title,
		Price:       strconv.FormatFloat(c.Price, 'f', -1, 64),
		Description: c.Description,
		Location:    c.Location,
		Latitude:    strconv.FormatFloat(c.Latitude, 'f', -1, 64),
		Longitude:   strconv.FormatFloat(c.Longitude, 'f', -1, 64),
	}
}
