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
	"github.com/yamacamp/backend/internal/session"
	"go.uber.org/zap"
)

// ReviewService is the interface that wraps methods for review business logic
type ReviewService interface {
	// Method Create attaches a review to a campground.
	//
	// If campground with such ID does not exist, repositories.ErrNotFound will be returned.
	Create(ctx context.Context, campgroundID, authorID int, review *models.Review) error
	// Method Get retrieves a review by ID.
	//
	// If review with such ID does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	Get(ctx context.Context, id int) (*models.Review, error)
	// Method Delete removes a review by ID.
	//
	// If review with such ID does not exist, repositories.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// ReviewHandler handles review HTTP requests
type ReviewHandler struct {
	BaseHandler
	reviewService ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService ReviewService, renderer *render.Renderer, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   BaseHandler{Logger: logger, Renderer: renderer},
		reviewService: reviewService,
	}
}

// RegisterRoutes registers all review handler routes
func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Route("/campgrounds/{id}/reviews", func(r chi.Router) {
		r.Use(RequireLogin)
		r.Post("/", h.Create)
		r.Delete("/{reviewID}", h.Delete)
	})
}

// Create handles POST /campgrounds/{id}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	campgroundID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.FlashRedirect(w, r, models.FlashError, msgCampgroundGone, "/campgrounds")
		return
	}
	showURL := fmt.Sprintf("/campgrounds/%d", campgroundID)

	if err := r.ParseForm(); err != nil {
		h.Renderer.Error(w, r, http.StatusBadRequest, "リクエストを解析できませんでした", nil)
		return
	}

	form := forms.ParseReviewForm(r.PostForm)
	if violations := form.Validate(); len(violations) > 0 {
		h.Renderer.Error(w, r, http.StatusBadRequest, "レビューを登録できませんでした", violations)
		return
	}

	review := form.Review()
	authorID := session.FromContext(r.Context()).CurrentUser().ID

	if err := h.reviewService.Create(r.Context(), campgroundID, authorID, review); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.FlashRedirect(w, r, models.FlashError, msgCampgroundGone, "/campgrounds")
			return
		}
		h.ServerError(w, r, err)
		return
	}

	h.FlashRedirect(w, r, models.FlashSuccess, msgReviewMade, showURL)
}

// Delete handles DELETE /campgrounds/{id}/reviews/{reviewID}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	campgroundID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.FlashRedirect(w, r, models.FlashError, msgCampgroundGone, "/campgrounds")
		return
	}
	showURL := fmt.Sprintf("/campgrounds/%d", campgroundID)

	reviewID, err := strconv.Atoi(chi.URLParam(r, "reviewID"))
	if err != nil {
		h.FlashRedirect(w, r, models.FlashError, msgReviewGone, showURL)
		return
	}

	review, err := h.reviewService.Get(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.FlashRedirect(w, r, models.FlashError, msgReviewGone, showURL)
			return
		}
		h.ServerError(w, r, err)
		return
	}

	// Only the review's author may delete it
	currentUser := session.FromContext(r.Context()).CurrentUser()
	if review.AuthorID != currentUser.ID {
		h.FlashRedirect(w, r, models.FlashError, msgNotAuthorized, showURL)
		return
	}

	if err := h.reviewService.Delete(r.Context(), reviewID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.FlashRedirect(w, r, models.FlashError, msgReviewGone, showURL)
			return
		}
		h.ServerError(w, r, err)
		return
	}

	h.FlashRedirect(w, r, models.FlashSuccess, msgReviewDeleted, showURL)
}
