package services

import (
	"context"

	"github.com/yamacamp/backend/internal/models"
	"go.uber.org/zap"
)

// ReviewRepository is the interface that wraps methods for Review table data access
type ReviewRepository interface {
	// Method Create inserts a new review into the database.
	//
	// "review" parameter is used to create a new review.
	//
	// If some error occurs during review creation, the error will be returned.
	Create(ctx context.Context, review *models.Review) error
	// Method GetByID retrieves a review by ID.
	//
	// If review with such ID does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Review, error)
	// Method Delete removes a review by ID.
	//
	// If review with such ID does not exist, repositories.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// CampgroundGetter is the interface for resolving the campground a review
// belongs to
type CampgroundGetter interface {
	// Method GetByID retrieves a campground by ID.
	//
	// If campground with such ID does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Campground, error)
}

// reviewService implements review business logic
type reviewService struct {
	reviewRepo     ReviewRepository
	campgroundRepo CampgroundGetter
	logger         *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(reviewRepo ReviewRepository, campgroundRepo CampgroundGetter, logger *zap.Logger) *reviewService {
	return &reviewService{
		reviewRepo:     reviewRepo,
		campgroundRepo: campgroundRepo,
		logger:         logger,
	}
}

// Create attaches a review to a campground. The campground is loaded first
// so a review can never reference a deleted campground.
func (s *reviewService) Create(ctx context.Context, campgroundID, authorID int, review *models.Review) error {
	campground, err := s.campgroundRepo.GetByID(ctx, campgroundID)
	if err != nil {
		return err
	}

	review.CampgroundID = campground.ID
	review.AuthorID = authorID

	return s.reviewRepo.Create(ctx, review)
}

// Get retrieves a review by ID
func (s *reviewService) Get(ctx context.Context, id int) (*models.Review, error) {
	return s.reviewRepo.GetByID(ctx, id)
}

// Delete removes a review by ID
func (s *reviewService) Delete(ctx context.Context, id int) error {
	return s.reviewRepo.Delete(ctx, id)
}
