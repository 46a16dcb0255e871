package services

import (
	"context"
	"io"

	"github.com/yamacamp/backend/internal/models"
	"github.com/yamacamp/backend/internal/storage"
	"go.uber.org/zap"
)

// Upload is a file received with a create/update request. The file handle
// belongs to the request until it is persisted or discarded.
type Upload struct {
	Reader   io.Reader
	Filename string
}

// CampgroundRepository is the interface that wraps methods for Campground table data access
type CampgroundRepository interface {
	// Method List retrieves all campgrounds with their image lists, newest first.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	List(ctx context.Context) ([]models.Campground, error)
	// Method GetByID retrieves a campground with its author and ordered image list.
	//
	// "id" parameter is used to retrieve a campground by ID.
	//
	// If campground with such ID does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Campground, error)
	// Method Create inserts a campground together with its image rows.
	//
	// "campground" parameter carries the fields and the image list to persist.
	//
	// If some error occurs during campground creation, the error will be returned.
	Create(ctx context.Context, campground *models.Campground) error
	// Method Update rewrites the campground's own columns.
	//
	// If campground with such ID does not exist, repositories.ErrNotFound will be returned.
	Update(ctx context.Context, campground *models.Campground) error
	// Method AddImages appends image rows after the campground's current last position.
	//
	// If some error occurs during image insertion, the error will be returned.
	AddImages(ctx context.Context, campgroundID int, images []models.Image) error
	// Method DeleteImagesByFilenames removes the given stored images from a campground.
	//
	// If some error occurs during image deletion, the error will be returned.
	DeleteImagesByFilenames(ctx context.Context, campgroundID int, filenames []string) error
	// Method Delete removes a campground, its reviews and its image rows in one transaction.
	//
	// If campground with such ID does not exist, repositories.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// CampgroundReviewLister is the interface for loading a campground's reviews
type CampgroundReviewLister interface {
	// Method ListByCampgroundID retrieves a campground's reviews with their authors, newest first.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	ListByCampgroundID(ctx context.Context, campgroundID int) ([]models.Review, error)
}

// campgroundService implements campground business logic
type campgroundService struct {
	campgroundRepo CampgroundRepository
	reviewRepo     CampgroundReviewLister
	storage        storage.Storage
	logger         *zap.Logger
}

// NewCampgroundService creates a new campground service
func NewCampgroundService(
	campgroundRepo CampgroundRepository,
	reviewRepo CampgroundReviewLister,
	storage storage.Storage,
	logger *zap.Logger,
) *campgroundService {
	return &campgroundService{
		campgroundRepo: campgroundRepo,
		reviewRepo:     reviewRepo,
		storage:        storage,
		logger:         logger,
	}
}

// List retrieves all campgrounds
func (s *campgroundService) List(ctx context.Context) ([]models.Campground, error) {
	return s.campgroundRepo.List(ctx)
}

// Get retrieves a campground with its author, images and reviews (each
// review with its author)
func (s *campgroundService) Get(ctx context.Context, id int) (*models.Campground, error) {
	campground, err := s.campgroundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByCampgroundID(ctx, id)
	if err != nil {
		return nil, err
	}
	campground.Reviews = reviews

	return campground, nil
}

// GetForOwner retrieves a campground without its relations, for ownership
// checks and edit forms
func (s *campgroundService) GetForOwner(ctx context.Context, id int) (*models.Campground, error) {
	return s.campgroundRepo.GetByID(ctx, id)
}

// Create stores the uploaded images and persists the campground. If the
// database write fails, already-stored media objects are removed so the
// media host holds no orphans.
func (s *campgroundService) Create(ctx context.Context, campground *models.Campground, uploads []Upload) error {
	images, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return err
	}
	campground.Images = images

	if err := s.campgroundRepo.Create(ctx, campground); err != nil {
		s.discardStored(ctx, images)
		return err
	}

	return nil
}

// Update rewrites the campground's fields, appends newly uploaded images
// and removes the images checked for deletion
func (s *campgroundService) Update(ctx context.Context, campground *models.Campground, uploads []Upload, deleteFilenames []string) error {
	if err := s.campgroundRepo.Update(ctx, campground); err != nil {
		return err
	}

	images, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return err
	}
	if err := s.campgroundRepo.AddImages(ctx, campground.ID, images); err != nil {
		s.discardStored(ctx, images)
		return err
	}

	if len(deleteFilenames) > 0 {
		if err := s.campgroundRepo.DeleteImagesByFilenames(ctx, campground.ID, deleteFilenames); err != nil {
			return err
		}
		for _, filename := range deleteFilenames {
			if err := s.storage.Delete(ctx, filename); err != nil {
				// The reference is already gone; losing the object is
				// logged, not fatal
				s.logger.Warn("failed to delete stored image", zap.String("filename", filename), zap.Error(err))
			}
		}
	}

	return nil
}

// Delete cascades the campground and its reviews out of the database, then
// removes its stored media best-effort
func (s *campgroundService) Delete(ctx context.Context, campground *models.Campground) error {
	if err := s.campgroundRepo.Delete(ctx, campground.ID); err != nil {
		return err
	}

	for _, image := range campground.Images {
		if err := s.storage.Delete(ctx, image.Filename); err != nil {
			s.logger.Warn("failed to delete stored image", zap.String("filename", image.Filename), zap.Error(err))
		}
	}

	return nil
}

// storeUploads persists each upload to the media host. On failure the
// already-stored objects of this batch are removed.
func (s *campgroundService) storeUploads(ctx context.Context, uploads []Upload) ([]models.Image, error) {
	var images []models.Image
	for _, upload := range uploads {
		stored, err := s.storage.Store(ctx, upload.Reader, upload.Filename)
		if err != nil {
			s.discardStored(ctx, images)
			return nil, err
		}
		images = append(images, models.Image{
			URL:      stored.URL,
			Filename: stored.Filename,
		})
	}
	return images, nil
}

// discardStored removes stored objects that never made it into the database
func (s *campgroundService) discardStored(ctx context.Context, images []models.Image) {
	for _, image := range images {
		if err := s.storage.Delete(ctx, image.Filename); err != nil {
			s.logger.Warn("failed to discard stored image", zap.String("filename", image.Filename), zap.Error(err))
		}
	}
}
