package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yamacamp/backend/internal/models"
	"go.uber.org/zap"
)

// reviewRepository implements review data access over MySQL
type reviewRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sql.DB, logger *zap.Logger) *reviewRepository {
	return &reviewRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new review into the database
func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (campground_id, author_id, body, rating)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, review.CampgroundID, review.AuthorID, review.Body, review.Rating)
	if err != nil {
		r.logger.Error("failed to create review", zap.Error(err))
		return fmt.Errorf("failed to create review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	review.ID = int(id)
	return nil
}

// GetByID retrieves a review by ID.
// Returns ErrNotFound if no review has the given id.
func (r *reviewRepository) GetByID(ctx context.Context, id int) (*models.Review, error) {
	query := `
		SELECT id, campground_id, author_id, body, rating, created_at
		FROM reviews
		WHERE id = ?
	`

	review := &models.Review{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.CampgroundID,
		&review.AuthorID,
		&review.Body,
		&review.Rating,
		&review.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get review by id", zap.Error(err), zap.Int("id", id))
		return nil, fmt.Errorf("failed to get review by id: %w", err)
	}

	return review, nil
}

// ListByCampgroundID retrieves a campground's reviews with their authors,
// newest first
func (r *reviewRepository) ListByCampgroundID(ctx context.Context, campgroundID int) ([]models.Review, error) {
	query := `
		SELECT rv.id, rv.campground_id, rv.author_id, rv.body, rv.rating, rv.created_at,
		       u.id, u.email, u.username, u.created_at
		FROM reviews rv
		JOIN users u ON u.id = rv.author_id
		WHERE rv.campground_id = ?
		ORDER BY rv.created_at DESC, rv.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, campgroundID)
	if err != nil {
		r.logger.Error("failed to query reviews", zap.Error(err), zap.Int("campgroundId", campgroundID))
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		author := &models.User{}
		if err := rows.Scan(
			&review.ID,
			&review.CampgroundID,
			&review.AuthorID,
			&review.Body,
			&review.Rating,
			&review.CreatedAt,
			&author.ID,
			&author.Email,
			&author.Username,
			&author.CreatedAt,
		); err != nil {
			r.logger.Error("failed to scan review", zap.Error(err))
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		review.Author = author
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reviews, nil
}

// Delete removes a review by ID.
// Returns ErrNotFound if no review was deleted.
func (r *reviewRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("failed to delete review", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete review: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("failed to get rows affected", zap.Error(err))
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
