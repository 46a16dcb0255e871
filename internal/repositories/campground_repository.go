package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/yamacamp/backend/internal/models"
	"go.uber.org/zap"
)

// campgroundRepository implements campground data access over MySQL
type campgroundRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCampgroundRepository creates a new campground repository
func NewCampgroundRepository(db *sql.DB, logger *zap.Logger) *campgroundRepository {
	return &campgroundRepository{
		db:     db,
		logger: logger,
	}
}

// List retrieves all campgrounds with their image lists, newest first
func (r *campgroundRepository) List(ctx context.Context) ([]models.Campground, error) {
	query := `
		SELECT id, title, price, description, location, latitude, longitude, author_id, created_at
		FROM campgrounds
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query campgrounds", zap.Error(err))
		return nil, fmt.Errorf("failed to query campgrounds: %w", err)
	}
	defer rows.Close()

	var campgrounds []models.Campground
	ids := make([]int, 0)
	for rows.Next() {
		var c models.Campground
		if err := rows.Scan(&c.ID, &c.Title, &c.Price, &c.Description, &c.Location, &c.Latitude, &c.Longitude, &c.AuthorID, &c.CreatedAt); err != nil {
			r.logger.Error("failed to scan campground", zap.Error(err))
			return nil, fmt.Errorf("failed to scan campground: %w", err)
		}
		campgrounds = append(campgrounds, c)
		ids = append(ids, c.ID)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(campgrounds) == 0 {
		return campgrounds, nil
	}

	images, err := r.imagesByCampgroundIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range campgrounds {
		campgrounds[i].Images = images[campgrounds[i].ID]
	}

	return campgrounds, nil
}

// GetByID retrieves a campground with its author and ordered image list.
// Returns ErrNotFound if no campground has the given id.
func (r *campgroundRepository) GetByID(ctx context.Context, id int) (*models.Campground, error) {
	query := `
		SELECT c.id, c.title, c.price, c.description, c.location, c.latitude, c.longitude, c.author_id, c.created_at,
		       u.id, u.email, u.username, u.created_at
		FROM campgrounds c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = ?
	`

	campground := &models.Campground{}
	author := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&campground.ID,
		&campground.Title,
		&campground.Price,
		&campground.Description,
		&campground.Location,
		&campground.Latitude,
		&campground.Longitude,
		&campground.AuthorID,
		&campground.CreatedAt,
		&author.ID,
		&author.Email,
		&author.Username,
		&author.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get campground by id", zap.Error(err), zap.Int("id", id))
		return nil, fmt.Errorf("failed to get campground by id: %w", err)
	}
	campground.Author = author

	images, err := r.imagesByCampgroundIDs(ctx, []int{campground.ID})
	if err != nil {
		return nil, err
	}
	campground.Images = images[campground.ID]

	return campground, nil
}

// Create inserts a campground together with its image rows in one transaction
func (r *campgroundRepository) Create(ctx context.Context, campground *models.Campground) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO campgrounds (title, price, description, location, latitude, longitude, author_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		campground.Title,
		campground.Price,
		campground.Description,
		campground.Location,
		campground.Latitude,
		campground.Longitude,
		campground.AuthorID,
	)
	if err != nil {
		r.logger.Error("failed to create campground", zap.Error(err))
		return fmt.Errorf("failed to create campground: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	campground.ID = int(id)

	if err := insertImages(ctx, tx, campground.ID, campground.Images, 0); err != nil {
		r.logger.Error("failed to insert campground images", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Update rewrites the campground's own columns. Image changes go through
// AddImages and DeleteImagesByFilenames.
func (r *campgroundRepository) Update(ctx context.Context, campground *models.Campground) error {
	query := `
		UPDATE campgrounds
		SET title = ?, price = ?, description = ?, location = ?, latitude = ?, longitude = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		campground.Title,
		campground.Price,
		campground.Description,
		campground.Location,
		campground.Latitude,
		campground.Longitude,
		campground.ID,
	)
	if err != nil {
		r.logger.Error("failed to update campground", zap.Error(err), zap.Int("id", campground.ID))
		return fmt.Errorf("failed to update campground: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("failed to get rows affected", zap.Error(err))
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or nothing changed; confirm it still exists
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT * FROM campgrounds WHERE id = ?)`, campground.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check campground existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}

	return nil
}

// AddImages appends image rows after the campground's current last position
func (r *campgroundRepository) AddImages(ctx context.Context, campgroundID int, images []models.Image) error {
	if len(images) == 0 {
		return nil
	}

	var maxPosition sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(position) FROM campground_images WHERE campground_id = ?`,
		campgroundID,
	).Scan(&maxPosition)
	if err != nil {
		r.logger.Error("failed to get max image position", zap.Error(err), zap.Int("campgroundId", campgroundID))
		return fmt.Errorf("failed to get max image position: %w", err)
	}

	next := 0
	if maxPosition.Valid {
		next = int(maxPosition.Int64) + 1
	}

	return insertImages(ctx, r.db, campgroundID, images, next)
}

// DeleteImagesByFilenames removes the given stored images from a campground
func (r *campgroundRepository) DeleteImagesByFilenames(ctx context.Context, campgroundID int, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(filenames))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(
		`DELETE FROM campground_images WHERE campground_id = ? AND filename IN (%s)`,
		placeholders,
	)

	args := make([]any, 0, len(filenames)+1)
	args = append(args, campgroundID)
	for _, f := range filenames {
		args = append(args, f)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to delete campground images", zap.Error(err), zap.Int("campgroundId", campgroundID))
		return fmt.Errorf("failed to delete campground images: %w", err)
	}

	return nil
}

// Delete removes a campground, its reviews and its image rows in one
// transaction. Reviews go first so a failed transaction never leaves
// orphaned reviews pointing at a deleted campground.
func (r *campgroundRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE campground_id = ?`, id); err != nil {
		r.logger.Error("failed to delete campground reviews", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete campground reviews: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM campground_images WHERE campground_id = ?`, id); err != nil {
		r.logger.Error("failed to delete campground images", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete campground images: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM campgrounds WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("failed to delete campground", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete campground: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("failed to get rows affected", zap.Error(err))
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// execer lets insertImages run inside or outside a transaction
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertImages inserts image rows starting at the given position
func insertImages(ctx context.Context, db execer, campgroundID int, images []models.Image, startPosition int) error {
	query := `
		INSERT INTO campground_images (campground_id, url, filename, position)
		VALUES (?, ?, ?, ?)
	`

	for i, image := range images {
		if _, err := db.ExecContext(ctx, query, campgroundID, image.URL, image.Filename, startPosition+i); err != nil {
			return fmt.Errorf("failed to insert campground image: %w", err)
		}
	}
	return nil
}

// imagesByCampgroundIDs loads ordered image lists grouped by campground id
func (r *campgroundRepository) imagesByCampgroundIDs(ctx context.Context, ids []int) (map[int][]models.Image, error) {
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`
		SELECT id, campground_id, url, filename, position
		FROM campground_images
		WHERE campground_id IN (%s)
		ORDER BY campground_id, position
	`, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query campground images", zap.Error(err))
		return nil, fmt.Errorf("failed to query campground images: %w", err)
	}
	defer rows.Close()

	images := make(map[int][]models.Image)
	for rows.Next() {
		var img models.Image
		var campgroundID int
		if err := rows.Scan(&img.ID, &campgroundID, &img.URL, &img.Filename, &img.Position); err != nil {
			r.logger.Error("failed to scan campground image", zap.Error(err))
			return nil, fmt.Errorf("failed to scan campground image: %w", err)
		}
		images[campgroundID] = append(images[campgroundID], img)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return images, nil
}
