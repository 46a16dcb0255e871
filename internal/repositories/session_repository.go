package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yamacamp/backend/internal/models"
	"go.uber.org/zap"
)

// sessionRepository implements session data access over MySQL
type sessionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB, logger *zap.Logger) *sessionRepository {
	return &sessionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new session row
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	flashes, err := marshalFlashes(session.Flashes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (token, user_id, return_to, flashes, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, session.Token, nullableUserID(session.UserID), session.ReturnTo, flashes, session.ExpiresAt); err != nil {
		r.logger.Error("failed to create session", zap.Error(err))
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByToken retrieves a session by its token.
// Returns ErrNotFound for unknown or expired tokens.
func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT token, user_id, return_to, flashes, expires_at
		FROM sessions
		WHERE token = ? AND expires_at > ?
	`

	session := &models.Session{}
	var userID sql.NullInt64
	var flashes []byte
	err := r.db.QueryRowContext(ctx, query, token, time.Now()).Scan(
		&session.Token,
		&userID,
		&session.ReturnTo,
		&flashes,
		&session.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get session by token", zap.Error(err))
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}

	if userID.Valid {
		session.UserID = int(userID.Int64)
	}
	if len(flashes) > 0 {
		if err := json.Unmarshal(flashes, &session.Flashes); err != nil {
			r.logger.Error("failed to unmarshal session flashes", zap.Error(err))
			return nil, fmt.Errorf("failed to unmarshal session flashes: %w", err)
		}
	}

	return session, nil
}

// Update persists session mutations (identity, return-to URL, flashes, expiry)
func (r *sessionRepository) Update(ctx context.Context, session *models.Session) error {
	flashes, err := marshalFlashes(session.Flashes)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET user_id = ?, return_to = ?, flashes = ?, expires_at = ?
		WHERE token = ?
	`

	if _, err := r.db.ExecContext(ctx, query, nullableUserID(session.UserID), session.ReturnTo, flashes, session.ExpiresAt, session.Token); err != nil {
		r.logger.Error("failed to update session", zap.Error(err))
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// DeleteByToken removes a session row. Deleting an unknown token is not an
// error; logout must always succeed.
func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		r.logger.Error("failed to delete session", zap.Error(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges sessions past their expiry time and returns how many
// rows were removed
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now())
	if err != nil {
		r.logger.Error("failed to delete expired sessions", zap.Error(err))
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("failed to get rows affected", zap.Error(err))
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

// marshalFlashes encodes the flash map as JSON, NULL when empty. The empty
// case returns an untyped nil so the driver receives SQL NULL rather than a
// typed nil []byte.
func marshalFlashes(flashes map[string][]string) (any, error) {
	if len(flashes) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(flashes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session flashes: %w", err)
	}
	return data, nil
}

// nullableUserID maps the anonymous identity (0) to NULL
func nullableUserID(userID int) sql.NullInt64 {
	if userID == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(userID), Valid: true}
}
