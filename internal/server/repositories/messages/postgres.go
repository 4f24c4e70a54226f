// Package messages provides the PostgreSQL-backed message repository.
package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dropnote/dropnote/internal/common"
	"github.com/dropnote/dropnote/internal/dbx"
	"github.com/dropnote/dropnote/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements message storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new message. A duplicate view_token is reported as
// common.ErrorAlreadyExists so the allocator can retry with a new candidate.
func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (id, creator_id, content, view_token, secret, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.CreatorID, m.Content, m.ViewToken, m.Secret, m.ExpiresAt, m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `
		SELECT id, creator_id, content, view_token, secret, expires_at, viewed_at, response, created_at
		FROM messages WHERE id = $1;
	`
	var m models.Message
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.CreatorID, &m.Content, &m.ViewToken, &m.Secret,
		&m.ExpiresAt, &m.ViewedAt, &m.Response, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &m, nil
}

func (r *PostgresRepository) GetByCreator(ctx context.Context, creatorID string) ([]*models.Message, error) {
	query := `
		SELECT id, creator_id, content, view_token, secret, expires_at, viewed_at, response, created_at
		FROM messages WHERE creator_id = $1 ORDER BY created_at DESC;
	`
	rows, err := r.db.QueryContext(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(
			&m.ID, &m.CreatorID, &m.Content, &m.ViewToken, &m.Secret,
			&m.ExpiresAt, &m.ViewedAt, &m.Response, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ExistsByViewToken(ctx context.Context, viewToken string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM messages WHERE view_token = $1);`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, viewToken).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// ConsumeView is the Pending→Viewed transition as one atomic statement: the
// WHERE clause is the compare-and-set, so two concurrent viewers can never
// both get a row back.
func (r *PostgresRepository) ConsumeView(ctx context.Context, tokenDigest string, now time.Time) (*models.Message, error) {
	query := `
		UPDATE messages SET viewed_at = $2
		WHERE view_token = $1 AND viewed_at IS NULL AND expires_at > $2
		RETURNING id, creator_id, content, view_token, secret, expires_at, viewed_at, response, created_at;
	`
	var m models.Message
	err := r.db.QueryRowContext(ctx, query, tokenDigest, now).Scan(
		&m.ID, &m.CreatorID, &m.Content, &m.ViewToken, &m.Secret,
		&m.ExpiresAt, &m.ViewedAt, &m.Response, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &m, nil
}

// AttachResponse sets the viewer response exactly once. The response IS NULL
// guard makes a second attempt indistinguishable from a missing record.
func (r *PostgresRepository) AttachResponse(ctx context.Context, tokenDigest, response string, now time.Time) error {
	query := `
		UPDATE messages SET response = $2
		WHERE view_token = $1 AND viewed_at IS NOT NULL AND response IS NULL AND expires_at > $3;
	`
	res, err := r.db.ExecContext(ctx, query, tokenDigest, response, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Update rewrites content and expiry while the message is still unviewed.
func (r *PostgresRepository) Update(ctx context.Context, m *models.Message) error {
	query := `
		UPDATE messages SET content = $3, expires_at = $4
		WHERE id = $1 AND creator_id = $2 AND viewed_at IS NULL;
	`
	res, err := r.db.ExecContext(ctx, query, m.ID, m.CreatorID, m.Content, m.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// PurgeExpired deletes messages whose expiry lies before the cutoff. The
// caller picks a cutoff in the past so freshly expired rows keep answering
// with the regular not-found for a while.
func (r *PostgresRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM messages WHERE expires_at < $1;`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, creatorID string) error {
	query := `DELETE FROM messages WHERE id = $1 AND creator_id = $2;`
	res, err := r.db.ExecContext(ctx, query, id, creatorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
