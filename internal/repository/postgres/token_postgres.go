package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// TokenPostgres is a PostgreSQL implementation of repository.TokenRepository.
type TokenPostgres struct {
	db *sql.DB
}

// NewTokenPostgres creates a new TokenPostgres repository.
func NewTokenPostgres(db *sql.DB) *TokenPostgres {
	return &TokenPostgres{db: db}
}

var _ repository.TokenRepository = (*TokenPostgres)(nil)

const tokenColumns = "id, document_id, version_id, token, expires_at, used_at, created_by, created_at"

func scanToken(row interface{ Scan(...any) error }) (*model.DownloadToken, error) {
	var t model.DownloadToken
	var usedAt sql.NullTime
	if err := row.Scan(
		&t.ID,
		&t.DocumentID,
		&t.VersionID,
		&t.Token,
		&t.ExpiresAt,
		&usedAt,
		&t.CreatedBy,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	return &t, nil
}

// Create inserts a token row. The unique index on the token value surfaces
// as apperr.ConstraintViolation (vanishingly rare; the issuer regenerates).
func (r *TokenPostgres) Create(ctx context.Context, t *model.DownloadToken) (*model.DownloadToken, error) {
	const q = `
		INSERT INTO download_tokens (id, document_id, version_id, token, expires_at, used_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + tokenColumns
	row := r.db.QueryRowContext(ctx, q,
		t.ID, t.DocumentID, t.VersionID, t.Token, t.ExpiresAt, t.UsedAt, t.CreatedBy, t.CreatedAt,
	)
	out, err := scanToken(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ConstraintViolation(err, "token value collision")
		}
		return nil, err
	}
	return out, nil
}

// FindByToken fetches a token by its opaque value.
func (r *TokenPostgres) FindByToken(ctx context.Context, value string) (*model.DownloadToken, error) {
	const q = `SELECT ` + tokenColumns + ` FROM download_tokens WHERE token = $1`
	return scanToken(r.db.QueryRowContext(ctx, q, value))
}

// MarkUsed performs the single-use transition as a compare-and-set: the
// predicate "used_at IS NULL" and the write happen in one statement, so two
// concurrent consumers cannot both see an affected row.
func (r *TokenPostgres) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) (bool, error) {
	const q = `UPDATE download_tokens SET used_at = $2 WHERE id = $1 AND used_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, id, usedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteExpired removes every token whose expiry lies at or before now and
// returns the count. Safe to call when nothing qualifies.
func (r *TokenPostgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM download_tokens WHERE expires_at <= $1`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
