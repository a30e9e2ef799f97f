package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// MetadataPostgres is a PostgreSQL implementation of
// repository.MetadataRepository.
type MetadataPostgres struct {
	db *sql.DB
}

// NewMetadataPostgres creates a new MetadataPostgres repository.
func NewMetadataPostgres(db *sql.DB) *MetadataPostgres {
	return &MetadataPostgres{db: db}
}

var _ repository.MetadataRepository = (*MetadataPostgres)(nil)

// Upsert inserts or updates the entry for (document, key). The RETURNING
// clause compares timestamps to report whether the row was newly created.
func (r *MetadataPostgres) Upsert(ctx context.Context, e *model.MetadataEntry) (bool, error) {
	const q = `
		INSERT INTO document_metadata (id, document_id, key, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (document_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		RETURNING (created_at = updated_at)
	`
	var created bool
	err := r.db.QueryRowContext(ctx, q, e.ID, e.DocumentID, e.Key, e.Value, e.UpdatedAt).Scan(&created)
	if err != nil {
		return false, err
	}
	return created, nil
}

// Delete removes the entry for (document, key) and reports whether it existed.
func (r *MetadataPostgres) Delete(ctx context.Context, documentID uuid.UUID, key string) (bool, error) {
	const q = `DELETE FROM document_metadata WHERE document_id = $1 AND key = $2`
	res, err := r.db.ExecContext(ctx, q, documentID, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByDocument returns all metadata entries for a document ordered by key.
func (r *MetadataPostgres) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]model.MetadataEntry, error) {
	const q = `
		SELECT id, document_id, key, value, created_at, updated_at
		FROM document_metadata
		WHERE document_id = $1
		ORDER BY key ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]model.MetadataEntry, 0)
	for rows.Next() {
		var e model.MetadataEntry
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Key, &e.Value, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
