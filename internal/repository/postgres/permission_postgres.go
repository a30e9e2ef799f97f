package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// PermissionPostgres is a PostgreSQL implementation of
// repository.PermissionRepository.
type PermissionPostgres struct {
	db *sql.DB
}

// NewPermissionPostgres creates a new PermissionPostgres repository.
func NewPermissionPostgres(db *sql.DB) *PermissionPostgres {
	return &PermissionPostgres{db: db}
}

var _ repository.PermissionRepository = (*PermissionPostgres)(nil)

const grantColumns = "id, document_id, user_id, capability, granted_by, granted_at"

// Grant inserts a grant row; the unique (document_id, user_id, capability)
// constraint rejects duplicates.
func (r *PermissionPostgres) Grant(ctx context.Context, g *model.Permission) (*model.Permission, error) {
	const q = `
		INSERT INTO document_permissions (id, document_id, user_id, capability, granted_by, granted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + grantColumns
	row := r.db.QueryRowContext(ctx, q, g.ID, g.DocumentID, g.UserID, g.Capability, g.GrantedBy, g.GrantedAt)

	var out model.Permission
	if err := row.Scan(&out.ID, &out.DocumentID, &out.UserID, &out.Capability, &out.GrantedBy, &out.GrantedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ConstraintViolation(err, "grant already exists")
		}
		return nil, err
	}
	return &out, nil
}

// Revoke deletes the grant matching the triple and reports whether it existed.
func (r *PermissionPostgres) Revoke(ctx context.Context, documentID, userID uuid.UUID, cap model.Capability) (bool, error) {
	const q = `DELETE FROM document_permissions WHERE document_id = $1 AND user_id = $2 AND capability = $3`
	res, err := r.db.ExecContext(ctx, q, documentID, userID, cap)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByDocument returns the full grant snapshot for a document.
func (r *PermissionPostgres) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]model.Permission, error) {
	const q = `SELECT ` + grantColumns + ` FROM document_permissions WHERE document_id = $1 ORDER BY granted_at ASC`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grants := make([]model.Permission, 0)
	for rows.Next() {
		var g model.Permission
		if err := rows.Scan(&g.ID, &g.DocumentID, &g.UserID, &g.Capability, &g.GrantedBy, &g.GrantedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}
