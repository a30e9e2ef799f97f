package repository

import (
	"context"

	"docvault/internal/model"

	"github.com/google/uuid"
)

// PermissionRepository persists per-document capability grants.
type PermissionRepository interface {
	// Grant inserts a grant row. A duplicate (document, user, capability)
	// triple surfaces as apperr.ConstraintViolation.
	Grant(ctx context.Context, g *model.Permission) (*model.Permission, error)

	// Revoke deletes the grant for the given triple and reports whether a
	// row existed.
	Revoke(ctx context.Context, documentID, userID uuid.UUID, cap model.Capability) (bool, error)

	// FindByDocument returns the full grant snapshot for a document, the
	// input the permission resolver operates on.
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]model.Permission, error)
}

// MetadataRepository persists document key/value tags.
type MetadataRepository interface {
	// Upsert inserts or updates the entry for (document, key) and reports
	// whether a new row was created.
	Upsert(ctx context.Context, e *model.MetadataEntry) (created bool, err error)

	// Delete removes the entry for (document, key) and reports whether a
	// row existed.
	Delete(ctx context.Context, documentID uuid.UUID, key string) (bool, error)

	// FindByDocument returns all entries for a document ordered by key.
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]model.MetadataEntry, error)
}
