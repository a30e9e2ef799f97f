package repository

import (
	"context"

	"docvault/internal/model"

	"github.com/google/uuid"
)

// DocumentRepository persists document headers, their versions and the audit
// trail.
type DocumentRepository interface {
	// Create inserts a new document header and returns the stored record.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)

	// Save updates the mutable head fields (filename, content type, size,
	// updated_at) of an existing document.
	Save(ctx context.Context, doc *model.Document) error

	// Delete removes a document by ID; versions, grants, tokens and metadata
	// are cascade-deleted by the schema. Returns nil when the row is absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns a page of documents visible to the viewer: all documents
	// for admins, otherwise documents the viewer owns or holds a READ grant
	// on. Ordered newest first.
	List(ctx context.Context, viewerID uuid.UUID, admin bool, pq PageQuery) (*PageResult[model.Document], error)

	// CreateVersion inserts an immutable version row. A duplicate
	// (document_id, version_number) surfaces as apperr.ConstraintViolation;
	// the caller retries with a recomputed number.
	CreateVersion(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error)

	// FindVersionByID returns a single version row.
	FindVersionByID(ctx context.Context, id uuid.UUID) (*model.DocumentVersion, error)

	// FindVersionsByDocument returns all versions of a document ordered by
	// version number ascending.
	FindVersionsByDocument(ctx context.Context, documentID uuid.UUID) ([]model.DocumentVersion, error)

	// DeleteVersion removes a version row by ID.
	DeleteVersion(ctx context.Context, id uuid.UUID) error

	// AddAudit appends an entry to the document audit trail.
	AddAudit(ctx context.Context, documentID uuid.UUID, action model.AuditAction, actorID uuid.UUID, details map[string]string) error
}
