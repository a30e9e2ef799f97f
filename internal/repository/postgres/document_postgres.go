package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of
// repository.DocumentRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const docColumns = "id, owner_id, filename, content_type, size, created_at, updated_at"

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Filename,
		&d.ContentType,
		&d.Size,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, owner_id, filename, content_type, size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + docColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OwnerID,
		doc.Filename,
		doc.ContentType,
		doc.Size,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	const q = `SELECT ` + docColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// Save updates the mutable head fields of an existing document.
func (r *DocumentPostgres) Save(ctx context.Context, doc *model.Document) error {
	const q = `
		UPDATE documents
		SET filename = $2, content_type = $3, size = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q, doc.ID, doc.Filename, doc.ContentType, doc.Size, doc.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a document by ID. Dependent rows go with it via ON DELETE
// CASCADE. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// List returns documents visible to the viewer using LIMIT/OFFSET pagination
// and a total count. Admins see everything; other users see documents they
// own or hold a READ grant on.
func (r *DocumentPostgres) List(ctx context.Context, viewerID uuid.UUID, admin bool, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	visibility := ""
	args := []any{}
	if !admin {
		visibility = `
		WHERE d.owner_id = $1
		   OR EXISTS (
			SELECT 1 FROM document_permissions p
			WHERE p.document_id = d.id AND p.user_id = $1 AND p.capability = 'READ'
		   )`
		args = append(args, viewerID)
	}

	qCount := `SELECT COUNT(*) FROM documents d` + visibility
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := fmt.Sprintf(`
		SELECT d.id, d.owner_id, d.filename, d.content_type, d.size, d.created_at, d.updated_at
		FROM documents d%s
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT $%d OFFSET $%d
	`, visibility, len(args)+1, len(args)+2)
	args = append(args, pq.Limit, pq.Offset)

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

const versionColumns = "id, document_id, version_number, filename, content_type, size, storage_path, checksum, uploaded_by, created_at"

func scanVersion(row interface{ Scan(...any) error }) (*model.DocumentVersion, error) {
	var v model.DocumentVersion
	var checksum sql.NullString
	if err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.Filename,
		&v.ContentType,
		&v.Size,
		&v.StoragePath,
		&checksum,
		&v.UploadedBy,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	v.Checksum = checksum.String
	return &v, nil
}

// CreateVersion inserts an immutable version row. The unique constraint on
// (document_id, version_number) is the source of truth for numbering; a
// violation is returned as apperr.ConstraintViolation so the caller can
// recompute and retry.
func (r *DocumentPostgres) CreateVersion(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error) {
	const q = `
		INSERT INTO document_versions (id, document_id, version_number, filename, content_type, size, storage_path, checksum, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
		RETURNING ` + versionColumns
	row := r.db.QueryRowContext(ctx, q,
		v.ID,
		v.DocumentID,
		v.VersionNumber,
		v.Filename,
		v.ContentType,
		v.Size,
		v.StoragePath,
		v.Checksum,
		v.UploadedBy,
		v.CreatedAt,
	)
	out, err := scanVersion(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ConstraintViolation(err, "version %d already exists for document %s", v.VersionNumber, v.DocumentID)
		}
		return nil, err
	}
	return out, nil
}

// FindVersionByID fetches a single version row.
func (r *DocumentPostgres) FindVersionByID(ctx context.Context, id uuid.UUID) (*model.DocumentVersion, error) {
	const q = `SELECT ` + versionColumns + ` FROM document_versions WHERE id = $1`
	return scanVersion(r.db.QueryRowContext(ctx, q, id))
}

// FindVersionsByDocument returns all versions ordered by version number.
func (r *DocumentPostgres) FindVersionsByDocument(ctx context.Context, documentID uuid.UUID) ([]model.DocumentVersion, error) {
	const q = `SELECT ` + versionColumns + ` FROM document_versions WHERE document_id = $1 ORDER BY version_number ASC`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]model.DocumentVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return versions, nil
}

// DeleteVersion removes a version row by ID.
func (r *DocumentPostgres) DeleteVersion(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM document_versions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// AddAudit appends an entry to the audit trail. document_id carries no
// foreign key so the trail survives document deletion.
func (r *DocumentPostgres) AddAudit(ctx context.Context, documentID uuid.UUID, action model.AuditAction, actorID uuid.UUID, details map[string]string) error {
	var payload any
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		payload = b
	}
	const q = `
		INSERT INTO document_audit (id, document_id, action, actor_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, q, uuid.New(), documentID, string(action), actorID, payload, time.Now().UTC())
	return err
}
