package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/access"
	"docvault/internal/apperr"
	"docvault/internal/document"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

// maxVersionRetries bounds recomputation when a concurrent upload claims the
// same version number first.
const maxVersionRetries = 3

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// UploadInput carries one upload request. A nil DocumentID creates a new
// document; otherwise the content becomes a new version of the existing one.
type UploadInput struct {
	DocumentID  *uuid.UUID
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// DocumentService defines the document use cases. Every operation resolves
// permissions against a fresh grant snapshot before touching state.
type DocumentService interface {
	// Upload stores content as the next version of a document, creating the
	// document first when no id is supplied. Writing to an existing document
	// requires WRITE.
	Upload(ctx context.Context, actor access.Identity, in UploadInput) (*model.Document, *model.DocumentVersion, error)

	// Get returns a single document; requires READ.
	Get(ctx context.Context, actor access.Identity, id uuid.UUID) (*model.Document, error)

	// List returns documents visible to the actor using limit/offset.
	List(ctx context.Context, actor access.Identity, limit, offset int) (*DocumentListResult, error)

	// Delete removes a document, its stored objects and (via cascade) its
	// versions, grants, tokens and metadata; requires DELETE.
	Delete(ctx context.Context, actor access.Identity, id uuid.UUID) error

	// Versions lists a document's versions ascending; requires READ.
	Versions(ctx context.Context, actor access.Identity, documentID uuid.UUID) ([]model.DocumentVersion, error)

	// DeleteVersion removes a single version; requires WRITE. The last
	// remaining version cannot be removed.
	DeleteVersion(ctx context.Context, actor access.Identity, documentID, versionID uuid.UUID) error
}

type documentService struct {
	docs  repository.DocumentRepository
	perms repository.PermissionRepository
	store storage.Storage
	log   *zap.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(docs repository.DocumentRepository, perms repository.PermissionRepository, store storage.Storage, log *zap.Logger) DocumentService {
	return &documentService{docs: docs, perms: perms, store: store, log: log}
}

// load fetches a document plus the grant snapshot the resolver needs.
func (s *documentService) load(ctx context.Context, id uuid.UUID) (*model.Document, []model.Permission, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperr.NotFound("document %s not found", id)
		}
		return nil, nil, err
	}
	grants, err := s.perms.FindByDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return doc, grants, nil
}

func (s *documentService) Upload(ctx context.Context, actor access.Identity, in UploadInput) (*model.Document, *model.DocumentVersion, error) {
	if in.Reader == nil {
		return nil, nil, apperr.Validation("file content is required")
	}
	if in.Filename == "" {
		return nil, nil, apperr.Validation("filename is required")
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now().UTC()
	var doc *model.Document
	createdDoc := false

	if in.DocumentID == nil {
		d := &model.Document{
			ID:          uuid.New(),
			OwnerID:     actor.ID,
			Filename:    in.Filename,
			ContentType: contentType,
			Size:        in.Size,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		stored, err := s.docs.Create(ctx, d)
		if err != nil {
			return nil, nil, fmt.Errorf("create document: %w", err)
		}
		doc = stored
		createdDoc = true
	} else {
		d, grants, err := s.load(ctx, *in.DocumentID)
		if err != nil {
			return nil, nil, err
		}
		if err := access.RequireWrite(actor, d, grants); err != nil {
			return nil, nil, err
		}
		doc = d
	}

	versions, err := s.docs.FindVersionsByDocument(ctx, doc.ID)
	if err != nil {
		return nil, nil, s.rollbackDoc(ctx, doc, createdDoc, "", err)
	}
	agg := document.New(*doc, versions)
	v := agg.PlanVersion(document.Draft{
		Filename:    in.Filename,
		ContentType: contentType,
		Size:        in.Size,
		UploadedBy:  actor.ID,
	}, now)

	// Object keys derive from the version id, so a retried row insert with a
	// recomputed number keeps pointing at the already-uploaded object.
	key := storage.VersionKey(doc.ID, v.ID)
	objInfo, err := s.store.Put(ctx, key, in.Reader, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": in.Filename},
	})
	if err != nil {
		return nil, nil, s.rollbackDoc(ctx, doc, createdDoc, "", fmt.Errorf("upload to storage: %w", err))
	}
	v.StoragePath = objInfo.Key
	v.Checksum = objInfo.ETag
	if objInfo.Size > 0 {
		v.Size = objInfo.Size
	}

	// The aggregate's number is advisory; the unique (document_id,
	// version_number) constraint decides races, and we retry with a freshly
	// recomputed number when a concurrent upload wins.
	var stored *model.DocumentVersion
	for attempt := 0; ; attempt++ {
		stored, err = s.docs.CreateVersion(ctx, &v)
		if err == nil {
			break
		}
		if !apperr.IsKind(err, apperr.KindConstraintViolation) || attempt >= maxVersionRetries {
			return nil, nil, s.rollbackDoc(ctx, doc, createdDoc, key, err)
		}
		current, verr := s.docs.FindVersionsByDocument(ctx, doc.ID)
		if verr != nil {
			return nil, nil, s.rollbackDoc(ctx, doc, createdDoc, key, verr)
		}
		v.VersionNumber = document.New(*doc, current).NextVersionNumber()
		s.log.Warn("version number taken, retrying with recomputed number",
			zap.String("document_id", doc.ID.String()),
			zap.Int("version_number", v.VersionNumber))
	}

	// Keep the in-memory aggregate consistent and mirror head fields from
	// the newest version.
	agg = agg.Attach(*stored)
	doc.Filename = stored.Filename
	doc.ContentType = stored.ContentType
	doc.Size = stored.Size
	doc.UpdatedAt = now
	if err := s.docs.Save(ctx, doc); err != nil {
		return nil, nil, fmt.Errorf("update document head: %w", err)
	}

	action := model.AuditNewVersion
	if createdDoc {
		action = model.AuditCreated
	}
	s.audit(ctx, doc.ID, action, actor.ID, map[string]string{
		"version":  fmt.Sprintf("%d", stored.VersionNumber),
		"filename": stored.Filename,
	})

	return doc, stored, nil
}

// rollbackDoc undoes partial upload state: the stored object (when key is
// set) and a document header created by this very request.
func (s *documentService) rollbackDoc(ctx context.Context, doc *model.Document, createdDoc bool, key string, cause error) error {
	if key != "" {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return fmt.Errorf("%v; rollback delete failed: %v", cause, delErr)
		}
	}
	if createdDoc {
		if delErr := s.docs.Delete(ctx, doc.ID); delErr != nil {
			s.log.Error("rollback document delete failed",
				zap.String("document_id", doc.ID.String()), zap.Error(delErr))
		}
	}
	return cause
}

func (s *documentService) Get(ctx context.Context, actor access.Identity, id uuid.UUID) (*model.Document, error) {
	doc, grants, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireRead(actor, doc, grants); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, actor access.Identity, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.docs.List(ctx, actor.ID, actor.IsAdmin(), repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Delete(ctx context.Context, actor access.Identity, id uuid.UUID) error {
	doc, grants, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.RequireDelete(actor, doc, grants); err != nil {
		return err
	}

	versions, err := s.docs.FindVersionsByDocument(ctx, id)
	if err != nil {
		return err
	}
	// Delete objects first; a failure keeps the DB rows so nothing is orphaned.
	for _, v := range versions {
		if err := s.store.Delete(ctx, v.StoragePath); err != nil {
			return fmt.Errorf("delete storage object %s: %w", v.StoragePath, err)
		}
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, id, model.AuditDeleted, actor.ID, map[string]string{"filename": doc.Filename})
	return nil
}

func (s *documentService) Versions(ctx context.Context, actor access.Identity, documentID uuid.UUID) ([]model.DocumentVersion, error) {
	doc, grants, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireRead(actor, doc, grants); err != nil {
		return nil, err
	}
	versions, err := s.docs.FindVersionsByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return document.New(*doc, versions).Versions(), nil
}

func (s *documentService) DeleteVersion(ctx context.Context, actor access.Identity, documentID, versionID uuid.UUID) error {
	doc, grants, err := s.load(ctx, documentID)
	if err != nil {
		return err
	}
	if err := access.RequireWrite(actor, doc, grants); err != nil {
		return err
	}

	versions, err := s.docs.FindVersionsByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	agg := document.New(*doc, versions)

	target, ok := findVersion(versions, versionID)
	if !ok {
		return apperr.NotFound("version %s not found", versionID)
	}
	if agg.Len() == 1 {
		return apperr.Validation("cannot remove the only version of a document")
	}

	if err := s.store.Delete(ctx, target.StoragePath); err != nil {
		return fmt.Errorf("delete storage object %s: %w", target.StoragePath, err)
	}
	if err := s.docs.DeleteVersion(ctx, versionID); err != nil {
		return err
	}

	// When the removed version was the head, re-mirror from the new latest.
	remaining := agg.Remove(versionID)
	if latest, ok := remaining.Latest(); ok && target.VersionNumber > latest.VersionNumber {
		doc.Filename = latest.Filename
		doc.ContentType = latest.ContentType
		doc.Size = latest.Size
		doc.UpdatedAt = time.Now().UTC()
		if err := s.docs.Save(ctx, doc); err != nil {
			return fmt.Errorf("update document head: %w", err)
		}
	}
	return nil
}

func findVersion(versions []model.DocumentVersion, id uuid.UUID) (model.DocumentVersion, bool) {
	for _, v := range versions {
		if v.ID == id {
			return v, true
		}
	}
	return model.DocumentVersion{}, false
}

// audit appends to the trail on a best-effort basis; failures are logged,
// never surfaced to the caller.
func (s *documentService) audit(ctx context.Context, documentID uuid.UUID, action model.AuditAction, actorID uuid.UUID, details map[string]string) {
	if err := s.docs.AddAudit(ctx, documentID, action, actorID, details); err != nil {
		s.log.Warn("audit write failed",
			zap.String("document_id", documentID.String()),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
