package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/access"
	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/repository"
)

const maxMetadataKeyLen = 128

// MetadataService manages free-form key/value annotations on documents.
type MetadataService struct {
	docs  repository.DocumentRepository
	perms repository.PermissionRepository
	meta  repository.MetadataRepository
	log   *zap.Logger
}

// NewMetadataService constructs a new MetadataService.
func NewMetadataService(docs repository.DocumentRepository, perms repository.PermissionRepository, meta repository.MetadataRepository, log *zap.Logger) *MetadataService {
	return &MetadataService{docs: docs, perms: perms, meta: meta, log: log}
}

func (s *MetadataService) load(ctx context.Context, id uuid.UUID) (*model.Document, []model.Permission, error) {
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

// Set creates or replaces one metadata entry; requires WRITE.
func (s *MetadataService) Set(ctx context.Context, actor access.Identity, documentID uuid.UUID, key, value string) (*model.MetadataEntry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperr.Validation("metadata key is required")
	}
	if len(key) > maxMetadataKeyLen {
		return nil, apperr.Validation("metadata key exceeds %d characters", maxMetadataKeyLen)
	}
	doc, grants, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireWrite(actor, doc, grants); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &model.MetadataEntry{
		ID:         uuid.New(),
		DocumentID: documentID,
		Key:        key,
		Value:      value,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := s.meta.Upsert(ctx, entry)
	if err != nil {
		return nil, err
	}

	action := model.AuditMetadataUpdated
	if created {
		action = model.AuditMetadataAdded
	}
	s.audit(ctx, documentID, action, actor.ID, map[string]string{"key": key})
	return entry, nil
}

// Delete removes one metadata entry; requires WRITE.
func (s *MetadataService) Delete(ctx context.Context, actor access.Identity, documentID uuid.UUID, key string) error {
	doc, grants, err := s.load(ctx, documentID)
	if err != nil {
		return err
	}
	if err := access.RequireWrite(actor, doc, grants); err != nil {
		return err
	}

	found, err := s.meta.Delete(ctx, documentID, key)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("metadata key %q not found", key)
	}
	s.audit(ctx, documentID, model.AuditMetadataDeleted, actor.ID, map[string]string{"key": key})
	return nil
}

// List returns all metadata entries of a document; requires READ.
func (s *MetadataService) List(ctx context.Context, actor access.Identity, documentID uuid.UUID) ([]model.MetadataEntry, error) {
	doc, grants, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireRead(actor, doc, grants); err != nil {
		return nil, err
	}
	return s.meta.FindByDocument(ctx, documentID)
}

func (s *MetadataService) audit(ctx context.Context, documentID uuid.UUID, action model.AuditAction, actorID uuid.UUID, details map[string]string) {
	if err := s.docs.AddAudit(ctx, documentID, action, actorID, details); err != nil {
		s.log.Warn("audit write failed",
			zap.String("document_id", documentID.String()),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
