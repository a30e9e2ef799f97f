package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/access"
	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// PermissionService manages per-document capability grants. Granting and
// revoking are reserved to the document owner and administrators.
type PermissionService struct {
	docs  repository.DocumentRepository
	perms repository.PermissionRepository
	users repository.UserRepository
	log   *zap.Logger
}

// NewPermissionService constructs a new PermissionService.
func NewPermissionService(docs repository.DocumentRepository, perms repository.PermissionRepository, users repository.UserRepository, log *zap.Logger) *PermissionService {
	return &PermissionService{docs: docs, perms: perms, users: users, log: log}
}

func (s *PermissionService) findDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document %s not found", id)
		}
		return nil, err
	}
	return doc, nil
}

// Grant gives userID the capability on the document.
func (s *PermissionService) Grant(ctx context.Context, actor access.Identity, documentID, userID uuid.UUID, cap model.Capability) (*model.Permission, error) {
	if !cap.Valid() {
		return nil, apperr.Validation("unknown capability %q", cap)
	}
	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwnerOrAdmin(actor, doc, cap); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, err
	}
	if userID == doc.OwnerID {
		return nil, apperr.Validation("owner already holds every capability")
	}

	g := &model.Permission{
		ID:         uuid.New(),
		DocumentID: documentID,
		UserID:     userID,
		Capability: cap,
		GrantedBy:  actor.ID,
		GrantedAt:  time.Now().UTC(),
	}
	stored, err := s.perms.Grant(ctx, g)
	if err != nil {
		if apperr.IsKind(err, apperr.KindConstraintViolation) {
			return nil, apperr.Validation("capability %s already granted", cap)
		}
		return nil, err
	}

	s.log.Info("permission granted",
		zap.String("document_id", documentID.String()),
		zap.String("user_id", userID.String()),
		zap.String("capability", string(cap)))
	return stored, nil
}

// Revoke removes the grant for the given triple.
func (s *PermissionService) Revoke(ctx context.Context, actor access.Identity, documentID, userID uuid.UUID, cap model.Capability) error {
	if !cap.Valid() {
		return apperr.Validation("unknown capability %q", cap)
	}
	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := access.RequireOwnerOrAdmin(actor, doc, cap); err != nil {
		return err
	}
	found, err := s.perms.Revoke(ctx, documentID, userID, cap)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("no %s grant for user %s", cap, userID)
	}
	return nil
}

// List returns the document's grants; owner and admins only.
func (s *PermissionService) List(ctx context.Context, actor access.Identity, documentID uuid.UUID) ([]model.Permission, error) {
	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwnerOrAdmin(actor, doc, model.CapabilityRead); err != nil {
		return nil, err
	}
	return s.perms.FindByDocument(ctx, documentID)
}
