package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/access"
	"docvault/internal/apperr"
	"docvault/internal/document"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
	"docvault/internal/token"
)

// presignTTL bounds the presigned storage URL handed out on consumption.
// Independent of the link's own TTL: the link is single-use by then.
const presignTTL = 5 * time.Minute

// maxIssueRetries bounds regeneration on a token-value collision.
const maxIssueRetries = 3

// IssueInput carries the optional parameters of link issuance. A nil
// VersionID pins the document's latest version at issuance time; a nil TTL
// applies the configured default.
type IssueInput struct {
	VersionID *uuid.UUID
	TTL       *time.Duration
}

// LinkValidation is the read-only answer of Validate.
type LinkValidation struct {
	Valid      bool       `json:"valid"`
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	VersionID  *uuid.UUID `json:"version_id,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// DownloadResult is the outcome of a successful consumption.
type DownloadResult struct {
	Document *model.Document        `json:"document"`
	Version  *model.DocumentVersion `json:"version"`
	URL      string                 `json:"url"`
}

// ShareService orchestrates the download-token lifecycle around the pure
// transitions in the token package.
type ShareService interface {
	// Issue creates a single-use download link; requires READ on the document.
	Issue(ctx context.Context, actor access.Identity, documentID uuid.UUID, in IssueInput) (*model.DownloadToken, error)

	// Validate reports whether a link is currently consumable. It never
	// mutates state and is safe to call repeatedly.
	Validate(ctx context.Context, value string) (*LinkValidation, error)

	// Consume performs the download transition: checks run in strict order
	// (exists, not expired, not used, target still present) and the used-at
	// write is the repository's compare-and-set, so concurrent consumers
	// produce exactly one winner.
	Consume(ctx context.Context, value string) (*DownloadResult, error)

	// DeleteExpired removes all expired tokens, used or not. ADMIN only;
	// idempotent.
	DeleteExpired(ctx context.Context, actor access.Identity) (int64, error)
}

type shareService struct {
	docs       repository.DocumentRepository
	perms      repository.PermissionRepository
	tokens     repository.TokenRepository
	store      storage.Storage
	defaultTTL time.Duration
	log        *zap.Logger
}

// NewShareService constructs a new ShareService. defaultTTL <= 0 falls back
// to the package default.
func NewShareService(docs repository.DocumentRepository, perms repository.PermissionRepository, tokens repository.TokenRepository, store storage.Storage, defaultTTL time.Duration, log *zap.Logger) ShareService {
	if defaultTTL <= 0 {
		defaultTTL = token.DefaultTTL
	}
	return &shareService{docs: docs, perms: perms, tokens: tokens, store: store, defaultTTL: defaultTTL, log: log}
}

func (s *shareService) Issue(ctx context.Context, actor access.Identity, documentID uuid.UUID, in IssueInput) (*model.DownloadToken, error) {
	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document %s not found", documentID)
		}
		return nil, err
	}
	grants, err := s.perms.FindByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireRead(actor, doc, grants); err != nil {
		return nil, err
	}

	var versionID uuid.UUID
	if in.VersionID != nil {
		v, err := s.docs.FindVersionByID(ctx, *in.VersionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperr.NotFound("version %s not found", *in.VersionID)
			}
			return nil, err
		}
		if v.DocumentID != documentID {
			return nil, apperr.NotFound("version %s not found", *in.VersionID)
		}
		versionID = v.ID
	} else {
		// Unpinned links resolve to the latest version at issuance time.
		versions, err := s.docs.FindVersionsByDocument(ctx, documentID)
		if err != nil {
			return nil, err
		}
		latest, ok := document.New(*doc, versions).Latest()
		if !ok {
			return nil, apperr.NotFound("document %s has no versions", documentID)
		}
		versionID = latest.ID
	}

	ttl := s.defaultTTL
	if in.TTL != nil {
		ttl = *in.TTL
	}
	now := time.Now().UTC()

	var stored *model.DownloadToken
	for attempt := 0; ; attempt++ {
		tok := token.New(documentID, versionID, actor.ID, ttl, now)
		stored, err = s.tokens.Create(ctx, &tok)
		if err == nil {
			break
		}
		// A value collision is astronomically unlikely; regenerate and retry.
		if !apperr.IsKind(err, apperr.KindConstraintViolation) || attempt >= maxIssueRetries {
			return nil, err
		}
	}

	s.audit(ctx, documentID, model.AuditLinkGenerated, actor.ID, map[string]string{
		"token_id":   stored.ID.String(),
		"expires_at": stored.ExpiresAt.Format(time.RFC3339),
	})
	return stored, nil
}

func (s *shareService) Validate(ctx context.Context, value string) (*LinkValidation, error) {
	tok, err := s.tokens.FindByToken(ctx, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &LinkValidation{Valid: false}, nil
		}
		return nil, err
	}
	if token.Status(*tok, time.Now().UTC()) != token.StateActive {
		return &LinkValidation{Valid: false}, nil
	}
	return &LinkValidation{
		Valid:      true,
		DocumentID: &tok.DocumentID,
		VersionID:  &tok.VersionID,
		ExpiresAt:  &tok.ExpiresAt,
	}, nil
}

func (s *shareService) Consume(ctx context.Context, value string) (*DownloadResult, error) {
	tok, err := s.tokens.FindByToken(ctx, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("download link not found")
		}
		return nil, err
	}

	now := time.Now().UTC()
	switch token.Status(*tok, now) {
	case token.StateExpired:
		return nil, apperr.TokenExpired()
	case token.StateUsed:
		return nil, apperr.TokenAlreadyUsed()
	}

	version, err := s.docs.FindVersionByID(ctx, tok.VersionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document version no longer exists")
		}
		return nil, err
	}
	doc, err := s.docs.FindByID(ctx, tok.DocumentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document no longer exists")
		}
		return nil, err
	}

	// The compare-and-set decides races: a second concurrent consumer sees
	// zero affected rows here and loses.
	won, err := s.tokens.MarkUsed(ctx, tok.ID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperr.TokenAlreadyUsed()
	}

	url, err := s.store.PresignGet(ctx, version.StoragePath, presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}

	s.audit(ctx, tok.DocumentID, model.AuditDownloaded, tok.CreatedBy, map[string]string{
		"token_id": tok.ID.String(),
		"version":  fmt.Sprintf("%d", version.VersionNumber),
	})
	return &DownloadResult{Document: doc, Version: version, URL: url}, nil
}

func (s *shareService) DeleteExpired(ctx context.Context, actor access.Identity) (int64, error) {
	if !actor.IsAdmin() {
		return 0, apperr.New(apperr.KindInsufficientPermission, "expired-link cleanup requires the ADMIN role")
	}
	n, err := s.tokens.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired download links purged", zap.Int64("count", n))
	}
	return n, nil
}

func (s *shareService) audit(ctx context.Context, documentID uuid.UUID, action model.AuditAction, actorID uuid.UUID, details map[string]string) {
	if err := s.docs.AddAudit(ctx, documentID, action, actorID, details); err != nil {
		s.log.Warn("audit write failed",
			zap.String("document_id", documentID.String()),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
