package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction enumerates every event recorded in the document audit trail.
type AuditAction string

const (
	AuditCreated         AuditAction = "created"
	AuditNewVersion      AuditAction = "new_version"
	AuditDeleted         AuditAction = "deleted"
	AuditLinkGenerated   AuditAction = "download_link_generated"
	AuditDownloaded      AuditAction = "downloaded"
	AuditMetadataAdded   AuditAction = "metadata_added"
	AuditMetadataUpdated AuditAction = "metadata_updated"
	AuditMetadataDeleted AuditAction = "metadata_deleted"
)

// AuditEntry is one row of the per-document audit trail. DocumentID is not a
// foreign key: the trail outlives document deletion.
type AuditEntry struct {
	ID         uuid.UUID         `json:"id"`
	DocumentID uuid.UUID         `json:"document_id"`
	Action     AuditAction       `json:"action"`
	ActorID    uuid.UUID         `json:"actor_id"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// MetadataEntry is a key/value tag attached to a document; keys are unique
// per document.
type MetadataEntry struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
