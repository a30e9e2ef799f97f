package model

import (
	"time"

	"github.com/google/uuid"
)

// Document is the header of a versioned document. Filename, ContentType and
// Size mirror the newest version and are updated whenever a version is added
// or the latest one removed.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DocumentVersion is an immutable snapshot of a document's content.
// Version numbers are contiguous starting at 1 and unique per document;
// the database enforces uniqueness of (document_id, version_number).
type DocumentVersion struct {
	ID            uuid.UUID `json:"id"`
	DocumentID    uuid.UUID `json:"document_id"`
	VersionNumber int       `json:"version_number"`
	Filename      string    `json:"filename"`
	ContentType   string    `json:"content_type"`
	Size          int64     `json:"size"`
	StoragePath   string    `json:"storage_path"`
	Checksum      string    `json:"checksum,omitempty"`
	UploadedBy    uuid.UUID `json:"uploaded_by"`
	CreatedAt     time.Time `json:"created_at"`
}
