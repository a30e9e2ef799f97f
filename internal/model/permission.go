package model

import (
	"time"

	"github.com/google/uuid"
)

// Capability is one of the three per-document permissions a user can be
// granted. Capabilities are independent: WRITE does not imply READ.
type Capability string

const (
	CapabilityRead   Capability = "READ"
	CapabilityWrite  Capability = "WRITE"
	CapabilityDelete Capability = "DELETE"
)

// Valid reports whether c is one of the known capabilities.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityRead, CapabilityWrite, CapabilityDelete:
		return true
	}
	return false
}

// Permission is a single (document, user, capability) grant. The database
// enforces at most one row per triple.
type Permission struct {
	ID         uuid.UUID  `json:"id"`
	DocumentID uuid.UUID  `json:"document_id"`
	UserID     uuid.UUID  `json:"user_id"`
	Capability Capability `json:"capability"`
	GrantedBy  uuid.UUID  `json:"granted_by"`
	GrantedAt  time.Time  `json:"granted_at"`
}
