package model

import (
	"time"

	"github.com/google/uuid"
)

// DownloadToken is a single-use, time-limited link to one document version.
// The version is resolved at issuance (latest at that moment when the caller
// did not pin one), so VersionID is always set on a stored token.
//
// UsedAt is nil while the token is unconsumed and is set at most once; the
// repository performs that write as a compare-and-set so concurrent consumers
// cannot both win.
type DownloadToken struct {
	ID         uuid.UUID  `json:"id"`
	DocumentID uuid.UUID  `json:"document_id"`
	VersionID  uuid.UUID  `json:"version_id"`
	Token      string     `json:"token"`
	ExpiresAt  time.Time  `json:"expires_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}
