// Package token implements the download-token state machine. A token is
// Active until it is consumed (Used, terminal) or its expiry passes
// (Expired, terminal, derived from the clock rather than stored). All
// transitions are pure functions returning new values; the atomicity of the
// used-at write is the token repository's job.
package token

import (
	"time"

	"docvault/internal/apperr"
	"docvault/internal/model"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// DefaultTTL applies when a link is issued without an explicit lifetime.
// It is the single authoritative default; config may override it at startup.
const DefaultTTL = 15 * time.Minute

// State is the lifecycle position of a token at a given instant.
type State int

const (
	StateActive State = iota
	StateUsed
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateUsed:
		return "used"
	case StateExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// NewValue generates an unguessable opaque token value. shortuuid encodes a
// crypto/rand-backed UUIDv4, so values are unique and not enumerable.
func NewValue() string {
	return shortuuid.New()
}

// New builds an Active token bound to a concrete document version.
// expiresAt = now + ttl; a zero or negative ttl therefore yields a token
// that is already expired at birth.
func New(documentID, versionID, createdBy uuid.UUID, ttl time.Duration, now time.Time) model.DownloadToken {
	return model.DownloadToken{
		ID:         uuid.New(),
		DocumentID: documentID,
		VersionID:  versionID,
		Token:      NewValue(),
		ExpiresAt:  now.Add(ttl),
		CreatedBy:  createdBy,
		CreatedAt:  now,
	}
}

// Status derives the token's state at the given instant. The expiry check
// comes first: a token that is both expired and used reports Expired. The
// boundary now == expiresAt counts as expired.
func Status(t model.DownloadToken, now time.Time) State {
	if !now.Before(t.ExpiresAt) {
		return StateExpired
	}
	if t.UsedAt != nil {
		return StateUsed
	}
	return StateActive
}

// MarkUsed returns a copy of t with UsedAt set, or a kind-typed error when
// the token is not Active. This is the pure half of consumption; the
// repository's compare-and-set decides races between concurrent consumers.
func MarkUsed(t model.DownloadToken, now time.Time) (model.DownloadToken, error) {
	switch Status(t, now) {
	case StateExpired:
		return t, apperr.TokenExpired()
	case StateUsed:
		return t, apperr.TokenAlreadyUsed()
	}
	used := now
	t.UsedAt = &used
	return t, nil
}
