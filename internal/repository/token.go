package repository

import (
	"context"
	"time"

	"docvault/internal/model"

	"github.com/google/uuid"
)

// TokenRepository persists download tokens.
type TokenRepository interface {
	// Create inserts a token row. A duplicate token value surfaces as
	// apperr.ConstraintViolation.
	Create(ctx context.Context, t *model.DownloadToken) (*model.DownloadToken, error)

	// FindByToken returns a token by its opaque value.
	FindByToken(ctx context.Context, value string) (*model.DownloadToken, error)

	// MarkUsed sets used_at for the token with the given id only if it is
	// currently unset (compare-and-set, a single UPDATE ... WHERE used_at IS
	// NULL). Returns false when another consumer already won.
	MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) (bool, error)

	// DeleteExpired removes every token whose expiry lies at or before now,
	// used or not, and returns the number of rows deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
