package repository

import (
	"context"

	"docvault/internal/model"

	"github.com/google/uuid"
)

// UserRepository persists user accounts. The core uses it as a read-only
// identity lookup; writes happen only through the auth use cases.
type UserRepository interface {
	// Create inserts a new user. A duplicate email surfaces as
	// apperr.ConstraintViolation.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// FindByEmail returns a user by email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
