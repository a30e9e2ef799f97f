package middleware

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/access"
	"docvault/internal/model"
	"docvault/internal/service"
)

// ActorLocalKey stores the authenticated actor identity in Fiber's locals.
const ActorLocalKey = "actor"

// UserFinder is the slice of the user repository the middleware needs.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Auth validates the Bearer token on every request and stores the resolved
// actor identity in locals. The user row is re-read so role changes and
// deletions take effect immediately, not at token expiry.
func Auth(auth service.AuthService, users UserFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := auth.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		u, err := users.FindByID(c.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fiber.NewError(fiber.StatusUnauthorized, "account no longer exists")
			}
			return err
		}

		c.Locals(ActorLocalKey, access.IdentityOf(u))
		return c.Next()
	}
}

// ActorFromCtx returns the identity stored by Auth. The boolean is false on
// routes that skipped the middleware.
func ActorFromCtx(c *fiber.Ctx) (access.Identity, bool) {
	id, ok := c.Locals(ActorLocalKey).(access.Identity)
	return id, ok
}
