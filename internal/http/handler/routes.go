package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/access"
	"docvault/internal/apperr"
	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// Handler bundles the services the HTTP layer dispatches to.
type Handler struct {
	db    *sql.DB
	auth  service.AuthService
	docs  service.DocumentService
	perms *service.PermissionService
	meta  *service.MetadataService
	share service.ShareService
}

// New constructs a Handler.
func New(db *sql.DB, auth service.AuthService, docs service.DocumentService, perms *service.PermissionService, meta *service.MetadataService, share service.ShareService) *Handler {
	return &Handler{db: db, auth: auth, docs: docs, perms: perms, meta: meta, share: share}
}

// RegisterRoutes attaches all routes. authRequired guards everything that
// needs an authenticated actor; link validation and download stay public
// since the token itself is the credential.
func RegisterRoutes(app *fiber.App, h *Handler, authRequired fiber.Handler) {
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", h.docsPage)

	app.Get("/health", h.health)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Post("/auth/register", h.register)
	app.Post("/auth/login", h.login)

	app.Get("/links/:token", h.validateLink)
	app.Get("/links/:token/download", h.downloadLink)

	docs := app.Group("/documents", authRequired)
	docs.Get("/", h.listDocuments)
	docs.Post("/", h.upload)
	docs.Get("/:id", h.getDocument)
	docs.Delete("/:id", h.deleteDocument)
	docs.Get("/:id/versions", h.listVersions)
	docs.Delete("/:id/versions/:versionId", h.deleteVersion)
	docs.Post("/:id/permissions", h.grantPermission)
	docs.Get("/:id/permissions", h.listPermissions)
	docs.Delete("/:id/permissions/:userId/:capability", h.revokePermission)
	docs.Get("/:id/metadata", h.listMetadata)
	docs.Put("/:id/metadata/:key", h.setMetadata)
	docs.Delete("/:id/metadata/:key", h.deleteMetadata)
	docs.Post("/:id/links", h.issueLink)

	admin := app.Group("/admin", authRequired)
	admin.Delete("/links/expired", h.purgeExpiredLinks)
}

func (h *Handler) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
}

func (h *Handler) docsPage(c *fiber.Ctx) error {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
	return c.Type("html").SendString(html)
}

// actorFromCtx returns the authenticated identity or a 401 for routes that
// somehow bypassed the auth middleware.
func actorFromCtx(c *fiber.Ctx) (access.Identity, error) {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return access.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	return actor, nil
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s format", name)
	}
	return id, nil
}
