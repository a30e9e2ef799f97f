package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/apperr"
	"docvault/internal/model"
)

type grantRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	Capability string    `json:"capability"`
}

func (h *Handler) grantPermission(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req grantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.UserID == uuid.Nil {
		return apperr.Validation("user_id is required")
	}

	g, err := h.perms.Grant(c.UserContext(), actor, id, req.UserID, model.Capability(req.Capability))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(g)
}

func (h *Handler) listPermissions(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	grants, err := h.perms.List(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grants})
}

func (h *Handler) revokePermission(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	userID, err := parseUUIDParam(c, "userId")
	if err != nil {
		return err
	}
	cap := model.Capability(c.Params("capability"))

	if err := h.perms.Revoke(c.UserContext(), actor, id, userID, cap); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
