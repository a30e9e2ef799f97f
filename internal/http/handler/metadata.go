package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/apperr"
)

type metadataRequest struct {
	Value string `json:"value"`
}

func (h *Handler) setMetadata(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req metadataRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	entry, err := h.meta.Set(c.UserContext(), actor, id, c.Params("key"), req.Value)
	if err != nil {
		return err
	}
	return c.JSON(entry)
}

func (h *Handler) listMetadata(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.meta.List(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

func (h *Handler) deleteMetadata(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.meta.Delete(c.UserContext(), actor, id, c.Params("key")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
