package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/apperr"
	"docvault/internal/service"
)

type issueLinkRequest struct {
	VersionID *uuid.UUID `json:"version_id,omitempty"`
	TTLSec    *int       `json:"ttl_sec,omitempty"`
}

type issueLinkResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) issueLink(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req issueLinkRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid request body")
		}
	}

	in := service.IssueInput{VersionID: req.VersionID}
	if req.TTLSec != nil {
		if *req.TTLSec < 0 {
			return apperr.Validation("ttl_sec must not be negative")
		}
		ttl := time.Duration(*req.TTLSec) * time.Second
		in.TTL = &ttl
	}

	tok, err := h.share.Issue(c.UserContext(), actor, id, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(issueLinkResponse{
		Token:     tok.Token,
		URL:       "/links/" + tok.Token + "/download",
		ExpiresAt: tok.ExpiresAt,
	})
}

func (h *Handler) validateLink(c *fiber.Ctx) error {
	res, err := h.share.Validate(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// downloadLink consumes the single-use token and redirects to a short-lived
// presigned object URL.
func (h *Handler) downloadLink(c *fiber.Ctx) error {
	res, err := h.share.Consume(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.Redirect(res.URL, fiber.StatusFound)
}

func (h *Handler) purgeExpiredLinks(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	n, err := h.share.DeleteExpired(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": n})
}
