package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/apperr"
	"docvault/internal/service"
)

func (h *Handler) listDocuments(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return apperr.Validation("invalid limit")
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return apperr.Validation("invalid offset")
	}

	res, err := h.docs.List(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// upload accepts multipart/form-data with a "file" part. An optional
// "document_id" field appends a new version to an existing document instead
// of creating one.
func (h *Handler) upload(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Validation("cannot open uploaded file")
	}
	defer f.Close()

	in := service.UploadInput{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
	if raw := c.FormValue("document_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("invalid document_id format")
		}
		in.DocumentID = &id
	}

	doc, version, err := h.docs.Upload(c.UserContext(), actor, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"document": doc,
		"version":  version,
	})
}

func (h *Handler) getDocument(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	doc, err := h.docs.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

func (h *Handler) deleteDocument(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.docs.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) listVersions(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	versions, err := h.docs.Versions(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": versions})
}

func (h *Handler) deleteVersion(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	versionID, err := parseUUIDParam(c, "versionId")
	if err != nil {
		return err
	}
	if err := h.docs.DeleteVersion(c.UserContext(), actor, id, versionID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
