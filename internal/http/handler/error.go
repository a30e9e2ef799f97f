package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docvault/internal/apperr"
	"docvault/internal/http/middleware"
)

// errorPayload is the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking
// internal details.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// statusAndCode maps the closed domain error kinds onto HTTP.
func statusAndCode(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.KindValidation:
		return fiber.StatusBadRequest, "VALIDATION_ERROR"
	case apperr.KindNotFound:
		return fiber.StatusNotFound, "NOT_FOUND"
	case apperr.KindInsufficientPermission:
		return fiber.StatusForbidden, "FORBIDDEN"
	case apperr.KindTokenExpired:
		return fiber.StatusGone, "LINK_EXPIRED"
	case apperr.KindTokenAlreadyUsed:
		return fiber.StatusConflict, "LINK_ALREADY_USED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// ErrorHandler is the Fiber global error handler. Domain errors map by kind,
// fiber errors keep their status, everything else is an opaque 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if kind := apperr.KindOf(err); kind != apperr.KindUnknown {
			status, code := statusAndCode(kind)
			if status == fiber.StatusInternalServerError {
				log.Error("request failed", zap.Error(err))
				return writeError(c, status, code, "internal server error")
			}
			return writeError(c, status, code, err.Error())
		}

		if fe, ok := err.(*fiber.Error); ok {
			switch fe.Code {
			case fiber.StatusUnauthorized:
				return writeError(c, fe.Code, "UNAUTHORIZED", fe.Message)
			case fiber.StatusForbidden:
				return writeError(c, fe.Code, "FORBIDDEN", fe.Message)
			case fiber.StatusNotFound:
				return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
			case fiber.StatusMethodNotAllowed:
				return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
			case fiber.StatusTooManyRequests:
				return writeError(c, fe.Code, "RATE_LIMITED", fe.Message)
			case fiber.StatusBadRequest:
				return writeError(c, fe.Code, "BAD_REQUEST", fe.Message)
			}
		}

		log.Error("request failed", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
