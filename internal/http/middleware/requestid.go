package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates request ids between services.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey stores the request id in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

// RequestID accepts an incoming X-Request-ID or mints a fresh UUID, stores
// it in locals and echoes it on the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}
