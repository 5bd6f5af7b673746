package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// requestIDMaxLen caps externally supplied ids so they can't pollute logs.
const requestIDMaxLen = 64

// RequestID propagates X-Request-ID from the caller, generating a UUID when
// the header is absent or oversized, and echoes it on the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get("X-Request-ID")
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.New().String()
		}

		c.Locals("request_id", rid)
		c.Set("X-Request-ID", rid)

		return c.Next()
	}
}
