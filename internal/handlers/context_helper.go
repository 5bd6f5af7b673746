package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// parseActorID extracts the authenticated caller's id from the locals set by
// the auth middleware.
func parseActorID(c *fiber.Ctx) (int64, error) {
	actorIDValue := c.Locals("user_id")
	actorIDStr, ok := actorIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(actorIDStr, 10, 64)
}
