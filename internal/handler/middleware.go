package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kursadbilgin/dining-desk/internal/observability"
)

const requestIDLocal = "requestid"

// RequestID tags every request with the caller's X-Request-ID or a fresh uuid.
// The id is echoed back and carried on the user context for logging.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(requestIDLocal, id)
		c.Set(fiber.HeaderXRequestID, id)
		c.SetUserContext(observability.WithRequestID(c.UserContext(), id))

		return c.Next()
	}
}
