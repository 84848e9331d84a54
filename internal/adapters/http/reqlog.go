package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/encinapp/encinapp/internal/pkg/logging"
)

// RequestIDLogMiddleware copies the Fiber request ID into the user context
// so that records logged with slog.*Context downstream carry request_id.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, ok := c.Locals("requestid").(string)
		if !ok || rid == "" {
			return c.Next()
		}
		c.SetUserContext(logging.WithRequestID(c.UserContext(), rid))
		return c.Next()
	}
}
