package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that did not set it.
// Everything that depends on the session, the device or live alerts is
// private and uncached.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var directive string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			directive = "public, max-age=10"

		case path == "/metrics":
			directive = "no-cache"

		case strings.HasPrefix(path, "/docs"):
			directive = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/geocode"):
			directive = "public, max-age=3600" // addresses barely move

		case strings.HasPrefix(path, "/v1/points"):
			directive = "private, max-age=60"

		case strings.HasPrefix(path, "/v1/"):
			directive = "private, no-store" // alerts, map, location, session, directory
		}

		if directive != "" {
			c.Set(fiber.HeaderCacheControl, directive)
		}
		return err
	}
}
