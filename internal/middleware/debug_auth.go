package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// DebugTokenHeader carries the token for the session debug routes
const DebugTokenHeader = "X-Debug-Token"

// RequireDebugToken guards the session debug routes. With a token configured
// the request must present it; without one the routes are only open when
// allowOpen is set (local development).
func RequireDebugToken(token string, allowOpen bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			if allowOpen {
				return c.Next()
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Debug routes are disabled",
			})
		}

		provided := c.Get(DebugTokenHeader)
		if provided == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing debug token",
			})
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid debug token",
			})
		}

		return c.Next()
	}
}
