// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts user identity set by the Gateway. Identity
// and session management live in the external auth provider; the Gateway
// forwards a stable user id, the email-verified flag and the device
// fingerprint as headers.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		c.Locals("user_id", userID)
		c.Locals("email_verified", strings.EqualFold(c.Get("X-Email-Verified"), "true"))
		c.Locals("device_id", c.Get("X-Device-ID"))

		return c.Next()
	}
}
