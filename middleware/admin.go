// middleware/admin.go
package middleware

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// AdminAuthMiddleware guards the /admin routes with a shared admin secret.
func AdminAuthMiddleware() fiber.Handler {
	adminSecret := os.Getenv("ACADEMY_ADMIN_SECRET")
	if adminSecret == "" {
		log.Fatal("❌ ACADEMY_ADMIN_SECRET is not set — admin routes cannot be secured")
	}

	return func(c *fiber.Ctx) error {
		token := trimBearer(c.Get("Authorization"))
		if token != adminSecret {
			log.Printf("🚫 [ADMIN_AUTH] Rejected admin request for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "admin authorization required",
			})
		}
		return c.Next()
	}
}
