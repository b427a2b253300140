// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// bearer returns the token of an "Authorization: Bearer <token>" header,
// or the raw header value when the gateway sends the token bare.
func bearer(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return strings.TrimSpace(token)
}

func tokenMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// GatewayAuthMiddleware validates the Bearer token from the Gateway
func GatewayAuthMiddleware(expectedToken string) fiber.Handler {
	if expectedToken == "" {
		log.Fatal("❌ gateway token is not set, service cannot authenticate Gateway")
	}

	return func(c *fiber.Ctx) error {
		token := bearer(c)
		if token == "" {
			log.Printf("🚫 [GATEWAY_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		if !tokenMatches(token, expectedToken) {
			log.Printf("❌ [GATEWAY_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}

// CronSecretMiddleware guards scheduler-triggered endpoints. The header must
// be exactly "Bearer <secret>". An empty secret disables them entirely.
func CronSecretMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			log.Printf("🚫 [CRON_AUTH] %s called but no cron secret is configured", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		if !tokenMatches(c.Get(fiber.HeaderAuthorization), "Bearer "+secret) {
			log.Printf("❌ [CRON_AUTH] Invalid cron secret for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.Next()
	}
}
