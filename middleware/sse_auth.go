package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"myscience-gamification/services"
)

// SSEAuthMiddleware validates a `token` query param via the auth service.
// EventSource cannot set headers, so the badge stream authenticates with the
// access token in the query string instead of the gateway headers.
//
// Usage:
//
//	app.Get("/user/stream", middleware.SSEAuthMiddleware(authClient), badgeService.StreamUserBadgesSSE)
func SSEAuthMiddleware(authClient *services.AuthServiceClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := strings.TrimSpace(c.Query("token"))
		if accessToken == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing token in query",
			})
		}

		resp, err := authClient.ValidateToken(accessToken)
		if err != nil {
			log.Printf("[SSEAuth] ❌ Validation failed for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals("user_id", resp.UserID)
		c.Locals("user_roles", resp.Roles)

		return c.Next()
	}
}
