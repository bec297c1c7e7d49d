package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pitchside/internal/domain"
	applog "pitchside/internal/log"
	"pitchside/internal/services"
)

// LoadUser attaches the signed-in user, if any, to Locals("user").
func LoadUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

// RequireAdmin guards the admin API: 401 without a session, 403 for
// shoppers.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, _ := c.Locals("user").(*domain.User)
		if u == nil {
			if sid := c.Cookies("sid"); sid != "" {
				u, _ = auth.CurrentUser(c.UserContext(), sid)
			}
		}
		if u == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Login required"})
		}
		if u.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.admin", map[string]any{"user": u.ID})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}
