package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "pitchside/internal/log"
	"pitchside/internal/repos"
)

type AdminHandler struct {
	Cats *repos.CategoryRepo
}

// GET /api/v1/admin/integrity lists tree and product references that point
// at missing rows; an empty list means the store is consistent.
func (h *AdminHandler) Integrity(c *fiber.Ctx) error {
	refs, err := h.Cats.Dangling(c.UserContext())
	if err != nil {
		return fail(c, "admin.integrity", err)
	}
	if len(refs) > 0 {
		applog.Warn(c, "admin.integrity.dangling", nil, map[string]any{"count": len(refs)})
	}
	if refs == nil {
		refs = []string{}
	}
	return ok(c, fiber.StatusOK, fiber.Map{"dangling": refs})
}
