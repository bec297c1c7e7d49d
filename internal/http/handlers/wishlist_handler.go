package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "pitchside/internal/log"
	"pitchside/internal/services"
	"pitchside/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	sid := ensureSID(c)
	items, err := h.Wish.List(c.UserContext(), sid)
	if err != nil {
		return failPage(c, "wishlist.list", err)
	}
	return render(c, "wishlist", fiber.Map{"Items": items})
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, okID := validate.ID(c.FormValue("productId"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if err := h.Wish.Save(c.UserContext(), sid, pid); err != nil {
		return failPage(c, "wishlist.save", err)
	}
	applog.Audit(c, "wishlist.save", map[string]any{"product": pid})
	back := c.Get("Referer")
	if back == "" {
		back = "/wishlist"
	}
	return c.Redirect(back)
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, okID := validate.ID(c.FormValue("productId"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if err := h.Wish.Unsave(c.UserContext(), sid, pid); err != nil {
		return failPage(c, "wishlist.unsave", err)
	}
	applog.Audit(c, "wishlist.unsave", map[string]any{"product": pid})
	return c.Redirect("/wishlist")
}

// GET /api/v1/wishlist
func (h *WishlistHandler) APIList(c *fiber.Ctx) error {
	items, err := h.Wish.List(c.UserContext(), ensureSID(c))
	if err != nil {
		return fail(c, "wishlist.list", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"items": items})
}

// PUT /api/v1/wishlist/:id
func (h *WishlistHandler) APISave(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, err := pathID(c)
	if err == nil {
		err = h.Wish.Save(c.UserContext(), sid, id)
	}
	if err != nil {
		return fail(c, "wishlist.save", err)
	}
	return ok(c, fiber.StatusOK, nil)
}

// DELETE /api/v1/wishlist/:id
func (h *WishlistHandler) APIUnsave(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, err := pathID(c)
	if err == nil {
		err = h.Wish.Unsave(c.UserContext(), sid, id)
	}
	if err != nil {
		return fail(c, "wishlist.unsave", err)
	}
	return ok(c, fiber.StatusOK, nil)
}
