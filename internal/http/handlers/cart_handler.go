package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "pitchside/internal/log"
	"pitchside/internal/services"
	"pitchside/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// POST /cart (form)
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, okID := validate.ID(c.FormValue("productId"))
	if !okID {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"))
	if err := h.Cart.Add(c.UserContext(), sid, productID, qty); err != nil {
		return failPage(c, "cart.add", err)
	}
	return c.Redirect("/cart")
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	cv, err := h.Cart.View(c.UserContext(), sid)
	if err != nil {
		return failPage(c, "cart.view", err)
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}

// POST /cart/delete (form)
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, okID := validate.ID(c.FormValue("productId"))
	if !okID {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if err := h.Cart.Remove(c.UserContext(), sid, productID); err != nil {
		return failPage(c, "cart.remove", err)
	}
	return c.Redirect("/cart")
}

type cartLine struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// GET /api/v1/cart
func (h *CartHandler) APIView(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), ensureSID(c))
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"cart": cv})
}

// POST /api/v1/cart
func (h *CartHandler) APIAdd(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var in cartLine
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, "cart.add", err)
	}
	productID, okID := validate.ID(in.ProductID)
	if !okID {
		return fail(c, "cart.add", fiber.NewError(fiber.StatusBadRequest, "productId is required"))
	}
	if err := h.Cart.Add(c.UserContext(), sid, productID, in.Qty); err != nil {
		return fail(c, "cart.add", err)
	}
	cv, err := h.Cart.View(c.UserContext(), sid)
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"cart": cv})
}

// DELETE /api/v1/cart/:id
func (h *CartHandler) APIRemove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, err := pathID(c)
	if err == nil {
		err = h.Cart.Remove(c.UserContext(), sid, id)
	}
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	return ok(c, fiber.StatusOK, nil)
}
