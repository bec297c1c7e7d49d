package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pitchside/internal/log"
	"pitchside/internal/services"
	"pitchside/internal/validate"
)

type ProductHandler struct {
	Catalog  *services.CatalogService
	Products *services.ProductService
}

// GET /product/:slug
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).Render("notfound", withPageData(c, fiber.Map{"Message": "This item is no longer available"}))
	}
	p, err := h.Catalog.ProductBySlug(c.UserContext(), slug)
	if err != nil {
		return failPage(c, "product.detail", err)
	}
	primary, _ := p.PrimaryImage()
	return render(c, "product", fiber.Map{"P": p, "Primary": primary})
}

// POST /api/v1/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.CreateProductInput
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, "admin.product.create", err)
	}
	p, err := h.Products.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.product.create", err)
	}
	log.Audit(c, "admin.product.create", map[string]any{"product": p.ID, "slug": p.Slug, "images": len(p.Images)})
	return ok(c, fiber.StatusCreated, fiber.Map{"message": "Product created successfully", "product": p})
}

type stockBody struct {
	InStock *bool `json:"inStock"`
}

// PATCH /api/v1/admin/products/:id/stock
func (h *ProductHandler) SetStock(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	var in stockBody
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, "admin.product.stock", err)
	}
	if !okID || in.InStock == nil {
		log.Security(c, "validation.fail", map[string]any{"field": "inStock"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "inStock is required"})
	}
	if err := h.Products.SetStock(c.UserContext(), id, *in.InStock); err != nil {
		return fail(c, "admin.product.stock", err)
	}
	log.Audit(c, "admin.product.stock", map[string]any{"product": id, "in_stock": *in.InStock})
	return ok(c, fiber.StatusOK, fiber.Map{"id": id, "inStock": *in.InStock})
}
