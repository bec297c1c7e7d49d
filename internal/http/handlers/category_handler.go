package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pitchside/internal/catalog"
	applog "pitchside/internal/log"
	"pitchside/internal/services"
	"pitchside/internal/validate"
)

// CategoryHandler is the admin API over the category tree.
type CategoryHandler struct {
	Cats *services.CategoryService
}

func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, "admin.category.create", err)
	}
	cat, err := h.Cats.CreateCategory(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.category.create", err)
	}
	applog.Audit(c, "admin.category.create", map[string]any{"category": cat.ID, "name": cat.Name})
	return ok(c, fiber.StatusCreated, fiber.Map{"category": cat})
}

func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, "admin.category.update", err)
	}
	var in services.CategoryPatch
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, "admin.category.update", err)
	}
	cat, err := h.Cats.UpdateCategory(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "admin.category.update", err)
	}
	applog.Audit(c, "admin.category.update", map[string]any{"category": id})
	return ok(c, fiber.StatusOK, fiber.Map{"category": cat})
}

func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err == nil {
		err = h.Cats.DeleteCategory(c.UserContext(), id)
	}
	if err != nil {
		return fail(c, "admin.category.delete", err)
	}
	applog.Audit(c, "admin.category.delete", map[string]any{"category": id})
	return ok(c, fiber.StatusOK, fiber.Map{"message": "Category deleted"})
}

// POST /api/v1/admin/categories/:id/move/:direction
func (h *CategoryHandler) MoveCategory(c *fiber.Ctx) error {
	id, dir, err := moveArgs(c)
	if err == nil {
		err = h.Cats.MoveCategory(c.UserContext(), id, dir)
	}
	if err != nil {
		return fail(c, "admin.category.move", err)
	}
	applog.Audit(c, "admin.category.move", map[string]any{"category": id, "direction": dir})
	return ok(c, fiber.StatusOK, nil)
}

// GET /api/v1/admin/subcategories?category=<id>
func (h *CategoryHandler) ListSubcategories(c *fiber.Ctx) error {
	subs, err := h.Cats.ListSubcategories(c.UserContext(), c.Query("category"))
	if err != nil {
		return fail(c, "admin.subcategory.list", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"subcategories": subs})
}

// GET /api/v1/admin/subcategories/:id/children
func (h *CategoryHandler) Children(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, "admin.subcategory.children", err)
	}
	subs, err := h.Cats.Children(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.subcategory.children", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"subcategories": subs})
}

func (h *CategoryHandler) CreateSubcategory(c *fiber.Ctx) error {
	var in services.SubcategoryInput
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, "admin.subcategory.create", err)
	}
	sub, err := h.Cats.CreateSubcategory(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.subcategory.create", err)
	}
	applog.Audit(c, "admin.subcategory.create", map[string]any{"subcategory": sub.ID, "name": sub.Name})
	return ok(c, fiber.StatusCreated, fiber.Map{"subcategory": sub})
}

func (h *CategoryHandler) UpdateSubcategory(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, "admin.subcategory.update", err)
	}
	var in services.SubcategoryPatch
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, "admin.subcategory.update", err)
	}
	sub, err := h.Cats.UpdateSubcategory(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "admin.subcategory.update", err)
	}
	applog.Audit(c, "admin.subcategory.update", map[string]any{"subcategory": id})
	return ok(c, fiber.StatusOK, fiber.Map{"subcategory": sub})
}

func (h *CategoryHandler) DeleteSubcategory(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err == nil {
		err = h.Cats.DeleteSubcategory(c.UserContext(), id)
	}
	if err != nil {
		return fail(c, "admin.subcategory.delete", err)
	}
	applog.Audit(c, "admin.subcategory.delete", map[string]any{"subcategory": id})
	return ok(c, fiber.StatusOK, fiber.Map{"message": "Subcategory deleted"})
}

func (h *CategoryHandler) MoveSubcategory(c *fiber.Ctx) error {
	id, dir, err := moveArgs(c)
	if err == nil {
		err = h.Cats.MoveSubcategory(c.UserContext(), id, dir)
	}
	if err != nil {
		return fail(c, "admin.subcategory.move", err)
	}
	applog.Audit(c, "admin.subcategory.move", map[string]any{"subcategory": id, "direction": dir})
	return ok(c, fiber.StatusOK, nil)
}

func pathID(c *fiber.Ctx) (string, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

func moveArgs(c *fiber.Ctx) (string, catalog.Direction, error) {
	id, err := pathID(c)
	if err != nil {
		return "", "", err
	}
	dir, err := catalog.ParseDirection(c.Params("direction"))
	return id, dir, err
}
