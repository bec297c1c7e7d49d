package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	applog "pitchside/internal/log"
	"pitchside/internal/services"
)

// AttributeHandler serves the size, color and quality vocabularies. Reads
// are public so storefront filters can list them; writes are admin only.
type AttributeHandler struct {
	Attrs *services.AttributeService
}

// GET /api/v1/sizes?category=<id>
func (h *AttributeHandler) Sizes(c *fiber.Ctx) error {
	sizes, err := h.Attrs.Sizes(c.UserContext(), c.Query("category"))
	if err != nil {
		return fail(c, "attribute.sizes", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"sizes": sizes})
}

func (h *AttributeHandler) Colors(c *fiber.Ctx) error {
	colors, err := h.Attrs.Colors(c.UserContext())
	if err != nil {
		return fail(c, "attribute.colors", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"colors": colors})
}

func (h *AttributeHandler) Qualities(c *fiber.Ctx) error {
	qs, err := h.Attrs.Qualities(c.UserContext())
	if err != nil {
		return fail(c, "attribute.qualities", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"qualities": qs})
}

func (h *AttributeHandler) CreateSize(c *fiber.Ctx) error {
	return h.create(c, "size", func(ctx context.Context, in services.AttributeInput) (any, error) {
		return h.Attrs.CreateSize(ctx, in)
	})
}

func (h *AttributeHandler) CreateColor(c *fiber.Ctx) error {
	return h.create(c, "color", func(ctx context.Context, in services.AttributeInput) (any, error) {
		return h.Attrs.CreateColor(ctx, in)
	})
}

func (h *AttributeHandler) CreateQuality(c *fiber.Ctx) error {
	return h.create(c, "quality", func(ctx context.Context, in services.AttributeInput) (any, error) {
		return h.Attrs.CreateQuality(ctx, in)
	})
}

func (h *AttributeHandler) RenameSize(c *fiber.Ctx) error {
	return h.rename(c, "size", h.Attrs.RenameSize)
}

func (h *AttributeHandler) RenameColor(c *fiber.Ctx) error {
	return h.rename(c, "color", h.Attrs.RenameColor)
}

func (h *AttributeHandler) RenameQuality(c *fiber.Ctx) error {
	return h.rename(c, "quality", h.Attrs.RenameQuality)
}

func (h *AttributeHandler) DeleteSize(c *fiber.Ctx) error {
	return h.delete(c, "size", h.Attrs.DeleteSize)
}

func (h *AttributeHandler) DeleteColor(c *fiber.Ctx) error {
	return h.delete(c, "color", h.Attrs.DeleteColor)
}

func (h *AttributeHandler) DeleteQuality(c *fiber.Ctx) error {
	return h.delete(c, "quality", h.Attrs.DeleteQuality)
}

func (h *AttributeHandler) create(c *fiber.Ctx, kind string,
	fn func(context.Context, services.AttributeInput) (any, error)) error {
	action := "admin." + kind + ".create"
	var in services.AttributeInput
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, action, err)
	}
	v, err := fn(c.UserContext(), in)
	if err != nil {
		return fail(c, action, err)
	}
	applog.Audit(c, action, map[string]any{"name": in.Name})
	return ok(c, fiber.StatusCreated, fiber.Map{kind: v})
}

func (h *AttributeHandler) rename(c *fiber.Ctx, kind string,
	fn func(context.Context, string, services.AttributeInput) error) error {
	action := "admin." + kind + ".update"
	id, err := pathID(c)
	if err != nil {
		return fail(c, action, err)
	}
	var in services.AttributeInput
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, action, err)
	}
	if err := fn(c.UserContext(), id, in); err != nil {
		return fail(c, action, err)
	}
	applog.Audit(c, action, map[string]any{"id": id, "name": in.Name})
	return ok(c, fiber.StatusOK, nil)
}

func (h *AttributeHandler) delete(c *fiber.Ctx, kind string, fn func(context.Context, string) error) error {
	action := "admin." + kind + ".delete"
	id, err := pathID(c)
	if err == nil {
		err = fn(c.UserContext(), id)
	}
	if err != nil {
		return fail(c, action, err)
	}
	applog.Audit(c, action, map[string]any{"id": id})
	return ok(c, fiber.StatusOK, nil)
}
