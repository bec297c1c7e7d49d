package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pitchside/internal/catalog"
	"pitchside/internal/services"
	"pitchside/internal/validate"
)

// CatalogHandler serves the read side of the catalog: the category tree,
// browsing by path and facets, tag lookups and the storefront pages built
// on them.
type CatalogHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/categories
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	nav, err := h.Catalog.Nav(c.UserContext())
	if err != nil {
		return fail(c, "catalog.categories", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"categories": nav})
}

// GET /api/v1/products/browse?path=Bats/Test&sizes=SH&page=1&limit=20
func (h *CatalogHandler) Browse(c *fiber.Ctx) error {
	q, err := browseQuery(c, c.Query("path"))
	if err != nil {
		return fail(c, "catalog.browse", err)
	}
	return h.browse(c, q)
}

type browseBody struct {
	Path  string `json:"path"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	catalog.Facets
}

// POST /api/v1/products/browse
func (h *CatalogHandler) BrowseBody(c *fiber.Ctx) error {
	var in browseBody
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, "catalog.browse", err)
	}
	return h.browse(c, services.BrowseQuery{
		Path:   in.Path,
		Facets: in.Facets.Normalize(),
		Page:   in.Page,
		Limit:  in.Limit,
	})
}

func (h *CatalogHandler) browse(c *fiber.Ctx, q services.BrowseQuery) error {
	res, err := h.Catalog.Browse(c.UserContext(), q)
	if err != nil {
		return fail(c, "catalog.browse", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"products":     res.Products,
		"categoryInfo": res.Category,
		"totalCount":   res.TotalCount,
		"page":         res.Page,
		"limit":        res.Limit,
	})
}

// GET /api/v1/products/tag?tags=a,b
func (h *CatalogHandler) ByTags(c *fiber.Ctx) error {
	var tags []string
	for _, t := range strings.Split(c.Query("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	prods, err := h.Catalog.ByTags(c.UserContext(), tags)
	if err != nil {
		return fail(c, "catalog.tags", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"products": prods, "totalCount": len(prods)})
}

// GET /api/v1/products/:slug
func (h *CatalogHandler) BySlug(c *fiber.Ctx) error {
	p, err := h.Catalog.ProductBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return fail(c, "catalog.product", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"product": p})
}

// GET /
func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	nav, err := h.Catalog.Nav(c.UserContext())
	if err != nil {
		return failPage(c, "catalog.home", err)
	}
	return render(c, "home", fiber.Map{"Categories": nav})
}

// GET /product/category/*
func (h *CatalogHandler) CategoryPage(c *fiber.Ctx) error {
	path := c.Params("*")
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	q, err := browseQuery(c, path)
	if err != nil {
		return failPage(c, "catalog.page", err)
	}
	res, err := h.Catalog.Browse(c.UserContext(), q)
	if err != nil {
		return failPage(c, "catalog.page", err)
	}
	pages := (res.TotalCount + res.Limit - 1) / res.Limit
	return render(c, "category", fiber.Map{
		"Path":     strings.Trim(path, "/"),
		"Info":     res.Category,
		"Products": res.Products,
		"Total":    res.TotalCount,
		"Page":     res.Page,
		"Pages":    pages,
		"HasPrev":  res.Page > 1,
		"HasNext":  res.Page < pages,
		"PrevPage": res.Page - 1,
		"NextPage": res.Page + 1,
	})
}

func browseQuery(c *fiber.Ctx, path string) (services.BrowseQuery, error) {
	facets, err := catalog.ParseFacetQuery(c.Queries(), "path", "page", "limit")
	if err != nil {
		return services.BrowseQuery{}, err
	}
	page, limit := validate.Page(c.Query("page"), c.Query("limit"), services.DefaultPageSize, services.MaxPageSize)
	return services.BrowseQuery{Path: path, Facets: facets, Page: page, Limit: limit}, nil
}
