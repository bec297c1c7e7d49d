package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "pitchside/internal/log"
)

const (
	csrfCookie     = "csrf_"
	csrfContextKey = "csrf"

	// MaxBodyBytes leaves room for a product with several base64 images.
	MaxBodyBytes = 32 << 20
)

// NewApp builds the fiber app with the error handler and the middleware
// every route relies on. Routes are added by Register.
func NewApp(d *Deps, views fiber.Views) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        views,
		ErrorHandler: ErrorHandler,
		BodyLimit:    MaxBodyBytes,
	})
	app.Use(requestid.New())
	app.Use(fiberrecover.New())
	app.Use(helmet.New())
	app.Use(LoadUser(d.Auth))
	// JSON API clients authenticate with the SameSite session cookie; only
	// the HTML forms carry the token.
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     csrfCookie,
		CookieSameSite: "Lax",
		ContextKey:     csrfContextKey,
		Next:           isAPI,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	return app
}

func loginLimiter(render bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			c.Status(fiber.StatusTooManyRequests)
			if render {
				return c.Render("login", withPageData(c, fiber.Map{"Err": "Too many attempts. Please try again later."}))
			}
			return c.JSON(fiber.Map{"success": false, "message": "Too many attempts. Please try again later."})
		},
	})
}

// Register mounts the storefront pages, the public API and the admin API,
// and finishes with the not-found fallback.
func Register(app *fiber.App, d *Deps) {
	api := app.Group("/api/v1")
	api.Get("/categories", d.CatalogHandler.Categories)
	api.Get("/products/browse", d.CatalogHandler.Browse)
	api.Post("/products/browse", d.CatalogHandler.BrowseBody)
	api.Get("/products/tag", d.CatalogHandler.ByTags)
	api.Get("/products/:slug", d.CatalogHandler.BySlug)
	api.Post("/products", RequireAdmin(d.Auth), d.ProductHandler.Create)

	api.Get("/sizes", d.AttributeHandler.Sizes)
	api.Get("/colors", d.AttributeHandler.Colors)
	api.Get("/qualities", d.AttributeHandler.Qualities)

	api.Post("/register", d.AuthHandler.Register)
	api.Post("/login", loginLimiter(false), d.AuthHandler.APILogin)
	api.Post("/logout", d.AuthHandler.APILogout)

	api.Get("/cart", d.CartHandler.APIView)
	api.Post("/cart", d.CartHandler.APIAdd)
	api.Delete("/cart/:id", d.CartHandler.APIRemove)
	api.Get("/wishlist", d.WishlistHandler.APIList)
	api.Put("/wishlist/:id", d.WishlistHandler.APISave)
	api.Delete("/wishlist/:id", d.WishlistHandler.APIUnsave)

	admin := api.Group("/admin", RequireAdmin(d.Auth))
	admin.Get("/integrity", d.AdminHandler.Integrity)
	admin.Patch("/products/:id/stock", d.ProductHandler.SetStock)

	admin.Post("/categories", d.CategoryHandler.CreateCategory)
	admin.Put("/categories/:id", d.CategoryHandler.UpdateCategory)
	admin.Delete("/categories/:id", d.CategoryHandler.DeleteCategory)
	admin.Post("/categories/:id/move/:direction", d.CategoryHandler.MoveCategory)

	admin.Get("/subcategories", d.CategoryHandler.ListSubcategories)
	admin.Get("/subcategories/:id/children", d.CategoryHandler.Children)
	admin.Post("/subcategories", d.CategoryHandler.CreateSubcategory)
	admin.Put("/subcategories/:id", d.CategoryHandler.UpdateSubcategory)
	admin.Delete("/subcategories/:id", d.CategoryHandler.DeleteSubcategory)
	admin.Post("/subcategories/:id/move/:direction", d.CategoryHandler.MoveSubcategory)

	admin.Post("/sizes", d.AttributeHandler.CreateSize)
	admin.Put("/sizes/:id", d.AttributeHandler.RenameSize)
	admin.Delete("/sizes/:id", d.AttributeHandler.DeleteSize)
	admin.Post("/colors", d.AttributeHandler.CreateColor)
	admin.Put("/colors/:id", d.AttributeHandler.RenameColor)
	admin.Delete("/colors/:id", d.AttributeHandler.DeleteColor)
	admin.Post("/qualities", d.AttributeHandler.CreateQuality)
	admin.Put("/qualities/:id", d.AttributeHandler.RenameQuality)
	admin.Delete("/qualities/:id", d.AttributeHandler.DeleteQuality)

	// Storefront
	app.Get("/", d.CatalogHandler.Home)
	app.Get("/product/category/*", d.CatalogHandler.CategoryPage)
	app.Get("/product/:slug", d.ProductHandler.Detail)

	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Post("/cart/delete", d.CartHandler.Remove)
	app.Get("/wishlist", d.WishlistHandler.List)
	app.Post("/wishlist", d.WishlistHandler.Save)
	app.Post("/wishlist/delete", d.WishlistHandler.Unsave)

	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", loginLimiter(true), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if isAPI(c) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Route not found"})
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", withPageData(c, fiber.Map{"Message": "Page not found"}))
	})
}
