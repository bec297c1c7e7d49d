package handlers

import "github.com/gofiber/fiber/v2"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	return c.Render(tmpl, withPageData(c, data))
}

// withPageData adds the signed-in user and the form token every page needs.
func withPageData(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	tok, _ := c.Locals(csrfContextKey).(string)
	if tok == "" {
		// the middleware skips safe requests it already issued a cookie for
		tok = c.Cookies(csrfCookie)
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return data
}
