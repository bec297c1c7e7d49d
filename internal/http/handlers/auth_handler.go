package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pitchside/internal/domain"
	"pitchside/internal/log"
	"pitchside/internal/services"
	"pitchside/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
		})
	}
	return sid
}

func expireSID(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

// Login handles the storefront form.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).Render("login", withPageData(c, fiber.Map{"Err": "Invalid email or password"}))
	}
	if _, err := h.Auth.Login(c.UserContext(), sid, email, pass); err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).Render("login", withPageData(c, fiber.Map{"Err": "Invalid email or password"}))
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(c.UserContext(), sid)
	expireSID(c)
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}

// Register creates a shopper account from a JSON body.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, "auth.register", err)
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			log.Security(c, "auth.register.duplicate", map[string]any{"email": in.Email})
		}
		return fail(c, "auth.register", err)
	}
	log.Audit(c, "auth.register", map[string]any{"user": u.ID})
	return ok(c, fiber.StatusCreated, fiber.Map{"message": "User registered successfully", "user": u})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// APILogin binds the session cookie for API clients such as the admin UI.
func (h *AuthHandler) APILogin(c *fiber.Ctx) error {
	var in credentials
	if err := decodeStrict(c, &in); err != nil {
		return fail(c, "auth.login", err)
	}
	sid := ensureSID(c)
	u, err := h.Auth.Login(c.UserContext(), sid, in.Email, in.Password)
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid email or password"})
	}
	if err != nil {
		return fail(c, "auth.login", err)
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": in.Email})
	return ok(c, fiber.StatusOK, fiber.Map{"user": u})
}

func (h *AuthHandler) APILogout(c *fiber.Ctx) error {
	if sid := c.Cookies("sid"); sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			return fail(c, "auth.logout", err)
		}
		log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	}
	expireSID(c)
	return ok(c, fiber.StatusOK, nil)
}
