package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pitchside/internal/domain"
	applog "pitchside/internal/log"
)

const internalMessage = "Something went wrong. Please try again."

// statusFor maps domain error kinds to HTTP codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// envelope builds {success:false, message, alternatives?}. Internal errors
// never reach the client.
func envelope(err error, code int) fiber.Map {
	body := fiber.Map{"success": false, "message": internalMessage}
	if code >= fiber.StatusInternalServerError && code != fiber.StatusBadGateway {
		return body
	}
	if e, ok := domain.AsError(err); ok {
		body["message"] = e.Message
		if len(e.Alternatives) > 0 {
			body["alternatives"] = e.Alternatives
		}
		return body
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		body["message"] = fe.Message
	}
	return body
}

func logFailure(c *fiber.Ctx, action string, err error, code int) {
	switch {
	case code >= fiber.StatusInternalServerError:
		applog.Error(c, action, err, nil)
	case code == fiber.StatusBadRequest:
		applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": err.Error()})
	}
}

// fail writes the JSON error envelope for err.
func fail(c *fiber.Ctx, action string, err error) error {
	code := statusFor(err)
	logFailure(c, action, err, code)
	return c.Status(code).JSON(envelope(err, code))
}

// failPage renders the not-found page with the error's message.
func failPage(c *fiber.Ctx, action string, err error) error {
	code := statusFor(err)
	logFailure(c, action, err, code)
	body := envelope(err, code)
	data := fiber.Map{"Message": body["message"]}
	if alts, ok := body["alternatives"]; ok {
		data["Alternatives"] = alts
	}
	return c.Status(code).Render("notfound", withPageData(c, data))
}

func ok(c *fiber.Ctx, code int, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["success"] = true
	return c.Status(code).JSON(data)
}

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// ErrorHandler answers errors no handler dealt with: a JSON envelope under
// /api/, the friendly page elsewhere.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	if isAPI(c) {
		return c.Status(code).JSON(envelope(err, code))
	}
	msg, _ := envelope(err, code)["message"].(string)
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
