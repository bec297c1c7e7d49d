package handlers_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"pitchside/internal/domain"
	"pitchside/internal/http/handlers"
	"pitchside/web"
)

func errorApp() *fiber.App {
	app := fiber.New(fiber.Config{Views: web.Views(), ErrorHandler: handlers.ErrorHandler})
	boom := func(c *fiber.Ctx) error { return errors.New("db timeout: secret") }
	app.Get("/boom", boom)
	app.Get("/api/v1/boom", boom)
	app.Get("/api/v1/missing", func(c *fiber.Ctx) error {
		return domain.NotFound("Main category not found: Helmets", "Bats", "Balls")
	})
	return app
}

// Unhandled errors never leak their text to the client.
func TestErrorHandlerHidesInternals(t *testing.T) {
	app := errorApp()
	for _, path := range []string{"/boom", "/api/v1/boom"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, resp.StatusCode)
		}
		if strings.Contains(string(body), "secret") {
			t.Fatalf("%s: internal error leaked: %s", path, body)
		}
	}
}

func TestErrorHandlerKeepsDomainMessages(t *testing.T) {
	app := errorApp()
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/missing", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"alternatives":["Bats","Balls"]`) {
		t.Fatalf("alternatives missing: %s", body)
	}
}

func TestUnknownRoutes(t *testing.T) {
	app, _ := newTestApp(t)
	r := call(t, app, "GET", "/api/v1/nothing-here", nil, "")
	if r.Status != http.StatusNotFound || r.Body["success"] != false {
		t.Fatalf("api 404: %d %v", r.Status, r.Body)
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/nothing-here", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), "Page not found") {
		t.Fatalf("page 404: %d %s", resp.StatusCode, body)
	}
}
