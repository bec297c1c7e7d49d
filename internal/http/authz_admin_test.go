package handlers_test

import (
	"net/http"
	"testing"
)

// The admin API answers 401 without a session and 403 for shoppers, and
// logs both.
func TestAdminGuardRequiresAdmin(t *testing.T) {
	app, _ := newTestApp(t)
	body := map[string]any{"name": "Helmets"}

	var r apiResp
	entries := captureLogs(t, func() {
		r = call(t, app, "POST", "/api/v1/admin/categories", body, "")
	})
	if r.Status != http.StatusUnauthorized {
		t.Fatalf("anonymous expected 401, got %d", r.Status)
	}
	if !hasAction(entries, "access.denied.anonymous") {
		t.Fatal("expected access.denied.anonymous log")
	}

	shopper := login(t, app, shopEmail, shopPass)
	entries = captureLogs(t, func() {
		r = call(t, app, "POST", "/api/v1/admin/categories", body, shopper)
	})
	if r.Status != http.StatusForbidden {
		t.Fatalf("shopper expected 403, got %d", r.Status)
	}
	if !hasAction(entries, "access.denied.admin") {
		t.Fatal("expected access.denied.admin log")
	}

	if r := call(t, app, "POST", "/api/v1/products", map[string]any{"name": "x"}, shopper); r.Status != http.StatusForbidden {
		t.Fatalf("product create by shopper expected 403, got %d", r.Status)
	}

	admin := login(t, app, adminEmail, adminPass)
	if r := call(t, app, "POST", "/api/v1/admin/categories", body, admin); r.Status != http.StatusCreated {
		t.Fatalf("admin expected 201, got %d %v", r.Status, r.Body)
	}
}

// Admin mutations leave an audit line naming the admin.
func TestAdminMutationsAreAudited(t *testing.T) {
	app, _ := newTestApp(t)
	admin := login(t, app, adminEmail, adminPass)
	entries := captureLogs(t, func() {
		call(t, app, "POST", "/api/v1/admin/colors", map[string]any{"name": "Green"}, admin)
	})
	for _, e := range entries {
		if e.Action == "admin.color.create" {
			if e.Level != "audit" || e.UserID != "u-admin" {
				t.Fatalf("unexpected audit entry: %+v", e)
			}
			return
		}
	}
	t.Fatal("expected admin.color.create audit log")
}
