package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"pitchside/internal/http/handlers"
	"pitchside/internal/repos"
	"pitchside/internal/storage"
	"pitchside/web"
)

const (
	adminEmail = "admin@pitchside.test"
	adminPass  = "Adm1n!pass"
	shopEmail  = "player@pitchside.test"
	shopPass   = "Passw0rd!"
)

// newTestApp serves the real routes over a seeded in-memory store.
func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repos.Seed(context.Background(), db, repos.SeedOptions{
		AdminEmail: adminEmail, AdminPassword: adminPass, Demo: true,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	deps := handlers.NewDeps(db, nil, storage.NewLocalUploader(t.TempDir(), "/media"))
	app := handlers.NewApp(deps, web.Views())
	handlers.Register(app, deps)
	return app, db
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

type apiResp struct {
	Status int
	Body   map[string]any
	SID    string
}

// call sends a JSON request; sid may be empty.
func call(t *testing.T, app *fiber.App, method, path string, body any, sid string) apiResp {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := apiResp{Status: resp.StatusCode, SID: extractCookie(resp, "sid")}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Body); err != nil {
			t.Fatalf("%s %s: body is not JSON: %s", method, path, raw)
		}
	}
	return out
}

func login(t *testing.T, app *fiber.App, email, pass string) string {
	t.Helper()
	r := call(t, app, "POST", "/api/v1/login", map[string]string{"email": email, "password": pass}, "")
	if r.Status != http.StatusOK || r.SID == "" {
		t.Fatalf("login %s: status %d body %v", email, r.Status, r.Body)
	}
	return r.SID
}

func productIDs(t *testing.T, body map[string]any) []string {
	t.Helper()
	list, ok := body["products"].([]any)
	if !ok {
		t.Fatalf("products missing: %v", body)
	}
	ids := make([]string, len(list))
	for i, p := range list {
		ids[i], _ = p.(map[string]any)["id"].(string)
	}
	return ids
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func hasAction(entries []logEntry, action string) bool {
	for _, e := range entries {
		if e.Action == action {
			return true
		}
	}
	return false
}
