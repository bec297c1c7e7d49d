package handlers_test

import (
	"net/http"
	"strings"
	"testing"
)

const pixel = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestAdminCreatesProduct(t *testing.T) {
	app, _ := newTestApp(t)
	admin := login(t, app, adminEmail, adminPass)
	body := map[string]any{
		"name":           "Test Bat",
		"price":          150,
		"category":       "cat-bats",
		"subCategory":    "sub-test",
		"subSubCategory": "sub-premium",
		"tags":           []string{"Willow", "willow", "new"},
		"images":         []string{pixel},
	}

	r := call(t, app, "POST", "/api/v1/products", body, admin)
	if r.Status != http.StatusCreated {
		t.Fatalf("create: %d %v", r.Status, r.Body)
	}
	p := r.Body["product"].(map[string]any)
	if p["slug"] != "test-bat" || p["inStock"] != true {
		t.Fatalf("unexpected product: %v", p)
	}
	if tags := p["tags"].([]any); len(tags) != 2 {
		t.Fatalf("tags not deduplicated: %v", tags)
	}
	imgs := p["images"].([]any)
	if len(imgs) != 1 || !strings.HasPrefix(imgs[0].(map[string]any)["url"].(string), "/media/") {
		t.Fatalf("unexpected images: %v", imgs)
	}

	r = call(t, app, "POST", "/api/v1/products", body, admin)
	if r.Status != http.StatusCreated || r.Body["product"].(map[string]any)["slug"] != "test-bat-1" {
		t.Fatalf("second create: %d %v", r.Status, r.Body)
	}

	r = call(t, app, "GET", "/api/v1/products/browse?path=Bats/Test/Premium", nil, "")
	if got := productIDs(t, r.Body); len(got) != 3 || got[2] != "p-reserve" {
		t.Fatalf("new products should lead the listing: %v", got)
	}

	body["subCategory"] = "sub-t20"
	if r := call(t, app, "POST", "/api/v1/products", body, admin); r.Status != http.StatusBadRequest {
		t.Fatalf("mismatched tree refs expected 400, got %d %v", r.Status, r.Body)
	}
	body["subCategory"] = "sub-test"
	body["images"] = []string{"not-an-image"}
	if r := call(t, app, "POST", "/api/v1/products", body, admin); r.Status < 400 {
		t.Fatalf("bad image expected an error, got %d", r.Status)
	}
}

func TestProductCreateNeedsPrice(t *testing.T) {
	app, db := newTestApp(t)
	admin := login(t, app, adminEmail, adminPass)
	body := map[string]any{
		"name":        "No Price Bat",
		"category":    "cat-bats",
		"subCategory": "sub-test",
		"images":      []string{pixel},
	}
	r := call(t, app, "POST", "/api/v1/products", body, admin)
	if r.Status != http.StatusBadRequest || r.Body["success"] != false {
		t.Fatalf("missing price expected 400, got %d %v", r.Status, r.Body)
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products WHERE slug='no-price-bat'`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatal("product stored without a price")
	}
}

func TestMovedSubcategoryTakesItsProducts(t *testing.T) {
	app, _ := newTestApp(t)
	admin := login(t, app, adminEmail, adminPass)

	r := call(t, app, "PUT", "/api/v1/admin/subcategories/sub-classic", map[string]any{"parentCategory": "cat-pads"}, admin)
	if r.Status != http.StatusOK {
		t.Fatalf("reparent: %d %v", r.Status, r.Body)
	}
	for path, want := range map[string]bool{"Bats": false, "Bats/Test": false, "Pads": true, "Pads/Classic": true} {
		r := call(t, app, "GET", "/api/v1/products/browse?path="+path, nil, "")
		if r.Status != http.StatusOK {
			t.Fatalf("%s: %d %v", path, r.Status, r.Body)
		}
		found := false
		for _, id := range productIDs(t, r.Body) {
			found = found || id == "p-classic"
		}
		if found != want {
			t.Fatalf("%s: p-classic listed=%v, want %v", path, found, want)
		}
	}
	r = call(t, app, "GET", "/api/v1/admin/integrity", nil, admin)
	if d := r.Body["dangling"].([]any); len(d) != 0 {
		t.Fatalf("move left dangling references: %v", d)
	}

	r = call(t, app, "PUT", "/api/v1/admin/subcategories/sub-test", map[string]any{"parentSubCategory": "sub-t20"}, admin)
	if r.Status != http.StatusConflict {
		t.Fatalf("nesting products too deep expected 409, got %d %v", r.Status, r.Body)
	}
}

func TestAdminCategoryLifecycle(t *testing.T) {
	app, _ := newTestApp(t)
	admin := login(t, app, adminEmail, adminPass)

	r := call(t, app, "POST", "/api/v1/admin/categories/cat-gloves/move/up", nil, admin)
	if r.Status != http.StatusOK {
		t.Fatalf("move: %d %v", r.Status, r.Body)
	}
	r = call(t, app, "GET", "/api/v1/categories", nil, "")
	first := r.Body["categories"].([]any)[0].(map[string]any)
	if first["name"] != "Gloves" {
		t.Fatalf("expected Gloves first after move, got %v", first["name"])
	}
	if r := call(t, app, "POST", "/api/v1/admin/categories/cat-gloves/move/sideways", nil, admin); r.Status != http.StatusBadRequest {
		t.Fatalf("bad direction expected 400, got %d", r.Status)
	}

	if r := call(t, app, "DELETE", "/api/v1/admin/categories/cat-bats", nil, admin); r.Status != http.StatusConflict {
		t.Fatalf("delete in-use category expected 409, got %d %v", r.Status, r.Body)
	}

	r = call(t, app, "POST", "/api/v1/admin/categories", map[string]any{"name": "Helmets"}, admin)
	id := r.Body["category"].(map[string]any)["id"].(string)
	r = call(t, app, "POST", "/api/v1/admin/subcategories", map[string]any{"name": "Junior", "parentCategory": id}, admin)
	if r.Status != http.StatusCreated {
		t.Fatalf("create subcategory: %d %v", r.Status, r.Body)
	}
	subID := r.Body["subcategory"].(map[string]any)["id"].(string)

	r = call(t, app, "GET", "/api/v1/admin/subcategories?category="+id, nil, admin)
	if subs := r.Body["subcategories"].([]any); len(subs) != 1 {
		t.Fatalf("expected one subcategory, got %v", subs)
	}
	if r := call(t, app, "GET", "/api/v1/admin/subcategories?category=nope", nil, admin); r.Status != http.StatusNotFound {
		t.Fatalf("unknown category expected 404, got %d", r.Status)
	}

	r = call(t, app, "GET", "/api/v1/products/browse?path=Helmets/Junior", nil, "")
	if r.Status != http.StatusOK || len(productIDs(t, r.Body)) != 0 {
		t.Fatalf("new subcategory should browse empty: %d %v", r.Status, r.Body)
	}

	if r := call(t, app, "DELETE", "/api/v1/admin/subcategories/"+subID, nil, admin); r.Status != http.StatusOK {
		t.Fatalf("delete subcategory: %d %v", r.Status, r.Body)
	}
	if r := call(t, app, "DELETE", "/api/v1/admin/categories/"+id, nil, admin); r.Status != http.StatusOK {
		t.Fatalf("delete category: %d %v", r.Status, r.Body)
	}
	if r := call(t, app, "DELETE", "/api/v1/admin/categories/"+id, nil, admin); r.Status != http.StatusNotFound {
		t.Fatalf("second delete expected 404, got %d", r.Status)
	}
}

func TestStockToggleBlocksCart(t *testing.T) {
	app, _ := newTestApp(t)
	admin := login(t, app, adminEmail, adminPass)

	r := call(t, app, "PATCH", "/api/v1/admin/products/p-ball/stock", map[string]any{"inStock": false}, admin)
	if r.Status != http.StatusOK || r.Body["inStock"] != false {
		t.Fatalf("stock patch: %d %v", r.Status, r.Body)
	}
	if r := call(t, app, "PATCH", "/api/v1/admin/products/p-ball/stock", map[string]any{}, admin); r.Status != http.StatusBadRequest {
		t.Fatalf("missing inStock expected 400, got %d", r.Status)
	}

	shopper := login(t, app, shopEmail, shopPass)
	r = call(t, app, "POST", "/api/v1/cart", map[string]any{"productId": "p-ball", "qty": 1}, shopper)
	if r.Status != http.StatusConflict {
		t.Fatalf("out of stock add expected 409, got %d %v", r.Status, r.Body)
	}
	r = call(t, app, "POST", "/api/v1/cart", map[string]any{"productId": "p-keeper", "qty": 2}, shopper)
	if r.Status != http.StatusOK {
		t.Fatalf("cart add: %d %v", r.Status, r.Body)
	}
	if total := r.Body["cart"].(map[string]any)["total"].(float64); total != 150 {
		t.Fatalf("expected total 150, got %v", total)
	}
}

func TestIntegrityReportsCleanStore(t *testing.T) {
	app, _ := newTestApp(t)
	admin := login(t, app, adminEmail, adminPass)
	r := call(t, app, "GET", "/api/v1/admin/integrity", nil, admin)
	if r.Status != http.StatusOK {
		t.Fatalf("integrity: %d %v", r.Status, r.Body)
	}
	if d := r.Body["dangling"].([]any); len(d) != 0 {
		t.Fatalf("seeded store should be consistent, got %v", d)
	}
}

func TestWishlistAPI(t *testing.T) {
	app, _ := newTestApp(t)
	shopper := login(t, app, shopEmail, shopPass)
	for i := 0; i < 2; i++ {
		if r := call(t, app, "PUT", "/api/v1/wishlist/p-gloves", nil, shopper); r.Status != http.StatusOK {
			t.Fatalf("save: %d %v", r.Status, r.Body)
		}
	}
	r := call(t, app, "GET", "/api/v1/wishlist", nil, shopper)
	if items := r.Body["items"].([]any); len(items) != 1 {
		t.Fatalf("expected one saved item, got %v", items)
	}
	if r := call(t, app, "PUT", "/api/v1/wishlist/p-missing", nil, shopper); r.Status != http.StatusNotFound {
		t.Fatalf("unknown product expected 404, got %d", r.Status)
	}
	call(t, app, "DELETE", "/api/v1/wishlist/p-gloves", nil, shopper)
	r = call(t, app, "GET", "/api/v1/wishlist", nil, shopper)
	if items := r.Body["items"].([]any); len(items) != 0 {
		t.Fatalf("expected empty wishlist, got %v", items)
	}
}
