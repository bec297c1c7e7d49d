package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchside/internal/catalog"
	"pitchside/internal/domain"
	"pitchside/internal/repos"
	"pitchside/internal/services"
	"pitchside/internal/storage"
)

const pixel = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

type memCache struct {
	snap        *domain.TreeSnapshot
	sets, drops int
}

func (m *memCache) Get(context.Context) (domain.TreeSnapshot, bool) {
	if m.snap == nil {
		return domain.TreeSnapshot{}, false
	}
	return *m.snap, true
}

func (m *memCache) Set(_ context.Context, s domain.TreeSnapshot) { m.snap = &s; m.sets++ }
func (m *memCache) Invalidate(context.Context)                  { m.snap = nil; m.drops++ }

// flakyUploader fails from the failAt-th call on (1-based); 0 never fails.
type flakyUploader struct {
	calls, failAt int
}

func (u *flakyUploader) Upload(_ context.Context, _ string) (storage.Asset, error) {
	u.calls++
	if u.failAt > 0 && u.calls >= u.failAt {
		return storage.Asset{}, errors.New("host unavailable")
	}
	return storage.Asset{PublicID: "img", URL: "https://img.test/img"}, nil
}

type stack struct {
	db      *sqlx.DB
	cache   *memCache
	catalog *services.CatalogService
	cats    *services.CategoryService
	prods   *services.ProductService
	up      *flakyUploader
}

func newStack(t *testing.T) stack {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repos.Seed(context.Background(), db, repos.SeedOptions{Demo: true}))

	mc := &memCache{}
	cat := services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(db), mc)
	up := &flakyUploader{}
	return stack{
		db:      db,
		cache:   mc,
		catalog: cat,
		cats:    services.NewCategoryService(cat, repos.NewCategoryRepo(db)),
		prods:   services.NewProductService(cat, repos.NewProductRepo(db), up),
		up:      up,
	}
}

func browseIDs(t *testing.T, s stack, path string, f catalog.Facets) []string {
	t.Helper()
	res, err := s.catalog.Browse(context.Background(), services.BrowseQuery{Path: path, Facets: f})
	require.NoError(t, err)
	ids := make([]string, len(res.Products))
	for i, p := range res.Products {
		ids[i] = p.ID
	}
	return ids
}

func batInput(name string) services.CreateProductInput {
	return services.CreateProductInput{
		Name:           name,
		Price:          150,
		Category:       "cat-bats",
		SubCategory:    "sub-test",
		SubSubCategory: "sub-premium",
		Tags:           []string{" willow ", "Willow", ""},
	}
}

func TestCreatedNestedProductVisibleAtEveryLevel(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	p, err := s.prods.Create(ctx, batInput("Test Bat"))
	require.NoError(t, err)
	assert.Equal(t, "test-bat", p.Slug)
	assert.True(t, p.InStock)
	assert.Equal(t, []string{"willow"}, p.Tags)

	for _, path := range []string{"Bats", "Bats/Test", "Bats/Test/Premium", "premium"} {
		ids := browseIDs(t, s, path, catalog.Facets{})
		require.NotEmpty(t, ids, path)
		assert.Equal(t, p.ID, ids[0], "newest first under %s", path)
	}
	assert.NotContains(t, browseIDs(t, s, "Bats/T20", catalog.Facets{}), p.ID)
}

func TestSlugCollisionsGetSuffixes(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	var slugs []string
	for range 3 {
		p, err := s.prods.Create(ctx, batInput("Test Bat"))
		require.NoError(t, err)
		slugs = append(slugs, p.Slug)
	}
	assert.Equal(t, []string{"test-bat", "test-bat-1", "test-bat-2"}, slugs)
}

func TestCreateRejectsMismatchedTree(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	in := batInput("Odd Bat")
	in.SubCategory = "sub-batting-gloves"
	_, err := s.prods.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = batInput("Odd Bat")
	in.SubSubCategory = "sub-t20"
	_, err = s.prods.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = batInput("!!!")
	_, err = s.prods.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateRequiresPrice(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	for _, price := range []float64{0, -5} {
		in := batInput("No Price Bat")
		in.Price = price
		in.Images = []string{pixel}
		_, err := s.prods.Create(ctx, in)
		assert.ErrorIs(t, err, domain.ErrValidation, "price %v", price)
	}
	assert.Zero(t, s.up.calls, "nothing is uploaded for an invalid payload")

	exists, err := repos.NewProductRepo(s.db).SlugExists(ctx, "no-price-bat")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUploadFailureAbortsCreation(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.up.failAt = 2

	in := batInput("Broken Upload Bat")
	in.Images = []string{pixel, pixel, pixel}
	_, err := s.prods.Create(ctx, in)
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, 2, s.up.calls, "uploads stop at the first failure")

	exists, err := repos.NewProductRepo(s.db).SlugExists(ctx, "broken-upload-bat")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestImagesOrderedByRank(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repos.Seed(context.Background(), db, repos.SeedOptions{Demo: true}))
	cat := services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(db), nil)
	up := storage.NewLocalUploader(t.TempDir(), "/media")
	prods := services.NewProductService(cat, repos.NewProductRepo(db), up)

	in := batInput("Ranked Bat")
	in.Images = []string{pixel, pixel}
	in.ImageRanks = []int{5, 1}
	p, err := prods.Create(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, p.Images, 2)
	assert.Equal(t, 1, p.Images[0].Rank)
	assert.Contains(t, p.Images[0].URL, "/media/products/")

	got, err := cat.ProductBySlug(context.Background(), "ranked-bat")
	require.NoError(t, err)
	primary, ok := got.PrimaryImage()
	require.True(t, ok)
	assert.Equal(t, 1, primary.Rank)

	in.ImageRanks = []int{0}
	_, err = prods.Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBrowseUnknownCategoryListsAlternatives(t *testing.T) {
	s := newStack(t)
	_, err := s.catalog.Browse(context.Background(), services.BrowseQuery{Path: "Helmets"})
	require.ErrorIs(t, err, domain.ErrNotFound)
	e, ok := domain.AsError(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"Bats", "Gloves", "Pads", "Balls"}, e.Alternatives)
}

func TestBrowsePaginates(t *testing.T) {
	s := newStack(t)
	res, err := s.catalog.Browse(context.Background(), services.BrowseQuery{Path: "Bats", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCount)
	assert.Len(t, res.Products, 1)
	assert.Equal(t, catalog.KindCategory, res.Category.Type)

	res, err = s.catalog.Browse(context.Background(), services.BrowseQuery{Path: "Bats", Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, services.MaxPageSize, res.Limit)
	assert.Equal(t, 1, res.Page)
}

func TestBrowseRejectsNegativePrice(t *testing.T) {
	s := newStack(t)
	min := -1.0
	_, err := s.catalog.Browse(context.Background(), services.BrowseQuery{Path: "Bats", Facets: catalog.Facets{PriceMin: &min}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTreeMutationsInvalidateCache(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	_, err := s.catalog.Nav(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, s.cache.sets)

	_, err = s.cats.CreateCategory(ctx, services.CategoryInput{Name: "Helmets"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.cache.drops)

	nav, err := s.catalog.Nav(ctx)
	require.NoError(t, err)
	assert.Len(t, nav, 5)
	assert.Equal(t, 2, s.cache.sets)
}

func TestMoveCategory(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	require.NoError(t, s.cats.MoveCategory(ctx, "cat-gloves", catalog.Up))
	nav, err := s.catalog.Nav(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Gloves", nav[0].Name)
	assert.Equal(t, "Bats", nav[1].Name)

	drops := s.cache.drops
	require.NoError(t, s.cats.MoveCategory(ctx, "cat-gloves", catalog.Up), "first item up is a no-op")
	assert.Equal(t, drops, s.cache.drops)

	assert.ErrorIs(t, s.cats.MoveCategory(ctx, "cat-nope", catalog.Down), domain.ErrNotFound)
}

func TestMoveNestedSubcategory(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	require.NoError(t, s.cats.MoveSubcategory(ctx, "sub-classic", catalog.Up))
	kids, err := s.cats.Children(ctx, "sub-test")
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, "sub-classic", kids[0].ID)
}

func TestReparentSubcategoryToAnotherCategory(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	pads := "cat-pads"
	_, err := s.cats.UpdateSubcategory(ctx, "sub-classic", services.SubcategoryPatch{ParentCategory: &pads})
	require.NoError(t, err)

	subs, err := s.cats.ListSubcategories(ctx, "cat-pads")
	require.NoError(t, err)
	var ids []string
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	assert.Contains(t, ids, "sub-classic")

	assert.NotContains(t, browseIDs(t, s, "Bats", catalog.Facets{}), "p-classic")
	assert.NotContains(t, browseIDs(t, s, "Bats/Test", catalog.Facets{}), "p-classic")
	assert.Contains(t, browseIDs(t, s, "Pads", catalog.Facets{}), "p-classic")
	assert.Equal(t, []string{"p-classic"}, browseIDs(t, s, "Pads/Classic", catalog.Facets{}))

	dangling, err := repos.NewCategoryRepo(s.db).Dangling(ctx)
	require.NoError(t, err)
	assert.Empty(t, dangling)

	_, err = s.cats.ListSubcategories(ctx, "cat-nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteReferencedCategoryConflicts(t *testing.T) {
	s := newStack(t)
	assert.ErrorIs(t, s.cats.DeleteCategory(context.Background(), "cat-bats"), domain.ErrConflict)
}

func TestAttributeNamesAreTrimmed(t *testing.T) {
	s := newStack(t)
	attrs := services.NewAttributeService(repos.NewAttributeRepo(s.db))
	ctx := context.Background()

	c, err := attrs.CreateColor(ctx, services.AttributeInput{Name: "  Green "})
	require.NoError(t, err)
	assert.Equal(t, "Green", c.Name)

	_, err = attrs.CreateColor(ctx, services.AttributeInput{Name: "green"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = attrs.CreateSize(ctx, services.AttributeInput{Name: "XXL"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	sz, err := attrs.CreateSize(ctx, services.AttributeInput{Name: "XXL", Category: "cat-gloves"})
	require.NoError(t, err)
	sizes, err := attrs.Sizes(ctx, "cat-gloves")
	require.NoError(t, err)
	assert.Equal(t, sz.ID, sizes[len(sizes)-1].ID)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newStack(t)
	auth := services.NewAuthService(repos.NewUserRepo(s.db))
	ctx := context.Background()
	in := services.RegisterInput{Name: "Sam", Email: "Sam@Example.com", Password: "Str0ng!pw", Phone: "555-0100"}

	u, err := auth.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", u.Email)
	assert.NotEqual(t, in.Password, u.Hash)

	_, err = auth.Register(ctx, in)
	assert.ErrorIs(t, err, domain.ErrConflict)

	in.Password = "weak"
	in.Email = "other@example.com"
	_, err = auth.Register(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = auth.Login(ctx, "sid-1", "SAM@example.com", "Str0ng!pw")
	require.NoError(t, err)
	cur, err := auth.CurrentUser(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, cur.ID)

	_, err = auth.Login(ctx, "sid-2", "sam@example.com", "wrong")
	assert.ErrorIs(t, err, services.ErrBadCreds)

	require.NoError(t, auth.Logout(ctx, "sid-1"))
	_, err = auth.CurrentUser(ctx, "sid-1")
	assert.Error(t, err)
}

func TestCartRefusesOutOfStock(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	prods := repos.NewProductRepo(s.db)
	carts := services.NewCartService(repos.NewCartRepo(s.db), prods)

	require.NoError(t, carts.Add(ctx, "sid", "p-ball", 100))
	v, err := carts.View(ctx, "sid")
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, repos.MaxLineQty, v.Items[0].Qty)
	assert.InDelta(t, 25*float64(repos.MaxLineQty), v.Total, 0.001)

	require.NoError(t, prods.SetStock(ctx, "p-gloves", false))
	assert.ErrorIs(t, carts.Add(ctx, "sid", "p-gloves", 1), domain.ErrConflict)
	assert.ErrorIs(t, carts.Add(ctx, "sid", "p-missing", 1), domain.ErrNotFound)

	require.NoError(t, carts.Remove(ctx, "sid", "p-ball"))
	v, err = carts.View(ctx, "sid")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}

func TestWishlistSaveIsIdempotent(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	wl := services.NewWishlistService(repos.NewWishlistRepo(s.db), repos.NewProductRepo(s.db))

	require.NoError(t, wl.Save(ctx, "sid", "p-keeper"))
	require.NoError(t, wl.Save(ctx, "sid", "p-keeper"))
	rows, err := wl.List(ctx, "sid")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.ErrorIs(t, wl.Save(ctx, "sid", "p-missing"), domain.ErrNotFound)
	require.NoError(t, wl.Unsave(ctx, "sid", "p-keeper"))
	rows, err = wl.List(ctx, "sid")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
