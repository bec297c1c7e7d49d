package handlers

import (
	"github.com/jmoiron/sqlx"

	"pitchside/internal/repos"
	"pitchside/internal/services"
	"pitchside/internal/storage"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler      *AuthHandler
	CatalogHandler   *CatalogHandler
	ProductHandler   *ProductHandler
	CategoryHandler  *CategoryHandler
	AttributeHandler *AttributeHandler
	CartHandler      *CartHandler
	WishlistHandler  *WishlistHandler
	AdminHandler     *AdminHandler
}

// NewDeps wires repositories, services and handlers. cache may be nil.
func NewDeps(db *sqlx.DB, cache services.TreeCache, up storage.Uploader) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	attrRepo := repos.NewAttributeRepo(db)
	userRepo := repos.NewUserRepo(db)
	cartRepo := repos.NewCartRepo(db)
	wishRepo := repos.NewWishlistRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo, cache)
	productSvc := services.NewProductService(catalogSvc, prodRepo, up)
	categorySvc := services.NewCategoryService(catalogSvc, catRepo)
	attrSvc := services.NewAttributeService(attrRepo)
	authSvc := services.NewAuthService(userRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	wishSvc := services.NewWishlistService(wishRepo, prodRepo)

	return &Deps{
		Auth:             authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc},
		CatalogHandler:   &CatalogHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc, Products: productSvc},
		CategoryHandler:  &CategoryHandler{Cats: categorySvc},
		AttributeHandler: &AttributeHandler{Attrs: attrSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		WishlistHandler:  &WishlistHandler{Wish: wishSvc},
		AdminHandler:     &AdminHandler{Cats: catRepo},
	}
}
