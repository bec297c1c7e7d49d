package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pitchside/internal/catalog"
	"pitchside/internal/domain"
	"pitchside/internal/metrics"
	"pitchside/internal/repos"
	"pitchside/internal/slug"
	"pitchside/internal/storage"
	"pitchside/internal/validate"
)

// CreateProductInput is the admin payload for a new product. Images are
// base64 data URIs; ImageRanks[i] orders Images[i] and defaults to i.
type CreateProductInput struct {
	Name                string   `json:"name" validate:"required,notblank,max=200"`
	ShortDescription    string   `json:"shortDescription" validate:"max=500"`
	DetailedDescription string   `json:"detailedDescription" validate:"max=10000"`
	Price               float64  `json:"price" validate:"required,gt=0"`
	OriginalPrice       float64  `json:"originalPrice" validate:"gte=0"`
	Discount            float64  `json:"discount" validate:"gte=0,lte=100"`
	Tax                 float64  `json:"tax" validate:"gte=0"`
	Quality             string   `json:"quality" validate:"max=100"`
	Size                string   `json:"size" validate:"max=100"`
	Colors              string   `json:"colors" validate:"max=100"`
	Tags                []string `json:"tags" validate:"max=50,dive,max=100"`
	InStock             *bool    `json:"inStock"`
	Category            string   `json:"category" validate:"required,notblank"`
	SubCategory         string   `json:"subCategory" validate:"required,notblank"`
	SubSubCategory      string   `json:"subSubCategory"`
	Images              []string `json:"images" validate:"max=10"`
	ImageRanks          []int    `json:"imageRanks"`
}

type ProductService struct {
	Catalog  *CatalogService
	Prods    *repos.ProductRepo
	Uploader storage.Uploader
}

func NewProductService(cat *CatalogService, prods *repos.ProductRepo, up storage.Uploader) *ProductService {
	return &ProductService{Catalog: cat, Prods: prods, Uploader: up}
}

// Create validates the payload, checks the tree references, picks a free
// slug, uploads the images one by one and stores the product. The first
// failed upload aborts creation; images already uploaded stay on the host.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Product{}, err
	}
	if len(in.ImageRanks) > 0 && len(in.ImageRanks) != len(in.Images) {
		return domain.Product{}, domain.Validation("imageRanks must have one entry per image")
	}
	t, err := s.Catalog.Tree(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	if err := checkRefs(t, in); err != nil {
		return domain.Product{}, err
	}

	base := slug.Generate(in.Name)
	if base == "" {
		return domain.Product{}, domain.Validation("name must contain letters or digits")
	}
	sl, err := slug.Unique(ctx, base, s.Prods.SlugExists)
	if err != nil {
		return domain.Product{}, err
	}

	images := make([]domain.ProductImage, 0, len(in.Images))
	for i, uri := range in.Images {
		asset, err := s.Uploader.Upload(ctx, uri)
		if err != nil {
			metrics.ImageUpload.WithLabelValues("error").Inc()
			return domain.Product{}, domain.Upstream("Image upload failed", err)
		}
		metrics.ImageUpload.WithLabelValues("ok").Inc()
		rank := i
		if len(in.ImageRanks) > 0 {
			rank = in.ImageRanks[i]
		}
		images = append(images, domain.ProductImage{PublicID: asset.PublicID, URL: asset.URL, Rank: rank})
	}
	sort.SliceStable(images, func(i, j int) bool { return images[i].Rank < images[j].Rank })

	now := time.Now().UTC()
	p := domain.Product{
		ID:                  uuid.NewString(),
		Name:                strings.TrimSpace(in.Name),
		Slug:                sl,
		ShortDescription:    in.ShortDescription,
		DetailedDescription: in.DetailedDescription,
		Price:               in.Price,
		OriginalPrice:       in.OriginalPrice,
		Discount:            in.Discount,
		Tax:                 in.Tax,
		Quality:             strings.TrimSpace(in.Quality),
		Size:                strings.TrimSpace(in.Size),
		Colors:              strings.TrimSpace(in.Colors),
		Tags:                cleanTags(in.Tags),
		InStock:             in.InStock == nil || *in.InStock,
		Images:              images,
		CategoryID:          in.Category,
		SubcategoryID:       in.SubCategory,
		SubSubcategoryID:    in.SubSubCategory,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *ProductService) SetStock(ctx context.Context, id string, inStock bool) error {
	return s.Prods.SetStock(ctx, id, inStock)
}

func checkRefs(t *catalog.Tree, in CreateProductInput) error {
	if _, ok := t.Category(in.Category); !ok {
		return domain.Validation("Category %q does not exist", in.Category)
	}
	sub, ok := t.Subcategory(in.SubCategory)
	if !ok || sub.Nested() || sub.ParentCategoryID != in.Category {
		return domain.Validation("Subcategory %q does not belong to category %q", in.SubCategory, in.Category)
	}
	if in.SubSubCategory == "" {
		return nil
	}
	leaf, ok := t.Subcategory(in.SubSubCategory)
	if !ok || leaf.ParentSubcategoryID != in.SubCategory {
		return domain.Validation("Sub-subcategory %q does not belong to subcategory %q", in.SubSubCategory, in.SubCategory)
	}
	return nil
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}
