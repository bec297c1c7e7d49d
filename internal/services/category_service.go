package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pitchside/internal/catalog"
	"pitchside/internal/domain"
	"pitchside/internal/repos"
	"pitchside/internal/validate"
)

type CategoryInput struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Rank        int    `json:"rank" validate:"gte=0"`
}

// CategoryPatch leaves nil fields unchanged.
type CategoryPatch struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Rank        *int    `json:"rank" validate:"omitempty,gte=0"`
}

type SubcategoryInput struct {
	Name              string `json:"name" validate:"required,notblank,max=100"`
	ParentCategory    string `json:"parentCategory" validate:"required,notblank"`
	ParentSubCategory string `json:"parentSubCategory"`
	Rank              int    `json:"rank" validate:"gte=0"`
}

// SubcategoryPatch leaves nil fields unchanged. Changing ParentCategory
// without naming a ParentSubCategory makes the node top-level in its new
// category.
type SubcategoryPatch struct {
	Name              *string `json:"name" validate:"omitempty,notblank,max=100"`
	ParentCategory    *string `json:"parentCategory" validate:"omitempty,notblank"`
	ParentSubCategory *string `json:"parentSubCategory"`
	Rank              *int    `json:"rank" validate:"omitempty,gte=0"`
}

// CategoryService owns every tree mutation and keeps the tree cache honest.
type CategoryService struct {
	Catalog *CatalogService
	Cats    *repos.CategoryRepo
}

func NewCategoryService(cat *CatalogService, cats *repos.CategoryRepo) *CategoryService {
	return &CategoryService{Catalog: cat, Cats: cats}
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Category{}, err
	}
	now := time.Now().UTC()
	c := domain.Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Rank:        in.Rank,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Cats.CreateCategory(ctx, c); err != nil {
		return domain.Category{}, err
	}
	s.Catalog.InvalidateTree(ctx)
	return c, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id string, in CategoryPatch) (domain.Category, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Category{}, err
	}
	c, err := s.Cats.Category(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.Rank != nil {
		c.Rank = *in.Rank
	}
	c.UpdatedAt = time.Now().UTC()
	if err := s.Cats.UpdateCategory(ctx, c); err != nil {
		return domain.Category{}, err
	}
	s.Catalog.InvalidateTree(ctx)
	return c, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.Cats.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.Catalog.InvalidateTree(ctx)
	return nil
}

func (s *CategoryService) CreateSubcategory(ctx context.Context, in SubcategoryInput) (domain.Subcategory, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Subcategory{}, err
	}
	now := time.Now().UTC()
	sub := domain.Subcategory{
		ID:                  uuid.NewString(),
		Name:                strings.TrimSpace(in.Name),
		Rank:                in.Rank,
		ParentCategoryID:    strings.TrimSpace(in.ParentCategory),
		ParentSubcategoryID: strings.TrimSpace(in.ParentSubCategory),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.Cats.CreateSubcategory(ctx, sub); err != nil {
		return domain.Subcategory{}, err
	}
	s.Catalog.InvalidateTree(ctx)
	return sub, nil
}

func (s *CategoryService) UpdateSubcategory(ctx context.Context, id string, in SubcategoryPatch) (domain.Subcategory, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Subcategory{}, err
	}
	sub, err := s.Cats.Subcategory(ctx, id)
	if err != nil {
		return domain.Subcategory{}, err
	}
	if in.Name != nil {
		sub.Name = strings.TrimSpace(*in.Name)
	}
	if in.Rank != nil {
		sub.Rank = *in.Rank
	}
	if in.ParentCategory != nil {
		next := strings.TrimSpace(*in.ParentCategory)
		if next != sub.ParentCategoryID {
			sub.ParentSubcategoryID = ""
		}
		sub.ParentCategoryID = next
	}
	if in.ParentSubCategory != nil {
		sub.ParentSubcategoryID = strings.TrimSpace(*in.ParentSubCategory)
	}
	sub.UpdatedAt = time.Now().UTC()
	if err := s.Cats.UpdateSubcategory(ctx, sub); err != nil {
		return domain.Subcategory{}, err
	}
	s.Catalog.InvalidateTree(ctx)
	return sub, nil
}

func (s *CategoryService) DeleteSubcategory(ctx context.Context, id string) error {
	if err := s.Cats.DeleteSubcategory(ctx, id); err != nil {
		return err
	}
	s.Catalog.InvalidateTree(ctx)
	return nil
}

// MoveCategory swaps a category with its neighbour in display order.
func (s *CategoryService) MoveCategory(ctx context.Context, id string, dir catalog.Direction) error {
	t, err := s.freshTree(ctx)
	if err != nil {
		return err
	}
	if _, ok := t.Category(id); !ok {
		return domain.NotFound("Category not found")
	}
	changes, err := catalog.Move(catalog.CategoriesRanked(t.Categories()), id, dir)
	if err != nil {
		return err
	}
	return s.applyRanks(ctx, changes, s.Cats.ApplyCategoryRanks)
}

// MoveSubcategory swaps a subcategory with its neighbour among the nodes
// sharing its parent.
func (s *CategoryService) MoveSubcategory(ctx context.Context, id string, dir catalog.Direction) error {
	t, err := s.freshTree(ctx)
	if err != nil {
		return err
	}
	sub, ok := t.Subcategory(id)
	if !ok {
		return domain.NotFound("Subcategory not found")
	}
	changes, err := catalog.Move(catalog.SubcategoriesRanked(t.Siblings(sub)), id, dir)
	if err != nil {
		return err
	}
	return s.applyRanks(ctx, changes, s.Cats.ApplySubcategoryRanks)
}

func (s *CategoryService) applyRanks(ctx context.Context, changes []catalog.RankChange,
	apply func(context.Context, []catalog.RankChange) error) error {
	if len(changes) == 0 {
		return nil
	}
	if err := apply(ctx, changes); err != nil {
		return err
	}
	s.Catalog.InvalidateTree(ctx)
	return nil
}

// ListSubcategories returns the top-level subcategories of a category, or
// every subcategory when categoryID is empty.
func (s *CategoryService) ListSubcategories(ctx context.Context, categoryID string) ([]domain.Subcategory, error) {
	t, err := s.Catalog.Tree(ctx)
	if err != nil {
		return nil, err
	}
	if categoryID == "" {
		return t.Snapshot().Subcategories, nil
	}
	if _, ok := t.Category(categoryID); !ok {
		return nil, domain.NotFound("Category not found")
	}
	return t.TopLevel(categoryID), nil
}

// Children returns the nested subcategories directly below id.
func (s *CategoryService) Children(ctx context.Context, id string) ([]domain.Subcategory, error) {
	t, err := s.Catalog.Tree(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Subcategory(id); !ok {
		return nil, domain.NotFound("Subcategory not found")
	}
	return t.Nested(id), nil
}

// freshTree bypasses the cache; rank moves must see committed ranks.
func (s *CategoryService) freshTree(ctx context.Context) (*catalog.Tree, error) {
	snap, err := s.Cats.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.NewTree(snap), nil
}
