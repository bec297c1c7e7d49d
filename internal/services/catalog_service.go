package services

import (
	"context"
	"errors"
	"time"

	"pitchside/internal/catalog"
	"pitchside/internal/domain"
	"pitchside/internal/metrics"
	"pitchside/internal/repos"
	"pitchside/internal/validate"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TreeCache is satisfied by *cache.TreeCache.
type TreeCache interface {
	Get(ctx context.Context) (domain.TreeSnapshot, bool)
	Set(ctx context.Context, snap domain.TreeSnapshot)
	Invalidate(ctx context.Context)
}

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
	// Cache is optional.
	Cache TreeCache
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, cache TreeCache) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Cache: cache}
}

// Tree returns the current category tree, from the cache when possible.
func (s *CatalogService) Tree(ctx context.Context) (*catalog.Tree, error) {
	if s.Cache != nil {
		if snap, ok := s.Cache.Get(ctx); ok {
			return catalog.NewTree(snap), nil
		}
	}
	snap, err := s.Cats.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.Set(ctx, snap)
	}
	return catalog.NewTree(snap), nil
}

// InvalidateTree must follow every tree mutation.
func (s *CatalogService) InvalidateTree(ctx context.Context) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx)
	}
}

func (s *CatalogService) Nav(ctx context.Context) ([]catalog.NavCategory, error) {
	t, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return t.Nav(), nil
}

type BrowseQuery struct {
	Path   string
	Facets catalog.Facets
	Page   int
	Limit  int
}

type BrowseResult struct {
	Products   []domain.Product   `json:"products"`
	Category   catalog.Descriptor `json:"categoryInfo"`
	TotalCount int                `json:"totalCount"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}

// Browse resolves a category path, narrows it by facets and returns one page
// of matching products, newest first.
func (s *CatalogService) Browse(ctx context.Context, q BrowseQuery) (BrowseResult, error) {
	start := time.Now()
	defer func() { metrics.BrowseDuration.Observe(time.Since(start).Seconds()) }()

	if err := validate.Struct(q.Facets); err != nil {
		return BrowseResult{}, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}

	t, err := s.Tree(ctx)
	if err != nil {
		return BrowseResult{}, err
	}
	node, err := t.Resolve(q.Path)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		metrics.CategoryResolve.WithLabelValues("not_found").Inc()
		return BrowseResult{}, err
	case errors.Is(err, domain.ErrValidation):
		metrics.CategoryResolve.WithLabelValues("invalid").Inc()
		return BrowseResult{}, err
	case err != nil:
		return BrowseResult{}, err
	}
	metrics.CategoryResolve.WithLabelValues("ok").Inc()

	pred := catalog.Combine(t, t.ScopeFor(node), q.Facets)
	prods, total, err := s.Prods.Find(ctx, pred, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return BrowseResult{}, err
	}
	return BrowseResult{Products: prods, Category: node.Info, TotalCount: total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *CatalogService) ProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if _, ok := validate.Slug(slug); !ok {
		return domain.Product{}, domain.NotFound("This item is no longer available")
	}
	return s.Prods.BySlug(ctx, slug)
}

// ByTags returns up to MaxPageSize products carrying any of tags.
func (s *CatalogService) ByTags(ctx context.Context, tags []string) ([]domain.Product, error) {
	if len(tags) == 0 {
		return nil, domain.Validation("At least one tag is required")
	}
	return s.Prods.ByTags(ctx, tags, MaxPageSize)
}
