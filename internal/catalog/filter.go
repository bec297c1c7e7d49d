package catalog

import (
	"sort"
	"strconv"
	"strings"

	"pitchside/internal/domain"
)

// Facets are the shopper-selected filters. Lists combine with OR inside a
// facet and with AND across facets; an empty list does not constrain.
type Facets struct {
	Subcategories []string `json:"subcategories" validate:"max=50,dive,max=100"`
	Sizes         []string `json:"sizes" validate:"max=50,dive,max=100"`
	Colors        []string `json:"colors" validate:"max=50,dive,max=100"`
	Qualities     []string `json:"qualities" validate:"max=50,dive,max=100"`
	PriceMin      *float64 `json:"price_min" validate:"omitempty,gte=0"`
	PriceMax      *float64 `json:"price_max" validate:"omitempty,gte=0"`
}

func (f Facets) Empty() bool {
	return len(f.Subcategories) == 0 && len(f.Sizes) == 0 && len(f.Colors) == 0 &&
		len(f.Qualities) == 0 && f.PriceMin == nil && f.PriceMax == nil
}

// Normalize trims values and drops blanks.
func (f Facets) Normalize() Facets {
	f.Subcategories = clean(f.Subcategories)
	f.Sizes = clean(f.Sizes)
	f.Colors = clean(f.Colors)
	f.Qualities = clean(f.Qualities)
	return f
}

func clean(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Query keys accepted by ParseFacetQuery.
const (
	KeySubcategories = "subcategories"
	KeySizes         = "sizes"
	KeyColors        = "colors"
	KeyQualities     = "qualities"
	KeyPriceMin      = "price_min"
	KeyPriceMax      = "price_max"
)

// ParseFacetQuery reads comma separated facet lists from query parameters.
// Keys that are neither facets nor listed in extra are rejected.
func ParseFacetQuery(q map[string]string, extra ...string) (Facets, error) {
	var f Facets
	var unknown []string
	for k, v := range q {
		switch k {
		case KeySubcategories:
			f.Subcategories = strings.Split(v, ",")
		case KeySizes:
			f.Sizes = strings.Split(v, ",")
		case KeyColors:
			f.Colors = strings.Split(v, ",")
		case KeyQualities:
			f.Qualities = strings.Split(v, ",")
		case KeyPriceMin, KeyPriceMax:
			if strings.TrimSpace(v) == "" {
				continue
			}
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return Facets{}, domain.Validation("%s must be a number", k)
			}
			if k == KeyPriceMin {
				f.PriceMin = &n
			} else {
				f.PriceMax = &n
			}
		default:
			if !contains(extra, k) {
				unknown = append(unknown, k)
			}
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Facets{}, domain.Validation("Unknown filter: %s", strings.Join(unknown, ", "))
	}
	return f.Normalize(), nil
}

// Predicate is the final product query: a tree scope narrowed by facets.
type Predicate struct {
	Scope Scope
	// FilterSubcategories is set when the shopper picked subcategory names;
	// SubcategoryIDs may then be empty, which matches nothing.
	FilterSubcategories bool
	SubcategoryIDs      []string
	Sizes               []string
	Colors              []string
	Qualities           []string
	PriceMin            *float64
	PriceMax            *float64
}

// Combine narrows scope by f. With no facets it returns the scope as is.
func Combine(t *Tree, scope Scope, f Facets) Predicate {
	f = f.Normalize()
	p := Predicate{Scope: scope}
	if f.Empty() {
		return p
	}
	if len(f.Subcategories) > 0 {
		p.FilterSubcategories = true
		p.SubcategoryIDs = t.SubcategoryIDsByName(f.Subcategories)
	}
	p.Sizes = f.Sizes
	p.Colors = f.Colors
	p.Qualities = f.Qualities
	p.PriceMin = f.PriceMin
	p.PriceMax = f.PriceMax
	return p
}

// Matches evaluates the predicate against one product in memory.
func (p Predicate) Matches(prod domain.Product) bool {
	if !p.Scope.Matches(prod) {
		return false
	}
	if p.FilterSubcategories &&
		!contains(p.SubcategoryIDs, prod.SubcategoryID) && !contains(p.SubcategoryIDs, prod.SubSubcategoryID) {
		return false
	}
	if len(p.Sizes) > 0 && !contains(p.Sizes, prod.Size) {
		return false
	}
	if len(p.Colors) > 0 && !contains(p.Colors, prod.Colors) {
		return false
	}
	if len(p.Qualities) > 0 && !contains(p.Qualities, prod.Quality) {
		return false
	}
	if p.PriceMin != nil && prod.Price < *p.PriceMin {
		return false
	}
	if p.PriceMax != nil && prod.Price > *p.PriceMax {
		return false
	}
	return true
}
