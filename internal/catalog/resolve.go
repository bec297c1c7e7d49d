package catalog

import (
	"fmt"
	"strings"

	"pitchside/internal/domain"
)

type Kind string

const (
	KindCategory       Kind = "category"
	KindSubcategory    Kind = "subcategory"
	KindSubSubcategory Kind = "sub-subcategory"
)

// MaxPathSegments is category / subcategory / sub-subcategory.
const MaxPathSegments = 3

// Descriptor is what storefront pages show as breadcrumbs.
type Descriptor struct {
	Type      Kind     `json:"type"`
	Name      string   `json:"name"`
	Parent    string   `json:"parent,omitempty"`
	Hierarchy []string `json:"hierarchy"`
}

// Node is a resolved point in the tree.
type Node struct {
	Kind       Kind
	ID         string
	CategoryID string
	Info       Descriptor
}

// ParsePath splits an already decoded category path into trimmed,
// non-empty segments.
func ParsePath(path string) ([]string, error) {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return nil, domain.Validation("Category path is required")
	}
	if len(segs) > MaxPathSegments {
		return nil, domain.Validation("Category path has %d levels, at most %d are supported", len(segs), MaxPathSegments)
	}
	return segs, nil
}

// Resolve maps "Bats", "Bats/Test" or "Bats/Test/Premium" onto the tree.
// Segment matching is case-insensitive and exact. A single segment that is
// not a category is retried as a standalone subcategory name.
func (t *Tree) Resolve(path string) (Node, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return Node{}, err
	}

	cat, ok := t.categoryByName(segs[0])
	if !ok {
		if len(segs) == 1 {
			if s, ok := t.anySubcategoryByName(segs[0]); ok {
				return t.standalone(s), nil
			}
			return Node{}, domain.NotFound(
				fmt.Sprintf("No category or subcategory found for path %q", strings.Join(segs, "/")),
				t.CategoryNames()...)
		}
		return Node{}, domain.NotFound(fmt.Sprintf("Main category not found: %s", segs[0]), t.CategoryNames()...)
	}
	if len(segs) == 1 {
		return Node{
			Kind:       KindCategory,
			ID:         cat.ID,
			CategoryID: cat.ID,
			Info:       Descriptor{Type: KindCategory, Name: cat.Name, Hierarchy: []string{cat.Name}},
		}, nil
	}

	sub, ok := t.childByName(catKey(cat.ID), segs[1])
	if !ok {
		return Node{}, domain.NotFound(
			fmt.Sprintf("Subcategory %q not found under category %q", segs[1], segs[0]),
			names(t.TopLevel(cat.ID))...)
	}
	if len(segs) == 2 {
		return Node{
			Kind:       KindSubcategory,
			ID:         sub.ID,
			CategoryID: cat.ID,
			Info: Descriptor{
				Type:      KindSubcategory,
				Name:      sub.Name,
				Parent:    cat.Name,
				Hierarchy: []string{cat.Name, sub.Name},
			},
		}, nil
	}

	leaf, ok := t.childByName(subKey(sub.ID), segs[2])
	if !ok || leaf.ParentCategoryID != cat.ID {
		return Node{}, domain.NotFound(
			fmt.Sprintf("Sub-subcategory %q not found under subcategory %q", segs[2], segs[1]),
			names(t.Nested(sub.ID))...)
	}
	return Node{
		Kind:       KindSubSubcategory,
		ID:         leaf.ID,
		CategoryID: cat.ID,
		Info: Descriptor{
			Type:      KindSubSubcategory,
			Name:      leaf.Name,
			Parent:    sub.Name,
			Hierarchy: []string{cat.Name, sub.Name, leaf.Name},
		},
	}, nil
}

// standalone describes a subcategory reached by name alone. It is always
// reported as a subcategory of its category, nested or not.
func (t *Tree) standalone(s domain.Subcategory) Node {
	cat := t.Ancestry(s)[0]
	return Node{
		Kind:       KindSubcategory,
		ID:         s.ID,
		CategoryID: s.ParentCategoryID,
		Info: Descriptor{
			Type:      KindSubcategory,
			Name:      s.Name,
			Parent:    cat,
			Hierarchy: []string{cat, s.Name},
		},
	}
}

func names(subs []domain.Subcategory) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.Name
	}
	return out
}
