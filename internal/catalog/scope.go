package catalog

import "pitchside/internal/domain"

// Scope is the set of tree ids a product may be tagged with to belong to a
// node. A product matches when any of its three references is in the
// corresponding list.
type Scope struct {
	CategoryIDs       []string
	SubcategoryIDs    []string
	SubSubcategoryIDs []string
}

func (s Scope) Empty() bool {
	return len(s.CategoryIDs) == 0 && len(s.SubcategoryIDs) == 0 && len(s.SubSubcategoryIDs) == 0
}

// ScopeFor expands a resolved node into the ids whose products belong to it.
//
//   - category: tagged with the category, or with any subcategory below it
//   - subcategory: tagged with it or any descendant, in either slot
//   - sub-subcategory: tagged with it (or a deeper descendant) in the
//     sub-subcategory slot
func (t *Tree) ScopeFor(n Node) Scope {
	switch n.Kind {
	case KindCategory:
		desc := t.CategoryDescendants(n.ID)
		return Scope{CategoryIDs: []string{n.ID}, SubcategoryIDs: desc, SubSubcategoryIDs: desc}
	case KindSubcategory:
		ids := append([]string{n.ID}, t.Descendants(n.ID)...)
		return Scope{SubcategoryIDs: ids, SubSubcategoryIDs: ids}
	default:
		ids := append([]string{n.ID}, t.Descendants(n.ID)...)
		return Scope{SubSubcategoryIDs: ids}
	}
}

func (s Scope) Matches(p domain.Product) bool {
	return contains(s.CategoryIDs, p.CategoryID) ||
		contains(s.SubcategoryIDs, p.SubcategoryID) ||
		contains(s.SubSubcategoryIDs, p.SubSubcategoryID)
}

func contains(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
