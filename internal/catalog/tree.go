// Package catalog holds the category tree and the logic that turns a
// category path plus shopper facets into a product query.
//
// The tree is an arena: categories and subcategories are stored by id and
// children are derived from parent ids when the tree is built. Walks are
// iterative and keep a visited set, so a corrupt parent chain cannot loop.
package catalog

import (
	"sort"
	"strings"

	"pitchside/internal/domain"
)

type Tree struct {
	cats     []domain.Category
	catIndex map[string]int
	subs     map[string]domain.Subcategory
	// children of a category ("c:" + id) or of a subcategory ("s:" + id)
	children map[string][]string
}

func catKey(id string) string { return "c:" + id }
func subKey(id string) string { return "s:" + id }

func NewTree(snap domain.TreeSnapshot) *Tree {
	t := &Tree{
		cats:     append([]domain.Category(nil), snap.Categories...),
		catIndex: make(map[string]int, len(snap.Categories)),
		subs:     make(map[string]domain.Subcategory, len(snap.Subcategories)),
		children: make(map[string][]string),
	}
	sort.SliceStable(t.cats, func(i, j int) bool {
		a, b := t.cats[i], t.cats[j]
		return less(a.Rank, b.Rank, a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano(), a.ID, b.ID)
	})
	for i, c := range t.cats {
		t.catIndex[c.ID] = i
	}

	subs := append([]domain.Subcategory(nil), snap.Subcategories...)
	sort.SliceStable(subs, func(i, j int) bool {
		a, b := subs[i], subs[j]
		return less(a.Rank, b.Rank, a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano(), a.ID, b.ID)
	})
	for _, s := range subs {
		t.subs[s.ID] = s
		key := catKey(s.ParentCategoryID)
		if s.Nested() {
			key = subKey(s.ParentSubcategoryID)
		}
		t.children[key] = append(t.children[key], s.ID)
	}
	return t
}

// less orders by rank, then creation time, then id.
func less(ra, rb int, ca, cb int64, ia, ib string) bool {
	if ra != rb {
		return ra < rb
	}
	if ca != cb {
		return ca < cb
	}
	return ia < ib
}

func (t *Tree) Snapshot() domain.TreeSnapshot {
	snap := domain.TreeSnapshot{
		Categories:    append([]domain.Category(nil), t.cats...),
		Subcategories: make([]domain.Subcategory, 0, len(t.subs)),
	}
	for _, c := range t.cats {
		snap.Subcategories = append(snap.Subcategories, t.subtreeList(catKey(c.ID))...)
	}
	// orphans (parent category gone) are kept so a rebuild sees the same data
	seen := make(map[string]bool, len(snap.Subcategories))
	for _, s := range snap.Subcategories {
		seen[s.ID] = true
	}
	var orphans []domain.Subcategory
	for id, s := range t.subs {
		if !seen[id] {
			orphans = append(orphans, s)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].ID < orphans[j].ID })
	snap.Subcategories = append(snap.Subcategories, orphans...)
	return snap
}

func (t *Tree) subtreeList(key string) []domain.Subcategory {
	var out []domain.Subcategory
	seen := map[string]bool{}
	stack := []string{key}
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		kids := t.children[k]
		for i := len(kids) - 1; i >= 0; i-- {
			id := kids[i]
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, t.subs[id])
			stack = append(stack, subKey(id))
		}
	}
	return out
}

func (t *Tree) Categories() []domain.Category {
	return append([]domain.Category(nil), t.cats...)
}

func (t *Tree) CategoryNames() []string {
	names := make([]string, len(t.cats))
	for i, c := range t.cats {
		names[i] = c.Name
	}
	return names
}

func (t *Tree) Category(id string) (domain.Category, bool) {
	i, ok := t.catIndex[id]
	if !ok {
		return domain.Category{}, false
	}
	return t.cats[i], true
}

func (t *Tree) Subcategory(id string) (domain.Subcategory, bool) {
	s, ok := t.subs[id]
	return s, ok
}

// TopLevel returns the direct subcategories of a category, in display order.
func (t *Tree) TopLevel(categoryID string) []domain.Subcategory {
	return t.list(t.children[catKey(categoryID)])
}

// Nested returns the direct children of a subcategory, in display order.
func (t *Tree) Nested(subcategoryID string) []domain.Subcategory {
	return t.list(t.children[subKey(subcategoryID)])
}

// Siblings returns the subcategories sharing s's parent, s included.
func (t *Tree) Siblings(s domain.Subcategory) []domain.Subcategory {
	if s.Nested() {
		return t.Nested(s.ParentSubcategoryID)
	}
	return t.TopLevel(s.ParentCategoryID)
}

func (t *Tree) list(ids []string) []domain.Subcategory {
	out := make([]domain.Subcategory, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.subs[id])
	}
	return out
}

// Descendants returns the ids of every subcategory below id, excluding id.
func (t *Tree) Descendants(id string) []string {
	return t.walk(subKey(id), id)
}

// CategoryDescendants returns the ids of every subcategory below a category.
func (t *Tree) CategoryDescendants(categoryID string) []string {
	return t.walk(catKey(categoryID), "")
}

func (t *Tree) walk(start, skip string) []string {
	var out []string
	seen := map[string]bool{}
	if skip != "" {
		seen[skip] = true
	}
	queue := []string{start}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for _, id := range t.children[k] {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
			queue = append(queue, subKey(id))
		}
	}
	return out
}

// Ancestry returns the display names from the category down to s, s included.
// A missing category shows up as "Unknown".
func (t *Tree) Ancestry(s domain.Subcategory) []string {
	chain := []string{s.Name}
	seen := map[string]bool{s.ID: true}
	cur := s
	for cur.Nested() {
		parent, ok := t.subs[cur.ParentSubcategoryID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent.Name)
		cur = parent
	}
	catName := "Unknown"
	if c, ok := t.Category(s.ParentCategoryID); ok {
		catName = c.Name
	}
	chain = append(chain, catName)
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func sameName(stored, wanted string) bool {
	return strings.EqualFold(strings.TrimSpace(stored), strings.TrimSpace(wanted))
}

func (t *Tree) categoryByName(name string) (domain.Category, bool) {
	for _, c := range t.cats {
		if sameName(c.Name, name) {
			return c, true
		}
	}
	return domain.Category{}, false
}

func (t *Tree) childByName(key, name string) (domain.Subcategory, bool) {
	for _, id := range t.children[key] {
		if s := t.subs[id]; sameName(s.Name, name) {
			return s, true
		}
	}
	return domain.Subcategory{}, false
}

// anySubcategoryByName prefers shallower matches, then display order.
func (t *Tree) anySubcategoryByName(name string) (domain.Subcategory, bool) {
	for _, c := range t.cats {
		if s, ok := t.childByName(catKey(c.ID), name); ok {
			return s, true
		}
	}
	var best domain.Subcategory
	found := false
	for _, s := range t.subs {
		if !sameName(s.Name, name) {
			continue
		}
		if !found || less(s.Rank, best.Rank, s.CreatedAt.UnixNano(), best.CreatedAt.UnixNano(), s.ID, best.ID) {
			best, found = s, true
		}
	}
	return best, found
}

// SubcategoryIDsByName resolves facet names to ids across the whole tree.
func (t *Tree) SubcategoryIDsByName(names []string) []string {
	var out []string
	for id, s := range t.subs {
		for _, n := range names {
			if sameName(s.Name, n) {
				out = append(out, id)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// NavNode is a subcategory with its children, used for menus.
type NavNode struct {
	domain.Subcategory
	Subcategories []NavNode `json:"subcategories"`
}

type NavCategory struct {
	domain.Category
	Subcategories []NavNode `json:"subcategories"`
}

// Nav returns the whole tree nested and sorted by rank at every level.
func (t *Tree) Nav() []NavCategory {
	out := make([]NavCategory, 0, len(t.cats))
	for _, c := range t.cats {
		seen := map[string]bool{}
		out = append(out, NavCategory{Category: c, Subcategories: t.navChildren(catKey(c.ID), seen)})
	}
	return out
}

func (t *Tree) navChildren(key string, seen map[string]bool) []NavNode {
	ids := t.children[key]
	nodes := make([]NavNode, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		nodes = append(nodes, NavNode{Subcategory: t.subs[id], Subcategories: t.navChildren(subKey(id), seen)})
	}
	return nodes
}
