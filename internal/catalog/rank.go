package catalog

import (
	"sort"
	"time"

	"pitchside/internal/domain"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Up, Down:
		return Direction(s), nil
	}
	return "", domain.Validation("direction must be %q or %q", Up, Down)
}

type Ranked struct {
	ID        string
	Rank      int
	CreatedAt time.Time
}

type RankChange struct {
	ID   string
	Rank int
}

func CategoriesRanked(cats []domain.Category) []Ranked {
	out := make([]Ranked, len(cats))
	for i, c := range cats {
		out[i] = Ranked{ID: c.ID, Rank: c.Rank, CreatedAt: c.CreatedAt}
	}
	return out
}

func SubcategoriesRanked(subs []domain.Subcategory) []Ranked {
	out := make([]Ranked, len(subs))
	for i, s := range subs {
		out[i] = Ranked{ID: s.ID, Rank: s.Rank, CreatedAt: s.CreatedAt}
	}
	return out
}

// Move swaps the rank of id with its neighbour in direction dir. Moving the
// first sibling up, or the last one down, returns no changes. When the two
// ranks are equal the siblings are renumbered 0..n-1 first so the swap is
// visible.
func Move(siblings []Ranked, id string, dir Direction) ([]RankChange, error) {
	items := append([]Ranked(nil), siblings...)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		return less(a.Rank, b.Rank, a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano(), a.ID, b.ID)
	})
	idx := -1
	for i, it := range items {
		if it.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.NotFound("Item not found among its siblings")
	}
	target := idx - 1
	if dir == Down {
		target = idx + 1
	}
	if target < 0 || target >= len(items) {
		return nil, nil
	}

	if items[idx].Rank != items[target].Rank {
		return []RankChange{
			{ID: items[idx].ID, Rank: items[target].Rank},
			{ID: items[target].ID, Rank: items[idx].Rank},
		}, nil
	}

	next := make([]int, len(items))
	for i := range items {
		next[i] = i
	}
	next[idx], next[target] = next[target], next[idx]
	var changes []RankChange
	for i, it := range items {
		if it.Rank != next[i] {
			changes = append(changes, RankChange{ID: it.ID, Rank: next[i]})
		}
	}
	return changes, nil
}
