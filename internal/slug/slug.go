// Package slug builds URL-friendly product slugs.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	// anything that is not a word character, whitespace or hyphen
	disallowed = regexp.MustCompile(`[^\w\s-]`)
	// runs of whitespace, underscores and hyphens
	separators = regexp.MustCompile(`[\s_-]+`)
)

// Generate lowercases s, strips punctuation and joins words with hyphens.
// Example: "SS Ton  Reserve_Edition!" -> "ss-ton-reserve-edition"
func Generate(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	out = disallowed.ReplaceAllString(out, "")
	out = separators.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Unique returns base if it is free, otherwise base-1, base-2, ... for the
// first suffix that is.
func Unique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug lookup: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
