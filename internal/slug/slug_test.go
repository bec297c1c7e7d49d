package slug

import (
	"context"
	"errors"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "Kashmir Willow Bat", want: "kashmir-willow-bat"},
		{name: "punctuation", input: "Bat (Grade 1) - SH!", want: "bat-grade-1-sh"},
		{name: "underscores collapse", input: "pro__series_bat", want: "pro-series-bat"},
		{name: "mixed separators", input: "a - _ b", want: "a-b"},
		{name: "surrounding space", input: "  Gloves  ", want: "gloves"},
		{name: "leading hyphens", input: "--edge--", want: "edge"},
		{name: "only symbols", input: "!!!", want: ""},
		{name: "digits kept", input: "Size 6 Pad", want: "size-6-pad"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Generate(tc.input); got != tc.want {
				t.Errorf("Generate(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestUniqueAppendsSuffix(t *testing.T) {
	taken := map[string]bool{"bat": true, "bat-1": true}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	got, err := Unique(context.Background(), "bat", exists)
	if err != nil {
		t.Fatal(err)
	}
	if got != "bat-2" {
		t.Fatalf("want bat-2, got %s", got)
	}

	got, err = Unique(context.Background(), "pad", exists)
	if err != nil {
		t.Fatal(err)
	}
	if got != "pad" {
		t.Fatalf("want pad, got %s", got)
	}
}

func TestUniquePropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Unique(context.Background(), "bat", func(context.Context, string) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped lookup error, got %v", err)
	}
}
