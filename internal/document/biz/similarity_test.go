package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShingles(t *testing.T) {
	tests := []struct {
		name string
		text string
		k    int
		want []string
	}{
		{
			name: "overlapping n-grams",
			text: "the quick brown fox jumps",
			k:    4,
			want: []string{"the quick brown fox", "quick brown fox jumps"},
		},
		{
			name: "short text collapses to one shingle",
			text: "hello world",
			k:    4,
			want: []string{"hello world"},
		},
		{
			name: "case and whitespace are normalized",
			text: "  The   QUICK brown    fox ",
			k:    4,
			want: []string{"the quick brown fox"},
		},
		{
			name: "empty text",
			text: "   ",
			k:    4,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Shingles(tt.text, tt.k)
			assert.Len(t, got, len(tt.want))
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	set := func(items ...string) map[string]struct{} {
		out := make(map[string]struct{}, len(items))
		for _, it := range items {
			out[it] = struct{}{}
		}
		return out
	}

	tests := []struct {
		name string
		a    map[string]struct{}
		b    map[string]struct{}
		want float64
	}{
		{name: "identical", a: set("x", "y"), b: set("x", "y"), want: 1},
		{name: "disjoint", a: set("x"), b: set("y"), want: 0},
		{name: "partial overlap", a: set("x", "y", "z"), b: set("y", "z", "w"), want: 0.5},
		{name: "both empty", a: set(), b: set(), want: 0},
		{name: "one empty", a: set("x"), b: set(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Jaccard(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, Jaccard(tt.b, tt.a), 1e-9, "must be symmetric")
		})
	}
}

func TestJaccard_NearThreshold(t *testing.T) {
	// Two long texts differing in one trailing word stay above the
	// grouping threshold; a half-rewritten text falls below it.
	a := Shingles(wordRun(60, false), shingleSize)
	b := Shingles(wordRun(60, true), shingleSize)
	assert.GreaterOrEqual(t, Jaccard(a, b), nearThreshold)

	c := Shingles(wordRun(30, false), shingleSize)
	assert.Less(t, Jaccard(a, c), nearThreshold)
}
