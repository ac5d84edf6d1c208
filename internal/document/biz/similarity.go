package biz

import "strings"

// shingleSize is the number of consecutive words per shingle used by
// the near-duplicate comparison.
const shingleSize = 4

// nearThreshold is the minimum Jaccard similarity for two texts to be
// considered near duplicates.
const nearThreshold = 0.8

// Shingles splits text into overlapping word n-grams. Texts shorter
// than the shingle size collapse to a single shingle so tiny documents
// still compare.
func Shingles(text string, k int) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	out := make(map[string]struct{})
	if len(words) == 0 {
		return out
	}
	if len(words) <= k {
		out[strings.Join(words, " ")] = struct{}{}
		return out
	}
	for i := 0; i+k <= len(words); i++ {
		out[strings.Join(words[i:i+k], " ")] = struct{}{}
	}
	return out
}

// Jaccard computes |a∩b| / |a∪b|. Two empty sets are not similar: an
// empty extraction says nothing about the content.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	inter := 0
	for s := range small {
		if _, ok := large[s]; ok {
			inter++
		}
	}

	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
