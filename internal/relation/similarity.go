package relation

import (
	"sort"
	"strings"
)

// DefaultSimilarityThreshold is the Levenshtein distance at or under which
// two normalized tag names are treated as similar. Tunable, not a hard law.
const DefaultSimilarityThreshold = 3

// SimilarPair flags two tag names that are probably the same concept.
type SimilarPair struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Distance int    `json:"distance"`
}

// normalizeForSimilarity lowercases and strips all whitespace so that
// "Slow Burn" and "slowburn" compare at distance zero.
func normalizeForSimilarity(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// Similar reports whether two tag names are within maxDistance edits after
// normalization. Pass DefaultSimilarityThreshold unless the caller tunes it.
func Similar(a, b string, maxDistance int) bool {
	na, nb := normalizeForSimilarity(a), normalizeForSimilarity(b)
	if na == nb {
		return true
	}
	// Cheap lower bound: length difference alone can rule the pair out.
	if abs(len(na)-len(nb)) > maxDistance {
		return false
	}
	return levenshteinDistance(na, nb) <= maxDistance
}

// FindSimilar returns every pair of distinct tags within maxDistance edits,
// closest pairs first. Useful for alias suggestions and merge alerts.
func FindSimilar(tags []string, maxDistance int) []SimilarPair {
	var out []SimilarPair
	for i := 0; i < len(tags); i++ {
		for j := i + 1; j < len(tags); j++ {
			na, nb := normalizeForSimilarity(tags[i]), normalizeForSimilarity(tags[j])
			if abs(len(na)-len(nb)) > maxDistance {
				continue
			}
			d := levenshteinDistance(na, nb)
			if d <= maxDistance {
				out = append(out, SimilarPair{A: tags[i], B: tags[j], Distance: d})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
