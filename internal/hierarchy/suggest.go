package hierarchy

import (
	"sort"
	"strings"
)

// EdgeSuggestion is a candidate parent→child edge derived from tag names.
// Suggestions never mutate the graph; they are review material.
type EdgeSuggestion struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Reason string `json:"reason"`
}

// Delimiters considered when splitting tags into namespace prefixes.
var prefixDelimiters = []string{":", "/", "-"}

// SuggestEdges derives candidate edges from the observed tag vocabulary:
//
//  1. Shared literal prefixes split on a delimiter. "genre:pop" suggests
//     "genre" → "genre:pop" when a "genre" tag exists.
//  2. Strict containment of one tag's name inside another's. "rock" inside
//     "indie rock" suggests "rock" → "indie rock".
//
// Existing edges are filtered out. Results are sorted for stable output.
func SuggestEdges(tags []string, existing *Graph) []EdgeSuggestion {
	present := make(map[string]bool, len(tags))
	for _, t := range tags {
		present[t] = true
	}

	seen := make(map[string]bool)
	var out []EdgeSuggestion

	add := func(parent, child, reason string) {
		if parent == child {
			return
		}
		key := parent + "\x00" + child
		if seen[key] {
			return
		}
		if existing != nil && existing.HasEdge(parent, child) {
			return
		}
		seen[key] = true
		out = append(out, EdgeSuggestion{Parent: parent, Child: child, Reason: reason})
	}

	for _, t := range tags {
		for _, delim := range prefixDelimiters {
			idx := strings.Index(t, delim)
			if idx <= 0 {
				continue
			}
			prefix := t[:idx]
			if present[prefix] {
				add(prefix, t, "shared prefix "+prefix+delim)
			}
		}
	}

	for _, a := range tags {
		if a == "" {
			continue
		}
		for _, b := range tags {
			if a == b || len(a) >= len(b) {
				continue
			}
			if strings.Contains(b, a) {
				add(a, b, "name containment")
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Parent != out[j].Parent {
			return out[i].Parent < out[j].Parent
		}
		return out[i].Child < out[j].Child
	})
	return out
}
