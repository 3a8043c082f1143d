package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a typeahead query.
type Params struct {
	Query     string // User's partial input
	Limit     int
	Offset    int
	Highlight bool // Include match highlighting
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:     20,
		Offset:    0,
		Highlight: true,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matched tag.
type Hit struct {
	Name       string            `json:"name"`
	Score      float64           `json:"score"`
	UseCount   int               `json:"use_count"`
	Aliases    []string          `json:"aliases,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a typeahead query over tag names and aliases.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
		searchRequest.Highlight.AddField("aliases")
	}

	searchRequest.Fields = []string{"name", "aliases", "use_count"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{Score: hit.Score}

		if n, ok := hit.Fields["name"].(string); ok {
			h.Name = n
		}
		if uc, ok := hit.Fields["use_count"].(float64); ok {
			h.UseCount = int(uc)
		}
		switch a := hit.Fields["aliases"].(type) {
		case string:
			h.Aliases = []string{a}
		case []any:
			for _, v := range a {
				if s, ok := v.(string); ok {
					h.Aliases = append(h.Aliases, s)
				}
			}
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
//
// Prefix matching carries the most weight: typeahead input is almost always
// the start of the tag being looked for. Whole-word and fuzzy matches back it
// up, and alias matches rank below direct name matches.
func buildSearchQuery(params Params) query.Query {
	if params.Query == "" {
		return bleve.NewMatchAllQuery()
	}

	textQueries := []query.Query{}

	prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
	prefixQuery.SetField("name")
	prefixQuery.SetBoost(3.0)
	textQueries = append(textQueries, prefixQuery)

	nameMatch := bleve.NewMatchQuery(params.Query)
	nameMatch.SetField("name")
	nameMatch.SetBoost(2.0)
	textQueries = append(textQueries, nameMatch)

	fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
	fuzzyQuery.SetFuzziness(1)
	fuzzyQuery.SetField("name")
	fuzzyQuery.SetBoost(0.8)
	textQueries = append(textQueries, fuzzyQuery)

	aliasPrefix := bleve.NewPrefixQuery(strings.ToLower(params.Query))
	aliasPrefix.SetField("aliases")
	aliasPrefix.SetBoost(1.0)
	textQueries = append(textQueries, aliasPrefix)

	aliasMatch := bleve.NewMatchQuery(params.Query)
	aliasMatch.SetField("aliases")
	aliasMatch.SetBoost(0.7)
	textQueries = append(textQueries, aliasMatch)

	return bleve.NewDisjunctionQuery(textQueries...)
}
