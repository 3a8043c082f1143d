package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/relation"
)

func (s *Server) registerSuggestionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "relatedTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/suggestions/related",
		Summary:     "Related tags",
		Description: "Returns tag pairs whose co-occurrence strength clears the threshold, strongest first",
		Tags:        []string{"Suggestions"},
	}, s.handleRelatedTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/suggestions",
		Summary:     "Suggest tags",
		Description: "Ranks tags to add to a partially selected set, based on usage co-occurrence",
		Tags:        []string{"Suggestions"},
	}, s.handleSuggestTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "tagClusters",
		Method:      http.MethodGet,
		Path:        "/api/v1/suggestions/clusters",
		Summary:     "Tag clusters",
		Description: "Groups tags that habitually appear together",
		Tags:        []string{"Suggestions"},
	}, s.handleTagClusters)

	huma.Register(s.api, huma.Operation{
		OperationID: "similarNames",
		Method:      http.MethodGet,
		Path:        "/api/v1/suggestions/similar-names",
		Summary:     "Similar tag names",
		Description: "Finds tag pairs that are probably the same concept spelled differently",
		Tags:        []string{"Suggestions"},
	}, s.handleSimilarNames)
}

// === DTOs ===

// RelatedTagsInput contains parameters for listing related pairs.
type RelatedTagsInput struct {
	Threshold float64 `query:"threshold" doc:"Minimum association strength (default when omitted)"`
}

// RelatedTagsResponse contains related tag pairs.
type RelatedTagsResponse struct {
	Relations []relation.Relation `json:"relations" doc:"Tag pairs, strongest first"`
}

// RelatedTagsOutput wraps the related tags response for Huma.
type RelatedTagsOutput struct {
	Body RelatedTagsResponse
}

// SuggestTagsInput contains parameters for tag suggestions.
type SuggestTagsInput struct {
	Tags  []string `query:"tags" required:"true" doc:"Currently selected tags"`
	Limit int      `query:"limit" doc:"Maximum suggestions (default 10)"`
}

// SuggestTagsResponse contains ranked suggestions.
type SuggestTagsResponse struct {
	Suggestions []relation.Suggestion `json:"suggestions" doc:"Candidate tags, best first"`
}

// SuggestTagsOutput wraps the suggestions response for Huma.
type SuggestTagsOutput struct {
	Body SuggestTagsResponse
}

// TagClustersInput contains parameters for clustering.
type TagClustersInput struct {
	MinSize int `query:"minSize" doc:"Smallest cluster to report (default 2)"`
	MaxSize int `query:"maxSize" doc:"Largest cluster to report (default 20)"`
}

// TagClustersResponse contains discovered clusters.
type TagClustersResponse struct {
	Clusters []relation.Cluster `json:"clusters" doc:"Groups of mutually related tags"`
}

// TagClustersOutput wraps the clusters response for Huma.
type TagClustersOutput struct {
	Body TagClustersResponse
}

// SimilarNamesResponse contains near-duplicate tag name pairs.
type SimilarNamesResponse struct {
	Pairs []relation.SimilarPair `json:"pairs" doc:"Probable duplicate spellings"`
}

// SimilarNamesOutput wraps the similar names response for Huma.
type SimilarNamesOutput struct {
	Body SimilarNamesResponse
}

// === Handlers ===

func (s *Server) handleRelatedTags(ctx context.Context, input *RelatedTagsInput) (*RelatedTagsOutput, error) {
	relations, err := s.services.Suggestion.Related(ctx, input.Threshold)
	if err != nil {
		return nil, err
	}

	return &RelatedTagsOutput{Body: RelatedTagsResponse{Relations: relations}}, nil
}

func (s *Server) handleSuggestTags(ctx context.Context, input *SuggestTagsInput) (*SuggestTagsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	suggestions, err := s.services.Suggestion.Suggest(ctx, input.Tags, limit)
	if err != nil {
		return nil, err
	}

	return &SuggestTagsOutput{Body: SuggestTagsResponse{Suggestions: suggestions}}, nil
}

func (s *Server) handleTagClusters(ctx context.Context, input *TagClustersInput) (*TagClustersOutput, error) {
	clusters, err := s.services.Suggestion.Clusters(ctx, input.MinSize, input.MaxSize)
	if err != nil {
		return nil, err
	}

	return &TagClustersOutput{Body: TagClustersResponse{Clusters: clusters}}, nil
}

func (s *Server) handleSimilarNames(ctx context.Context, _ *struct{}) (*SimilarNamesOutput, error) {
	pairs, err := s.services.Suggestion.SimilarNames(ctx)
	if err != nil {
		return nil, err
	}

	return &SimilarNamesOutput{Body: SimilarNamesResponse{Pairs: pairs}}, nil
}
