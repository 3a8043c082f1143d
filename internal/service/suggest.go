package service

import (
	"context"
	"log/slog"

	"github.com/tagwardenapp/tagwarden-server/internal/relation"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
)

// defaultStrengthThreshold drops relations too weak to be worth showing.
const defaultStrengthThreshold = 0.1

// SuggestionService derives tag relationships from usage history: related
// tags, completion suggestions, clusters, and near-duplicate spellings. The
// analyzer is rebuilt per request from the current history; it is cheap
// relative to request latency at taxonomy scale.
type SuggestionService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSuggestionService creates a new suggestion service.
func NewSuggestionService(st *store.Store, logger *slog.Logger) *SuggestionService {
	return &SuggestionService{
		store:  st,
		logger: logger,
	}
}

// analyzer builds a co-occurrence analyzer from the full usage history.
func (s *SuggestionService) analyzer(ctx context.Context) (*relation.Analyzer, error) {
	history, err := s.store.ListUsage(ctx)
	if err != nil {
		return nil, err
	}
	return relation.NewAnalyzer(history), nil
}

// Related returns every tag pair whose association strength clears the
// threshold, strongest first. threshold <= 0 uses the default.
func (s *SuggestionService) Related(ctx context.Context, threshold float64) ([]relation.Relation, error) {
	a, err := s.analyzer(ctx)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = defaultStrengthThreshold
	}
	return a.Relations(threshold), nil
}

// Suggest ranks tags to add to a partially selected set.
func (s *SuggestionService) Suggest(ctx context.Context, selected []string, limit int) ([]relation.Suggestion, error) {
	a, err := s.analyzer(ctx)
	if err != nil {
		return nil, err
	}
	return a.SuggestTags(selected, defaultStrengthThreshold, limit), nil
}

// Clusters groups tags that habitually travel together.
func (s *SuggestionService) Clusters(ctx context.Context, minSize, maxSize int) ([]relation.Cluster, error) {
	a, err := s.analyzer(ctx)
	if err != nil {
		return nil, err
	}
	if minSize <= 0 {
		minSize = 2
	}
	if maxSize <= 0 {
		maxSize = 20
	}
	return a.FindClusters(defaultStrengthThreshold, minSize, maxSize), nil
}

// SimilarNames finds tag pairs that are probably the same concept spelled
// differently, candidates for merging or aliasing.
func (s *SuggestionService) SimilarNames(ctx context.Context) ([]relation.SimilarPair, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return relation.FindSimilar(names, relation.DefaultSimilarityThreshold), nil
}
