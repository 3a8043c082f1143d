package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
	"github.com/tagwardenapp/tagwarden-server/internal/hierarchy"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
)

// HierarchyService orchestrates the tag hierarchy: edge mutations run the
// cycle check against a fresh graph snapshot before persisting, and every
// accepted mutation lands in the child tag's version history.
type HierarchyService struct {
	store    *store.Store
	versions *VersionService
	perms    *PermissionService
	logger   *slog.Logger
}

// NewHierarchyService creates a new hierarchy service.
func NewHierarchyService(st *store.Store, versions *VersionService, perms *PermissionService, logger *slog.Logger) *HierarchyService {
	return &HierarchyService{
		store:    st,
		versions: versions,
		perms:    perms,
		logger:   logger,
	}
}

// Graph builds an in-memory graph from the persisted edge set.
func (s *HierarchyService) Graph(ctx context.Context) (*hierarchy.Graph, error) {
	edges, err := s.store.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	return hierarchy.NewGraph(edges), nil
}

// AddEdge creates a parent→child edge. Both tags must exist, the actor needs
// edit capability on the child, and the edge must not close a cycle. The
// accepted edge is recorded as a hierarchy change on the child.
func (s *HierarchyService) AddEdge(ctx context.Context, parent, child, actorID string) (*domain.HierarchyEdge, error) {
	if parent == child {
		return nil, errors.Validation("a tag cannot be its own parent")
	}

	for _, name := range []string{parent, child} {
		if _, err := s.store.GetTag(ctx, name); err != nil {
			return nil, errTranslate(err)
		}
	}

	if err := s.perms.requireEdit(ctx, child, actorID); err != nil {
		return nil, err
	}

	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.AddEdge(parent, child); err != nil {
		var cycle *hierarchy.CycleError
		if errors.As(err, &cycle) {
			return nil, errors.ValidationWithDetails("edge would create a cycle", cycle.Path)
		}
		var dup *hierarchy.DuplicateEdgeError
		if errors.As(err, &dup) {
			return nil, errors.AlreadyExistsf("edge %s → %s already exists", parent, child)
		}
		return nil, err
	}

	edge := &domain.HierarchyEdge{
		Parent:    parent,
		Child:     child,
		CreatedBy: actorID,
		CreatedAt: time.Now(),
	}
	if err := s.store.AddEdge(ctx, edge); err != nil {
		return nil, errTranslate(err)
	}

	change := domain.TagChange{
		Type:        domain.ChangeHierarchy,
		Description: "parented " + child + " under " + parent,
		Timestamp:   time.Now(),
		Author:      actorID,
		Hierarchy:   &domain.HierarchyDetails{NewParent: parent},
	}
	if _, err := s.versions.Record(ctx, child, change); err != nil {
		return nil, err
	}

	s.logger.Info("hierarchy edge added", "parent", parent, "child", child, "actor", actorID)
	return edge, nil
}

// RemoveEdge deletes a parent→child edge and records the detachment on the
// child. Removing an absent edge is a no-op with no version entry.
func (s *HierarchyService) RemoveEdge(ctx context.Context, parent, child, actorID string) error {
	if err := s.perms.requireEdit(ctx, child, actorID); err != nil {
		return err
	}

	g, err := s.Graph(ctx)
	if err != nil {
		return err
	}
	if !g.HasEdge(parent, child) {
		return nil
	}

	if err := s.store.RemoveEdge(ctx, parent, child); err != nil {
		return err
	}

	change := domain.TagChange{
		Type:        domain.ChangeHierarchy,
		Description: "detached " + child + " from " + parent,
		Timestamp:   time.Now(),
		Author:      actorID,
		Hierarchy:   &domain.HierarchyDetails{OldParent: parent},
	}
	if _, err := s.versions.Record(ctx, child, change); err != nil {
		return err
	}

	s.logger.Info("hierarchy edge removed", "parent", parent, "child", child, "actor", actorID)
	return nil
}

// Ancestors returns every tag above the named one.
func (s *HierarchyService) Ancestors(ctx context.Context, tag string) ([]string, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return g.Ancestors(tag), nil
}

// Descendants returns every tag below the named one.
func (s *HierarchyService) Descendants(ctx context.Context, tag string) ([]string, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return g.Descendants(tag), nil
}

// Path returns the root path for a tag.
func (s *HierarchyService) Path(ctx context.Context, tag string) ([]string, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return g.Path(tag), nil
}

// Validate reports every structural violation in the current taxonomy:
// cycles, orphans, and duplicate names.
func (s *HierarchyService) Validate(ctx context.Context) ([]hierarchy.Violation, error) {
	edges, err := s.store.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	tagPtrs, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	tags := make([]domain.Tag, len(tagPtrs))
	for i, t := range tagPtrs {
		tags[i] = *t
	}
	return hierarchy.Validate(tags, edges), nil
}

// SuggestEdges proposes parent-child edges from naming patterns. Suggestions
// are advisory; nothing is persisted.
func (s *HierarchyService) SuggestEdges(ctx context.Context) ([]hierarchy.EdgeSuggestion, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	tagPtrs, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tagPtrs))
	for i, t := range tagPtrs {
		names[i] = t.Name
	}
	return hierarchy.SuggestEdges(names, g), nil
}
