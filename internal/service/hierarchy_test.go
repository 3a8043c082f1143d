package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
	"github.com/tagwardenapp/tagwarden-server/internal/hierarchy"
)

func createTags(t *testing.T, e *env, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := e.tags.Create(context.Background(), name)
		require.NoError(t, err)
	}
}

func TestHierarchyService_AddEdge(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	createTags(t, e, "fiction", "scifi")

	edge, err := e.hierarchy.AddEdge(ctx, "fiction", "scifi", "alice")
	require.NoError(t, err)
	assert.Equal(t, "fiction", edge.Parent)
	assert.Equal(t, "alice", edge.CreatedBy)

	// The accepted edge lands in the child's history.
	history, err := e.versions.History(ctx, "scifi")
	require.NoError(t, err)
	require.NotEmpty(t, history)
	change := history[len(history)-1].Changes[0]
	assert.Equal(t, domain.ChangeHierarchy, change.Type)
	require.NotNil(t, change.Hierarchy)
	assert.Equal(t, "fiction", change.Hierarchy.NewParent)
}

func TestHierarchyService_AddEdgeRejectsCycle(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	createTags(t, e, "a", "b", "c")

	_, err := e.hierarchy.AddEdge(ctx, "a", "b", "alice")
	require.NoError(t, err)
	_, err = e.hierarchy.AddEdge(ctx, "b", "c", "alice")
	require.NoError(t, err)

	_, err = e.hierarchy.AddEdge(ctx, "c", "a", "alice")
	require.ErrorIs(t, err, errors.ErrValidation)

	var coded *errors.Error
	require.ErrorAs(t, err, &coded)
	assert.NotNil(t, coded.Details, "cycle error carries the offending path")
}

func TestHierarchyService_AddEdgeRejectsSelfParent(t *testing.T) {
	e := setupEnv(t)
	createTags(t, e, "a")

	_, err := e.hierarchy.AddEdge(context.Background(), "a", "a", "alice")
	require.ErrorIs(t, err, errors.ErrValidation)
}

func TestHierarchyService_AddEdgeRejectsUnknownTag(t *testing.T) {
	e := setupEnv(t)
	createTags(t, e, "fiction")

	_, err := e.hierarchy.AddEdge(context.Background(), "fiction", "ghost", "alice")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestHierarchyService_AddEdgeRejectsDuplicate(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	createTags(t, e, "fiction", "scifi")

	_, err := e.hierarchy.AddEdge(ctx, "fiction", "scifi", "alice")
	require.NoError(t, err)
	_, err = e.hierarchy.AddEdge(ctx, "fiction", "scifi", "alice")
	require.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestHierarchyService_RemoveEdge(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	createTags(t, e, "fiction", "scifi")

	_, err := e.hierarchy.AddEdge(ctx, "fiction", "scifi", "alice")
	require.NoError(t, err)
	require.NoError(t, e.hierarchy.RemoveEdge(ctx, "fiction", "scifi", "alice"))

	g, err := e.hierarchy.Graph(ctx)
	require.NoError(t, err)
	assert.False(t, g.HasEdge("fiction", "scifi"))

	// Detachment is its own history entry.
	history, err := e.versions.History(ctx, "scifi")
	require.NoError(t, err)
	require.Len(t, history, 2)
	change := history[1].Changes[0]
	require.NotNil(t, change.Hierarchy)
	assert.Equal(t, "fiction", change.Hierarchy.OldParent)
}

func TestHierarchyService_RemoveAbsentEdgeIsNoop(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	createTags(t, e, "fiction", "scifi")

	require.NoError(t, e.hierarchy.RemoveEdge(ctx, "fiction", "scifi", "alice"))

	history, err := e.versions.History(ctx, "scifi")
	require.NoError(t, err)
	assert.Empty(t, history, "no-op removal records nothing")
}

func TestHierarchyService_Traversal(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	createTags(t, e, "fiction", "scifi", "cyberpunk")

	_, err := e.hierarchy.AddEdge(ctx, "fiction", "scifi", "alice")
	require.NoError(t, err)
	_, err = e.hierarchy.AddEdge(ctx, "scifi", "cyberpunk", "alice")
	require.NoError(t, err)

	ancestors, err := e.hierarchy.Ancestors(ctx, "cyberpunk")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"scifi", "fiction"}, ancestors)

	descendants, err := e.hierarchy.Descendants(ctx, "fiction")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"scifi", "cyberpunk"}, descendants)

	path, err := e.hierarchy.Path(ctx, "cyberpunk")
	require.NoError(t, err)
	assert.Equal(t, []string{"fiction", "scifi", "cyberpunk"}, path)
}

func TestHierarchyService_ValidateReportsCorruption(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	createTags(t, e, "fiction", "ghost", "island")

	// The service refuses cycles, so seed one at the store layer the way a
	// corrupt dataset would look.
	require.NoError(t, e.store.AddEdge(ctx, &domain.HierarchyEdge{Parent: "ghost", Child: "island"}))
	require.NoError(t, e.store.AddEdge(ctx, &domain.HierarchyEdge{Parent: "island", Child: "ghost"}))

	violations, err := e.hierarchy.Validate(ctx)
	require.NoError(t, err)

	byType := make(map[hierarchy.ViolationType][]string)
	for _, v := range violations {
		byType[v.Type] = append(byType[v.Type], v.Tags...)
	}
	assert.NotEmpty(t, byType[hierarchy.ViolationCycle])
	assert.ElementsMatch(t, []string{"ghost", "island"}, byType[hierarchy.ViolationOrphan])
}

func TestHierarchyService_SuggestEdges(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	createTags(t, e, "rock", "rock/metal", "rock/punk")

	suggestions, err := e.hierarchy.SuggestEdges(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)

	var found bool
	for _, s := range suggestions {
		if s.Parent == "rock" && s.Child == "rock/metal" {
			found = true
		}
	}
	assert.True(t, found)
}
