package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
)

func TestTagService_CreateWithWarnings(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	result, err := e.tags.Create(ctx, "Slow Burn")
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "Slow Burn", result.Tag.Name)
	assert.NotEmpty(t, result.Warnings, "cased names warn but still create")

	again, err := e.tags.Create(ctx, "Slow Burn")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, result.Tag.ID, again.Tag.ID)
}

func TestTagService_CreateEmptyName(t *testing.T) {
	e := setupEnv(t)

	_, err := e.tags.Create(context.Background(), "")
	require.ErrorIs(t, err, errors.ErrValidation)
}

func TestTagService_Rename(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	created, err := e.tags.Create(ctx, "scifi")
	require.NoError(t, err)
	_, err = e.tags.RecordUsage(ctx, []string{"scifi", "space"}, time.Now())
	require.NoError(t, err)

	renamed, err := e.tags.Rename(ctx, "scifi", "science fiction", "alice")
	require.NoError(t, err)
	assert.Equal(t, created.Tag.ID, renamed.ID)
	assert.Equal(t, "science fiction", renamed.Name)

	_, err = e.tags.Get(ctx, "scifi")
	require.ErrorIs(t, err, errors.ErrNotFound)

	history, err := e.versions.History(ctx, "science fiction")
	require.NoError(t, err)
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	require.NotEmpty(t, last.Changes)
	assert.Equal(t, domain.ChangeRename, last.Changes[0].Type)
	require.NotNil(t, last.Changes[0].Rename)
	assert.Equal(t, "scifi", last.Changes[0].Rename.OldValue)
	assert.Equal(t, "science fiction", last.Changes[0].Rename.NewValue)

	// Usage history follows the rename.
	usage, err := e.store.ListUsage(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Contains(t, usage[0].Tags, "science fiction")
	assert.NotContains(t, usage[0].Tags, "scifi")
}

func TestTagService_RenameKeepsID(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	created, err := e.tags.Create(ctx, "scifi")
	require.NoError(t, err)

	renamed, err := e.tags.Rename(ctx, "scifi", "sf", "alice")
	require.NoError(t, err)
	assert.Equal(t, created.Tag.ID, renamed.ID)
}

func TestTagService_RenameGoverned(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	_, err := e.tags.Create(ctx, "scifi")
	require.NoError(t, err)

	// Alice bootstraps governance; Bob only gets viewer.
	require.NoError(t, e.perms.Grant(ctx, &domain.TagPermission{Tag: "scifi", UserID: "alice", Role: domain.RoleAdmin}, "alice"))
	require.NoError(t, e.perms.Grant(ctx, &domain.TagPermission{Tag: "scifi", UserID: "bob", Role: domain.RoleViewer}, "alice"))

	_, err = e.tags.Rename(ctx, "scifi", "sf", "bob")
	require.ErrorIs(t, err, errors.ErrForbidden)

	_, err = e.tags.Rename(ctx, "scifi", "sf", "alice")
	require.NoError(t, err)
}

func TestTagService_Merge(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	for _, name := range []string{"sci-fi", "scifi", "science fiction"} {
		_, err := e.tags.Create(ctx, name)
		require.NoError(t, err)
	}
	_, err := e.tags.RecordUsage(ctx, []string{"sci-fi", "space"}, time.Now())
	require.NoError(t, err)

	target, err := e.tags.Merge(ctx, []string{"sci-fi", "scifi"}, "science fiction", "alice")
	require.NoError(t, err)
	assert.Equal(t, "science fiction", target.Name)

	// Sources are gone; their names now resolve through aliases.
	for _, name := range []string{"sci-fi", "scifi"} {
		resolved, err := e.tags.Get(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "science fiction", resolved.Name)
	}

	// Usage history was rewritten to the target.
	usage, err := e.store.ListUsage(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Contains(t, usage[0].Tags, "science fiction")
	assert.NotContains(t, usage[0].Tags, "sci-fi")

	history, err := e.versions.History(ctx, "science fiction")
	require.NoError(t, err)
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.Equal(t, domain.ChangeMerge, last.Changes[0].Type)
	require.NotNil(t, last.Changes[0].Merge)
	assert.ElementsMatch(t, []string{"sci-fi", "scifi"}, last.Changes[0].Merge.Sources)
}

func TestTagService_SplitIsAdvisory(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	_, err := e.tags.Create(ctx, "speculative")
	require.NoError(t, err)

	require.NoError(t, e.tags.Split(ctx, "speculative", []string{"scifi", "fantasy"}, "alice"))

	// Source survives; targets exist now.
	_, err = e.tags.Get(ctx, "speculative")
	require.NoError(t, err)
	for _, name := range []string{"scifi", "fantasy"} {
		_, err := e.tags.Get(ctx, name)
		require.NoError(t, err)
	}

	history, err := e.versions.History(ctx, "speculative")
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, domain.ChangeSplit, history[len(history)-1].Changes[0].Type)
}

func TestTagService_SplitNeedsTwoTargets(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	_, err := e.tags.Create(ctx, "speculative")
	require.NoError(t, err)

	err = e.tags.Split(ctx, "speculative", []string{"scifi"}, "alice")
	require.ErrorIs(t, err, errors.ErrValidation)
}

func TestTagService_AddAlias(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	_, err := e.tags.Create(ctx, "science fiction")
	require.NoError(t, err)

	alias, err := e.tags.AddAlias(ctx, "sf", "science fiction", "alice")
	require.NoError(t, err)
	assert.Equal(t, "sf", alias.Alias)

	resolved, err := e.tags.Get(ctx, "sf")
	require.NoError(t, err)
	assert.Equal(t, "science fiction", resolved.Name)
}

func TestTagService_AddAliasRejectsExistingTagName(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	for _, name := range []string{"science fiction", "sf"} {
		_, err := e.tags.Create(ctx, name)
		require.NoError(t, err)
	}

	_, err := e.tags.AddAlias(ctx, "sf", "science fiction", "alice")
	require.Error(t, err)
}

func TestTagService_DeleteRequiresAdmin(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	_, err := e.tags.Create(ctx, "scifi")
	require.NoError(t, err)
	require.NoError(t, e.perms.Grant(ctx, &domain.TagPermission{Tag: "scifi", UserID: "alice", Role: domain.RoleAdmin}, "alice"))
	require.NoError(t, e.perms.Grant(ctx, &domain.TagPermission{Tag: "scifi", UserID: "bob", Role: domain.RoleEditor}, "alice"))

	err = e.tags.Delete(ctx, "scifi", "bob")
	require.ErrorIs(t, err, errors.ErrForbidden)

	require.NoError(t, e.tags.Delete(ctx, "scifi", "alice"))
	_, err = e.tags.Get(ctx, "scifi")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestTagService_RecordUsageBumpsCounters(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	_, err := e.tags.RecordUsage(ctx, []string{"scifi", "space"}, time.Now())
	require.NoError(t, err)
	_, err = e.tags.RecordUsage(ctx, []string{"scifi"}, time.Now())
	require.NoError(t, err)

	tag, err := e.tags.Get(ctx, "scifi")
	require.NoError(t, err)
	assert.Equal(t, 2, tag.UseCount)

	other, err := e.tags.Get(ctx, "space")
	require.NoError(t, err)
	assert.Equal(t, 1, other.UseCount)
}
