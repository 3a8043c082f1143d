package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
)

func TestStore_CreateAndGetTag(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created := mustCreateTag(t, s, "science fiction")
	require.NotEmpty(t, created.ID)

	got, err := s.GetTag(ctx, "science fiction")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Zero(t, got.UseCount)

	byID, err := s.GetTagByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "science fiction", byID.Name)
}

func TestStore_TagNameIsCaseSensitive(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	mustCreateTag(t, s, "Jazz")

	_, err := s.GetTag(ctx, "jazz")
	require.ErrorIs(t, err, store.ErrTagNotFound)

	// Different casing is a distinct tag, not a conflict.
	_, created, err := s.FindOrCreateTag(ctx, "jazz")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestStore_FindOrCreateTag_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := mustCreateTag(t, s, "rock")

	second, created, err := s.FindOrCreateTag(ctx, "rock")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestStore_RenameTag(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	original := mustCreateTag(t, s, "scifi")

	renamed, err := s.RenameTag(ctx, "scifi", "science fiction")
	require.NoError(t, err)
	assert.Equal(t, original.ID, renamed.ID, "rename keeps the record identity")
	assert.Equal(t, "science fiction", renamed.Name)

	_, err = s.GetTag(ctx, "scifi")
	require.ErrorIs(t, err, store.ErrTagNotFound)

	got, err := s.GetTag(ctx, "science fiction")
	require.NoError(t, err)
	assert.Equal(t, original.ID, got.ID)
}

func TestStore_RenameTag_TargetTaken(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	mustCreateTag(t, s, "pop")
	mustCreateTag(t, s, "rock")

	_, err := s.RenameTag(ctx, "pop", "rock")
	require.ErrorIs(t, err, store.ErrTagExists)

	// Both originals are untouched.
	_, err = s.GetTag(ctx, "pop")
	require.NoError(t, err)
	_, err = s.GetTag(ctx, "rock")
	require.NoError(t, err)
}

func TestStore_DeleteTag(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	mustCreateTag(t, s, "ephemeral")
	require.NoError(t, s.DeleteTag(ctx, "ephemeral"))

	_, err := s.GetTag(ctx, "ephemeral")
	require.ErrorIs(t, err, store.ErrTagNotFound)

	err = s.DeleteTag(ctx, "ephemeral")
	require.ErrorIs(t, err, store.ErrTagNotFound)
}

func TestStore_ListTags_OrderedByUseCount(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	mustCreateTag(t, s, "quiet")
	mustCreateTag(t, s, "busy")
	mustCreateTag(t, s, "also-quiet")

	now := time.Now()
	require.NoError(t, s.AppendUsage(ctx, &domain.TagUsage{Tags: []string{"busy"}, Timestamp: now}))
	require.NoError(t, s.AppendUsage(ctx, &domain.TagUsage{Tags: []string{"busy"}, Timestamp: now}))

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "busy", tags[0].Name)
	// Ties break alphabetically.
	assert.Equal(t, "also-quiet", tags[1].Name)
	assert.Equal(t, "quiet", tags[2].Name)
}

func TestStore_AppendUsage_UpdatesCounters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	mustCreateTag(t, s, "pop")

	early := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendUsage(ctx, &domain.TagUsage{Tags: []string{"pop"}, Timestamp: late}))
	require.NoError(t, s.AppendUsage(ctx, &domain.TagUsage{Tags: []string{"pop"}, Timestamp: early}))

	got, err := s.GetTag(ctx, "pop")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UseCount)
	assert.True(t, got.FirstUsed.Equal(early), "first use tracks the earliest timestamp seen")
	assert.True(t, got.LastUsed.Equal(late))
}

func TestStore_AppendUsage_UnknownTagFailsWholeWrite(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	mustCreateTag(t, s, "known")

	err := s.AppendUsage(ctx, &domain.TagUsage{Tags: []string{"known", "missing"}, Timestamp: time.Now()})
	require.ErrorIs(t, err, store.ErrTagNotFound)

	// The known tag's counter did not move.
	got, err := s.GetTag(ctx, "known")
	require.NoError(t, err)
	assert.Zero(t, got.UseCount)

	records, err := s.ListUsage(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_RenameInUsage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	mustCreateTag(t, s, "scifi")
	mustCreateTag(t, s, "space")
	require.NoError(t, s.AppendUsage(ctx, &domain.TagUsage{Tags: []string{"scifi", "space"}, Timestamp: time.Now()}))

	require.NoError(t, s.RenameInUsage(ctx, "scifi", "science fiction"))

	records, err := s.ListUsage(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.ElementsMatch(t, []string{"science fiction", "space"}, records[0].Tags)
}
