package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(dbPath, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func mustCreateTag(t *testing.T, s *store.Store, name string) *domain.Tag {
	t.Helper()

	tag, created, err := s.FindOrCreateTag(context.Background(), name)
	require.NoError(t, err)
	require.True(t, created)
	return tag
}

func TestStore_TemplateEntity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tpl := &domain.PermissionTemplate{
		ID:   "tpl-1",
		Name: "Genre Moderators",
		Roles: []domain.TemplateRole{
			{UserID: "u1", Role: domain.RoleAdmin},
			{UserID: "u2", Role: domain.RoleEditor},
		},
		CreatorID: "u1",
		CreatedAt: time.Now(),
	}

	require.NoError(t, s.Templates.Create(ctx, tpl.ID, tpl))

	got, err := s.Templates.Get(ctx, "tpl-1")
	require.NoError(t, err)
	require.Equal(t, "Genre Moderators", got.Name)
	require.Len(t, got.Roles, 2)

	// Name lookup is case-insensitive.
	byName, err := s.Templates.GetByIndex(ctx, "name", "genre moderators")
	require.NoError(t, err)
	require.Equal(t, tpl.ID, byName.ID)

	// Duplicate name is a conflict.
	dup := &domain.PermissionTemplate{ID: "tpl-2", Name: "genre moderators"}
	err = s.Templates.Create(ctx, dup.ID, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestStore_AliasEntity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := &domain.TagAlias{ID: "al-1", Alias: "sci-fi", Canonical: "science fiction", CreatedAt: time.Now()}
	require.NoError(t, s.Aliases.Create(ctx, a.ID, a))

	got, err := s.Aliases.GetByIndex(ctx, "alias", "sci-fi")
	require.NoError(t, err)
	require.Equal(t, "science fiction", got.Canonical)

	_, err = s.Aliases.GetByIndex(ctx, "alias", "unknown")
	require.ErrorIs(t, err, store.ErrNotFound)
}
