package service_test

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tagwardenapp/tagwarden-server/internal/service"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
)

// env bundles the full service stack over a throwaway store. The search
// index is nil; typeahead behavior is covered in the search package.
type env struct {
	store       *store.Store
	tags        *service.TagService
	versions    *service.VersionService
	perms       *service.PermissionService
	hierarchy   *service.HierarchyService
	constraints *service.ConstraintService
	suggest     *service.SuggestionService
	transfer    *service.TransferService
}

func setupEnv(t *testing.T) *env {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	logger := slog.New(slog.DiscardHandler)
	perms := service.NewPermissionService(st, logger)
	versions := service.NewVersionService(st, perms, logger)

	return &env{
		store:       st,
		tags:        service.NewTagService(st, versions, perms, nil, logger),
		versions:    versions,
		perms:       perms,
		hierarchy:   service.NewHierarchyService(st, versions, perms, logger),
		constraints: service.NewConstraintService(st, nil, logger),
		suggest:     service.NewSuggestionService(st, logger),
		transfer:    service.NewTransferService(st, perms, logger),
	}
}
