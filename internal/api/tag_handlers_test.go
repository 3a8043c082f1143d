package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwardenapp/tagwarden-server/internal/service"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
)

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer builds a server over a throwaway store. The search index
// is nil; typeahead behavior is covered in the search package.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	logger := slog.New(slog.DiscardHandler)

	perms := service.NewPermissionService(st, logger)
	versions := service.NewVersionService(st, perms, logger)

	services := &Services{
		Tag:        service.NewTagService(st, versions, perms, nil, logger),
		Version:    versions,
		Permission: perms,
		Hierarchy:  service.NewHierarchyService(st, versions, perms, logger),
		Constraint: service.NewConstraintService(st, nil, logger),
		Suggestion: service.NewSuggestionService(st, logger),
	}
	services.Transfer = service.NewTransferService(st, perms, logger)

	router := chi.NewRouter()

	api := humachi.New(router, newHumaConfig("TagWarden API Test"))
	RegisterErrorHandler()

	s := &Server{
		store:            st,
		services:         services,
		router:           router,
		api:              api,
		logger:           logger,
		writeRateLimiter: NewRateLimiter(1000, time.Minute, 1000),
	}

	s.registerHealthRoutes()
	s.registerTagRoutes()
	s.registerHierarchyRoutes()
	s.registerVersionRoutes()
	s.registerPermissionRoutes()
	s.registerConstraintRoutes()
	s.registerSuggestionRoutes()
	s.registerTransferRoutes()

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, api),
	}
}

// createTag creates a tag through the API and fails the test on error.
func (ts *testServer) createTag(t *testing.T, name string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": name})
	require.Equal(t, http.StatusOK, resp.Code, "create %q failed: %s", name, resp.Body.String())
}

func TestCreateAndGetTag(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": "fiction"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var created CreateTagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.True(t, created.Created)
	assert.Equal(t, "fiction", created.Tag.Name)
	assert.NotEmpty(t, created.Tag.ID)

	// Creating again resolves to the same tag.
	resp = ts.api.Post("/api/v1/tags", map[string]any{"name": "fiction"})
	require.Equal(t, http.StatusOK, resp.Code)

	var again CreateTagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &again))
	assert.False(t, again.Created)
	assert.Equal(t, created.Tag.ID, again.Tag.ID)

	resp = ts.api.Get("/api/v1/tags/fiction")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/tags/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateTag_EmptyName(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestListTags(t *testing.T) {
	ts := setupTestServer(t)

	ts.createTag(t, "fiction")
	ts.createTag(t, "scifi")

	resp := ts.api.Get("/api/v1/tags")
	require.Equal(t, http.StatusOK, resp.Code)

	var list ListTagsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Len(t, list.Tags, 2)
}

func TestRenameTag(t *testing.T) {
	ts := setupTestServer(t)
	ts.createTag(t, "scifi")

	// Mutations need an actor.
	resp := ts.api.Post("/api/v1/tags/scifi/rename", map[string]any{"new_name": "science fiction"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/tags/scifi/rename",
		"X-Actor-ID: alice",
		map[string]any{"new_name": "science fiction"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var renamed TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &renamed))
	assert.Equal(t, "science fiction", renamed.Name)

	resp = ts.api.Get("/api/v1/tags/scifi")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMergeTags(t *testing.T) {
	ts := setupTestServer(t)
	ts.createTag(t, "sci-fi")
	ts.createTag(t, "scifi")

	resp := ts.api.Post("/api/v1/tags/merge",
		"X-Actor-ID: alice",
		map[string]any{"sources": []string{"sci-fi"}, "target": "scifi"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// The source now resolves to the target through an alias.
	resp = ts.api.Get("/api/v1/tags/sci-fi")
	require.Equal(t, http.StatusOK, resp.Code)

	var resolved TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &resolved))
	assert.Equal(t, "scifi", resolved.Name)
}

func TestDeleteTag(t *testing.T) {
	ts := setupTestServer(t)
	ts.createTag(t, "temp")

	resp := ts.api.Delete("/api/v1/tags/temp")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Delete("/api/v1/tags/temp", "X-Actor-ID: alice")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/tags/temp")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateAlias(t *testing.T) {
	ts := setupTestServer(t)
	ts.createTag(t, "science fiction")

	resp := ts.api.Post("/api/v1/aliases",
		"X-Actor-ID: alice",
		map[string]any{"alias": "sf", "canonical": "science fiction"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// The alias resolves to the canonical tag.
	resp = ts.api.Get("/api/v1/tags/sf")
	require.Equal(t, http.StatusOK, resp.Code)

	var resolved TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &resolved))
	assert.Equal(t, "science fiction", resolved.Name)
}

func TestRecordUsage(t *testing.T) {
	ts := setupTestServer(t)
	ts.createTag(t, "fiction")
	ts.createTag(t, "scifi")

	resp := ts.api.Post("/api/v1/usage", map[string]any{"tags": []string{"fiction", "scifi"}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/tags/fiction")
	require.Equal(t, http.StatusOK, resp.Code)

	var tag TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tag))
	assert.Equal(t, 1, tag.UseCount)
}

func TestHierarchyEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	ts.createTag(t, "fiction")
	ts.createTag(t, "scifi")

	resp := ts.api.Post("/api/v1/hierarchy/edges",
		"X-Actor-ID: alice",
		map[string]any{"parent": "fiction", "child": "scifi"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/tags/scifi/ancestors")
	require.Equal(t, http.StatusOK, resp.Code)

	var ancestors TagListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &ancestors))
	assert.Equal(t, []string{"fiction"}, ancestors.Tags)

	resp = ts.api.Get("/api/v1/tags/scifi/path")
	require.Equal(t, http.StatusOK, resp.Code)

	var path TagListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &path))
	assert.Equal(t, []string{"fiction", "scifi"}, path.Tags)

	// A cycle is rejected.
	resp = ts.api.Post("/api/v1/hierarchy/edges",
		"X-Actor-ID: alice",
		map[string]any{"parent": "scifi", "child": "fiction"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/api/v1/hierarchy/validate")
	require.Equal(t, http.StatusOK, resp.Code)

	var validation HierarchyValidationResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &validation))
	assert.True(t, validation.Valid)
}

func TestVersionEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	ts.createTag(t, "scifi")

	resp := ts.api.Post("/api/v1/tags/scifi/rename",
		"X-Actor-ID: alice",
		map[string]any{"new_name": "science fiction"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/tags/science%20fiction/versions")
	require.Equal(t, http.StatusOK, resp.Code)

	var history TagHistoryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &history))
	require.Len(t, history.Versions, 1)
	assert.Equal(t, 1, history.Versions[0].Version)

	resp = ts.api.Post("/api/v1/tags/science%20fiction/revert",
		"X-Actor-ID: alice",
		map[string]any{"to_version": 1})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/versions/validate")
	require.Equal(t, http.StatusOK, resp.Code)

	var validation HistoryValidationResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &validation))
	assert.True(t, validation.Valid)
}

func TestConstraintEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	ts.createTag(t, "enemies to lovers")
	ts.createTag(t, "friends to lovers")

	resp := ts.api.Post("/api/v1/rules",
		"X-Actor-ID: alice",
		map[string]any{
			"type": "exclusive_with",
			"tags": []string{"enemies to lovers", "friends to lovers"},
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/rules/validate", map[string]any{
		"tags": []string{"enemies to lovers", "friends to lovers"},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var result struct {
		Valid      bool `json:"valid"`
		Violations []struct {
			RuleType string `json:"rule_type"`
		} `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.False(t, result.Valid)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "exclusive_with", result.Violations[0].RuleType)
}

func TestExportImportTags(t *testing.T) {
	ts := setupTestServer(t)
	ts.createTag(t, "fiction")
	ts.createTag(t, "scifi")

	resp := ts.api.Get("/api/v1/export/tags?format=plain")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "fiction")
	assert.Contains(t, resp.Body.String(), "scifi")

	resp = ts.api.Post("/api/v1/import/tags?format=plain", "Content-Type: text/plain",
		strings.NewReader("fiction\nfantasy\n"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var report service.ImportReport
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Existing)

	resp = ts.api.Get("/api/v1/export/tags?format=nope")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &health))

	// Search index is nil in tests, so overall is degraded but the
	// database component is healthy.
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
}
