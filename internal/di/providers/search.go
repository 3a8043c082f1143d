package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/config"
	"github.com/tagwardenapp/tagwarden-server/internal/logger"
	"github.com/tagwardenapp/tagwarden-server/internal/search"
	"github.com/tagwardenapp/tagwarden-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve typeahead index. The store pushes
// tag and alias changes into it via the TagIndexer hook.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	// Wire to store for automatic indexing on tag writes.
	storeHandle.SetTagIndexer(index)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the typeahead index when it is empty
// but the store already holds tags, e.g. after the index directory was
// deleted. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	tagService := do.MustInvoke[*service.TagService](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	tags, err := storeHandle.ListTags(ctx)
	if err != nil || len(tags) == 0 {
		return
	}

	log.Info("Search index is empty but tags exist, triggering initial reindex",
		"tag_count", len(tags),
	)

	go func() {
		if err := tagService.ReindexAll(context.Background()); err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		count, _ := indexHandle.DocumentCount()
		log.Info("Initial search reindex completed", "documents", count)
	}()
}
