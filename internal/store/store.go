package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// TagIndexer is the interface for keeping the typeahead search index in sync
// with tag mutations. Store calls it after commits; index failures are logged
// and never fail the write.
type TagIndexer interface {
	IndexTag(ctx context.Context, tag *domain.Tag, aliases []string) error
	DeleteTag(ctx context.Context, name string) error
}

// NoopTagIndexer is a no-op implementation for testing.
type NoopTagIndexer struct{}

// IndexTag is a no-op.
func (NoopTagIndexer) IndexTag(context.Context, *domain.Tag, []string) error { return nil }

// DeleteTag is a no-op.
func (NoopTagIndexer) DeleteTag(context.Context, string) error { return nil }

// Store wraps a Badger database instance holding the taxonomy: tags, edges,
// versions, permissions, audit entries, usage history, and the generic
// entities below.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Search indexer for keeping typeahead in sync with tag changes.
	// Set via SetTagIndexer after store creation to avoid circular dependencies.
	indexer TagIndexer

	// Generic entities
	Templates *Entity[domain.PermissionTemplate]
	Rules     *Entity[domain.ConstraintRule]
	Aliases   *Entity[domain.TagAlias]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:      db,
		logger:  logger,
		indexer: NoopTagIndexer{},
	}

	// Initialize generic entities
	store.initTemplates()
	store.initRules()
	store.initAliases()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetTagIndexer sets the search indexer used to keep typeahead in sync.
// This is set after store creation to avoid circular dependencies
// (store needs to exist before the search service can be created).
func (s *Store) SetTagIndexer(indexer TagIndexer) {
	s.indexer = indexer
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// initTemplates initializes the permission-template entity.
// Template names are unique, looked up case-insensitively.
func (s *Store) initTemplates() {
	s.Templates = NewEntity[domain.PermissionTemplate](s, "tpl:").
		WithIndexTransform("name",
			func(t *domain.PermissionTemplate) []string {
				return []string{strings.ToLower(t.Name)}
			},
			strings.ToLower,
		)
}

// initRules initializes the constraint-rule entity.
func (s *Store) initRules() {
	s.Rules = NewEntity[domain.ConstraintRule](s, "rule:")
}

// initAliases initializes the tag-alias entity.
// Indexed by the alias spelling (for resolution) and by the canonical tag
// (for cleanup when a tag is renamed or deleted).
func (s *Store) initAliases() {
	s.Aliases = NewEntity[domain.TagAlias](s, "alias:").
		WithIndex("alias", func(a *domain.TagAlias) []string {
			return []string{a.Alias}
		})
}
