package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/id"
)

// Key prefixes for tag storage. The exact name string is the public identity;
// records are keyed by generated ID with a name index on top so renames stay
// a single index move.
const (
	tagPrefix       = "tag:"           // tag:{id} → Tag JSON
	tagByNamePrefix = "idx:tags:name:" // idx:tags:name:{name} → tagID
)

// Tag errors.
var (
	ErrTagNotFound = errors.New("tag not found")
	ErrTagExists   = errors.New("tag already exists")
)

// CreateTag creates a new tag. Fails with ErrTagExists when the exact name is
// already taken.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(tagByNamePrefix + t.Name)
		if _, err := txn.Get(nameKey); err == nil {
			return ErrTagExists
		}

		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(tagPrefix+t.ID), data); err != nil {
			return err
		}

		return txn.Set(nameKey, []byte(t.ID))
	})
	if err != nil {
		return err
	}

	s.indexTag(ctx, t)
	return nil
}

// GetTagByID retrieves a tag by ID.
func (s *Store) GetTagByID(ctx context.Context, tagID string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	key := []byte(tagPrefix + tagID)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})

	if err != nil {
		return nil, err
	}

	return &t, nil
}

// GetTag retrieves a tag by its exact name.
func (s *Store) GetTag(ctx context.Context, name string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tagID string
	nameKey := []byte(tagByNamePrefix + name)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nameKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return s.GetTagByID(ctx, tagID)
}

// TagExists reports whether a tag with the exact name exists.
func (s *Store) TagExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists([]byte(tagByNamePrefix + name))
}

// ListTags returns all tags ordered by use count (descending), then name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(tagPrefix)
	var tags []*domain.Tag

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var t domain.Tag
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			})
			if err != nil {
				continue
			}
			tags = append(tags, &t)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].UseCount != tags[j].UseCount {
			return tags[i].UseCount > tags[j].UseCount
		}
		return tags[i].Name < tags[j].Name
	})

	return tags, nil
}

// FindOrCreateTag atomically finds an existing tag by name or creates a new
// one. Returns (tag, created, error) where created is true if a new tag was
// made.
func (s *Store) FindOrCreateTag(ctx context.Context, name string) (*domain.Tag, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	existing, err := s.GetTag(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrTagNotFound) {
		return nil, false, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, false, err
	}

	t := domain.NewTag(tagID, name)
	if err := s.CreateTag(ctx, t); err != nil {
		if errors.Is(err, ErrTagExists) {
			// Race: another goroutine created it between the read and write.
			existing, err := s.GetTag(ctx, name)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return t, true, nil
}

// RenameTag moves a tag to a new name. The record keeps its ID and counters;
// only the name and its index entry change. Fails with ErrTagExists if the
// target name is taken and ErrTagNotFound if the source is missing.
func (s *Store) RenameTag(ctx context.Context, oldName, newName string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var renamed domain.Tag
	err := s.db.Update(func(txn *badger.Txn) error {
		oldKey := []byte(tagByNamePrefix + oldName)
		item, err := txn.Get(oldKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		var tagID string
		if err := item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		}); err != nil {
			return err
		}

		newKey := []byte(tagByNamePrefix + newName)
		if _, err := txn.Get(newKey); err == nil {
			return ErrTagExists
		}

		recKey := []byte(tagPrefix + tagID)
		rec, err := txn.Get(recKey)
		if err != nil {
			return err
		}
		if err := rec.Value(func(val []byte) error {
			return json.Unmarshal(val, &renamed)
		}); err != nil {
			return err
		}

		renamed.Name = newName
		renamed.Touch()

		data, err := json.Marshal(renamed)
		if err != nil {
			return err
		}
		if err := txn.Set(recKey, data); err != nil {
			return err
		}
		if err := txn.Delete(oldKey); err != nil {
			return err
		}
		return txn.Set(newKey, []byte(tagID))
	})
	if err != nil {
		return nil, err
	}

	s.deindexTag(ctx, oldName)
	s.indexTag(ctx, &renamed)
	return &renamed, nil
}

// DeleteTag hard-deletes a tag record and its name index entry. Edges,
// versions, and permissions referencing the name are the caller's problem;
// the service layer cleans those up before calling this.
func (s *Store) DeleteTag(ctx context.Context, name string) error {
	t, err := s.GetTag(ctx, name)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(tagPrefix + t.ID)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(tagByNamePrefix + name)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.deindexTag(ctx, name)
	return nil
}

// updateTagInTxn applies fn to the named tag inside an existing transaction.
func (s *Store) updateTagInTxn(txn *badger.Txn, name string, fn func(*domain.Tag)) error {
	nameItem, err := txn.Get([]byte(tagByNamePrefix + name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrTagNotFound
	}
	if err != nil {
		return err
	}
	var tagID string
	if err := nameItem.Value(func(val []byte) error {
		tagID = string(val)
		return nil
	}); err != nil {
		return err
	}

	key := []byte(tagPrefix + tagID)
	item, err := txn.Get(key)
	if err != nil {
		return err
	}

	var t domain.Tag
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &t)
	}); err != nil {
		return err
	}

	fn(&t)

	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// indexTag pushes a tag into the search index, best effort.
func (s *Store) indexTag(ctx context.Context, t *domain.Tag) {
	aliases, err := s.AliasesForTag(ctx, t.Name)
	if err != nil {
		aliases = nil
	}
	if err := s.indexer.IndexTag(ctx, t, aliases); err != nil && s.logger != nil {
		s.logger.Warn("failed to index tag", "tag", t.Name, "error", err)
	}
}

// deindexTag removes a tag from the search index, best effort.
func (s *Store) deindexTag(ctx context.Context, name string) {
	if err := s.indexer.DeleteTag(ctx, name); err != nil && s.logger != nil {
		s.logger.Warn("failed to deindex tag", "tag", name, "error", err)
	}
}

// AliasesForTag returns the alias spellings whose canonical is the named tag.
func (s *Store) AliasesForTag(ctx context.Context, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []string
	for a, err := range s.Aliases.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list aliases: %w", err)
		}
		if a.Canonical == name {
			out = append(out, a.Alias)
		}
	}
	sort.Strings(out)
	return out, nil
}
