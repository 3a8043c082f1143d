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

// Key prefix for usage history records.
const usagePrefix = "usage:" // usage:{id} → TagUsage JSON

// AppendUsage records one tag application event and bumps the counters of
// every named tag in the same transaction. Tags referenced by the record must
// already exist; missing ones fail the whole write so counters never drift
// from history.
func (s *Store) AppendUsage(ctx context.Context, u *domain.TagUsage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if u.ID == "" {
		usageID, err := id.Generate("use")
		if err != nil {
			return err
		}
		u.ID = usageID
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(usagePrefix+u.ID), data); err != nil {
			return err
		}

		seen := make(map[string]bool, len(u.Tags))
		for _, name := range u.Tags {
			if seen[name] {
				continue
			}
			seen[name] = true
			err := s.updateTagInTxn(txn, name, func(t *domain.Tag) {
				t.RecordUse(u.Timestamp)
			})
			if errors.Is(err, ErrTagNotFound) {
				return fmt.Errorf("usage references unknown tag %q: %w", name, err)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ListUsage returns the full usage history, oldest first.
func (s *Store) ListUsage(ctx context.Context) ([]domain.TagUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(usagePrefix)
	var records []domain.TagUsage

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var u domain.TagUsage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &u)
			})
			if err != nil {
				continue
			}
			records = append(records, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

// RenameInUsage rewrites occurrences of oldName to newName across the usage
// history. Merge and rename flows call this so co-occurrence analysis keeps
// crediting the surviving tag.
func (s *Store) RenameInUsage(ctx context.Context, oldName, newName string) error {
	records, err := s.ListUsage(ctx)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, u := range records {
			changed := false
			for i, name := range u.Tags {
				if name == oldName {
					u.Tags[i] = newName
					changed = true
				}
			}
			if !changed {
				continue
			}
			data, err := json.Marshal(u)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(usagePrefix+u.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}
