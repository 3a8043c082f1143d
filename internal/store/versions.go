package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// Key prefix for version history. The version number is zero-padded so badger
// key order equals version order within one tag's prefix.
const versionPrefix = "ver:" // ver:{tag}\x00{%08d} → TagVersion JSON

// Version errors.
var (
	ErrVersionNotFound = errors.New("version not found")
	// ErrVersionConflict means another writer claimed the same (tag, version)
	// pair first. Callers retry by recomputing the next number.
	ErrVersionConflict = errors.New("version number already taken")
)

func versionKey(tag string, version int) []byte {
	return []byte(fmt.Sprintf("%s%s\x00%08d", versionPrefix, tag, version))
}

func versionRange(tag string) []byte {
	return []byte(versionPrefix + tag + "\x00")
}

// CreateVersion appends a version entry. The (tag, version) pair is enforced
// unique within the write transaction, so concurrent writers racing on the
// same number lose deterministically with ErrVersionConflict.
func (s *Store) CreateVersion(ctx context.Context, v *domain.TagVersion) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := versionKey(v.Tag, v.Version)
		if _, err := txn.Get(key); err == nil {
			return ErrVersionConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// GetVersion retrieves one numbered version of a tag's history.
func (s *Store) GetVersion(ctx context.Context, tag string, version int) (*domain.TagVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var v domain.TagVersion
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(versionKey(tag, version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrVersionNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVersions returns a tag's full history in ascending version order.
// An empty history is an empty slice, not an error.
func (s *Store) ListVersions(ctx context.Context, tag string) ([]domain.TagVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := versionRange(tag)
	var versions []domain.TagVersion

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var v domain.TagVersion
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			})
			if err != nil {
				continue
			}
			versions = append(versions, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return versions, nil
}

// LatestVersion returns the highest-numbered version for a tag, or
// ErrVersionNotFound when the tag has no history.
func (s *Store) LatestVersion(ctx context.Context, tag string) (*domain.TagVersion, error) {
	versions, err := s.ListVersions(ctx, tag)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrVersionNotFound
	}
	return &versions[len(versions)-1], nil
}

// ListAllVersions returns every version entry in the store, for history-wide
// integrity validation.
func (s *Store) ListAllVersions(ctx context.Context) ([]domain.TagVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(versionPrefix)
	var versions []domain.TagVersion

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var v domain.TagVersion
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			})
			if err != nil {
				continue
			}
			versions = append(versions, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return versions, nil
}

// MoveVersions re-keys a tag's history under a new tag name after a rename.
// Entries keep their numbers and contents; only the key prefix and Tag field
// change.
func (s *Store) MoveVersions(ctx context.Context, oldTag, newTag string) error {
	versions, err := s.ListVersions(ctx, oldTag)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, v := range versions {
			if err := txn.Delete(versionKey(oldTag, v.Version)); err != nil {
				return err
			}
			v.Tag = newTag
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			if err := txn.Set(versionKey(newTag, v.Version), data); err != nil {
				return err
			}
		}
		return nil
	})
}
