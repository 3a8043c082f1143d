package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// Key prefixes for permission storage. Grants are keyed by (tag, user) so a
// tag's grants are one prefix scan; the user index supports the reverse
// lookup.
const (
	permPrefix       = "perm:"          // perm:{tag}\x00{userID} → TagPermission JSON
	permByUserPrefix = "idx:perm:user:" // idx:perm:user:{userID}\x00{tag} → empty
)

// Permission errors.
var ErrPermissionNotFound = errors.New("permission not found")

func permKey(tag, userID string) []byte {
	return []byte(permPrefix + tag + "\x00" + userID)
}

func permUserKey(userID, tag string) []byte {
	return []byte(permByUserPrefix + userID + "\x00" + tag)
}

// SetPermission upserts a grant and writes the matching audit entry in the
// same transaction. Either both land or neither does; a grant without its
// audit trail never becomes visible.
func (s *Store) SetPermission(ctx context.Context, p *domain.TagPermission, actorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := permKey(p.Tag, p.UserID)
		now := time.Now()

		action := domain.AuditAdd
		var oldRole domain.Role
		item, err := txn.Get(key)
		switch {
		case err == nil:
			var existing domain.TagPermission
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); err != nil {
				return err
			}
			// Same-role re-grants still persist (contact fields may have
			// changed) and still audit: every mutation leaves a trace.
			action = domain.AuditUpdate
			oldRole = existing.Role
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
		case errors.Is(err, badger.ErrKeyNotFound):
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			p.CreatedAt = now
		default:
			return err
		}
		p.UpdatedAt = now

		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		if err := txn.Set(permUserKey(p.UserID, p.Tag), []byte{}); err != nil {
			return err
		}

		return s.appendAuditInTxn(txn, &domain.AuditLogEntry{
			Tag:       p.Tag,
			UserID:    p.UserID,
			ActorID:   actorID,
			Action:    action,
			OldRole:   oldRole,
			NewRole:   p.Role,
			Timestamp: now,
		})
	})
}

// RemovePermission hard-deletes a grant and writes the matching audit entry
// in the same transaction. Returns ErrPermissionNotFound when no grant
// exists.
func (s *Store) RemovePermission(ctx context.Context, tag, userID, actorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := permKey(tag, userID)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPermissionNotFound
		}
		if err != nil {
			return err
		}

		var existing domain.TagPermission
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &existing)
		}); err != nil {
			return err
		}

		if err := txn.Delete(key); err != nil {
			return err
		}
		if err := txn.Delete(permUserKey(userID, tag)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return s.appendAuditInTxn(txn, &domain.AuditLogEntry{
			Tag:       tag,
			UserID:    userID,
			ActorID:   actorID,
			Action:    domain.AuditRemove,
			OldRole:   existing.Role,
			Timestamp: time.Now(),
		})
	})
}

// GetPermission retrieves the grant for a (tag, user) pair.
func (s *Store) GetPermission(ctx context.Context, tag, userID string) (*domain.TagPermission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p domain.TagPermission
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(permKey(tag, userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPermissionNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPermissionsForTag returns every grant on a tag, ordered by user ID.
func (s *Store) ListPermissionsForTag(ctx context.Context, tag string) ([]domain.TagPermission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(permPrefix + tag + "\x00")
	var perms []domain.TagPermission

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p domain.TagPermission
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				continue
			}
			perms = append(perms, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(perms, func(i, j int) bool {
		return perms[i].UserID < perms[j].UserID
	})
	return perms, nil
}

// ListPermissionsForUser returns every grant a user holds, across all tags,
// ordered by tag name.
func (s *Store) ListPermissionsForUser(ctx context.Context, userID string) ([]domain.TagPermission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(permByUserPrefix + userID + "\x00")
	var tags []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			tags = append(tags, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	perms := make([]domain.TagPermission, 0, len(tags))
	for _, tag := range tags {
		p, err := s.GetPermission(ctx, tag, userID)
		if err != nil {
			continue // Index entry without a grant; skip.
		}
		perms = append(perms, *p)
	}

	sort.Slice(perms, func(i, j int) bool {
		return perms[i].Tag < perms[j].Tag
	})
	return perms, nil
}

// ListAllPermissions returns every grant in the store, for export and for
// building the permission resolver's snapshot.
func (s *Store) ListAllPermissions(ctx context.Context) ([]domain.TagPermission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(permPrefix)
	var perms []domain.TagPermission

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p domain.TagPermission
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				continue
			}
			perms = append(perms, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Tag != perms[j].Tag {
			return perms[i].Tag < perms[j].Tag
		}
		return perms[i].UserID < perms[j].UserID
	})
	return perms, nil
}

// MovePermissions re-keys a tag's grants under a new tag name after a rename.
// No audit entries are written; the rename itself is recorded in version
// history.
func (s *Store) MovePermissions(ctx context.Context, oldTag, newTag string) error {
	perms, err := s.ListPermissionsForTag(ctx, oldTag)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, p := range perms {
			if err := txn.Delete(permKey(oldTag, p.UserID)); err != nil {
				return err
			}
			if err := txn.Delete(permUserKey(p.UserID, oldTag)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			p.Tag = newTag
			data, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := txn.Set(permKey(newTag, p.UserID), data); err != nil {
				return err
			}
			if err := txn.Set(permUserKey(p.UserID, newTag), []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
}
