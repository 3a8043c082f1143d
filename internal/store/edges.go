package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// Key prefix for hierarchy edges. The NUL separator between parent and child
// keeps keys unambiguous for tag names containing punctuation.
const edgePrefix = "edge:" // edge:{parent}\x00{child} → HierarchyEdge JSON

// Edge errors.
var (
	ErrEdgeExists   = errors.New("hierarchy edge already exists")
	ErrEdgeNotFound = errors.New("hierarchy edge not found")
)

func edgeKey(parent, child string) []byte {
	return []byte(edgePrefix + parent + "\x00" + child)
}

// AddEdge persists a parent→child edge. Cycle checking happens above this
// layer, against the full in-memory graph; the store only enforces edge
// uniqueness.
func (s *Store) AddEdge(ctx context.Context, e *domain.HierarchyEdge) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := edgeKey(e.Parent, e.Child)
		if _, err := txn.Get(key); err == nil {
			return ErrEdgeExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// RemoveEdge deletes a parent→child edge. Idempotent.
func (s *Store) RemoveEdge(ctx context.Context, parent, child string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(edgeKey(parent, child))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// ListEdges returns every hierarchy edge, ordered by parent then child.
func (s *Store) ListEdges(ctx context.Context) ([]domain.HierarchyEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(edgePrefix)
	var edges []domain.HierarchyEdge

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e domain.HierarchyEdge
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				continue
			}
			edges = append(edges, e)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Parent != edges[j].Parent {
			return edges[i].Parent < edges[j].Parent
		}
		return edges[i].Child < edges[j].Child
	})

	return edges, nil
}

// RemoveEdgesForTag deletes every edge that touches the named tag, in either
// direction. Used when a tag is deleted or folded into another by a merge.
// Returns the removed edges so the caller can record them in version history.
func (s *Store) RemoveEdgesForTag(ctx context.Context, name string) ([]domain.HierarchyEdge, error) {
	edges, err := s.ListEdges(ctx)
	if err != nil {
		return nil, err
	}

	var removed []domain.HierarchyEdge
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, e := range edges {
			if e.Parent != name && e.Child != name {
				continue
			}
			if err := txn.Delete(edgeKey(e.Parent, e.Child)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			removed = append(removed, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}
