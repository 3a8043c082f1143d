package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// Key prefix for the audit log. Keys embed the nanosecond timestamp so badger
// key order equals chronological order within a tag's prefix; the UUID suffix
// disambiguates entries landing on the same nanosecond.
const auditPrefix = "audit:" // audit:{tag}\x00{%020d}\x00{uuid} → AuditLogEntry JSON

// appendAuditInTxn writes an audit entry inside an existing write
// transaction. Every permission mutation funnels through here so the log and
// the grant commit or roll back together.
func (s *Store) appendAuditInTxn(txn *badger.Txn, entry *domain.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	key := fmt.Sprintf("%s%s\x00%020d\x00%s", auditPrefix, entry.Tag, entry.Timestamp.UnixNano(), entry.ID)
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// ListAuditForTag returns a tag's audit entries in chronological order.
func (s *Store) ListAuditForTag(ctx context.Context, tag string) ([]domain.AuditLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(auditPrefix + tag + "\x00")
	return s.scanAudit(prefix)
}

// ListAudit returns every audit entry in the store. Ordering is by tag, then
// chronological within each tag.
func (s *Store) ListAudit(ctx context.Context) ([]domain.AuditLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.scanAudit([]byte(auditPrefix))
}

func (s *Store) scanAudit(prefix []byte) ([]domain.AuditLogEntry, error) {
	var entries []domain.AuditLogEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e domain.AuditLogEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}
