package domain

import "time"

// AuditAction classifies a permission mutation.
type AuditAction string

// Audit actions.
const (
	AuditAdd    AuditAction = "add"
	AuditUpdate AuditAction = "update"
	AuditRemove AuditAction = "remove"
)

// AuditLogEntry records one permission mutation. Entries are write-once and
// append-only; every permission change — direct, bulk, template fan-out, or
// import — produces exactly one entry in the same logical operation.
type AuditLogEntry struct {
	ID          string      `json:"id"`
	Tag         string      `json:"tag"`
	UserID      string      `json:"user_id"`  // Subject of the change
	ActorID     string      `json:"actor_id"` // Who performed it
	Action      AuditAction `json:"action"`
	OldRole     Role        `json:"old_role,omitempty"`
	NewRole     Role        `json:"new_role,omitempty"`
	Description string      `json:"description,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}
