package domain

import "time"

// Tag represents a community tag used to organize saved searches and content.
// Name is the identity: case-sensitive, globally unique by exact string.
// Normalization (casing, whitespace) is advisory — import and create flows
// emit warnings for non-canonical names but never rewrite them.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UseCount  int       `json:"use_count"`            // Denormalized count of usage records
	FirstUsed time.Time `json:"first_used,omitzero"`  // First time the tag appeared in a usage record
	LastUsed  time.Time `json:"last_used,omitzero"`   // Most recent usage
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTag constructs a tag with zero usage and fresh timestamps.
func NewTag(id, name string) *Tag {
	now := time.Now()
	return &Tag{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}

// RecordUse updates the usage bookkeeping for one occurrence at ts.
func (t *Tag) RecordUse(ts time.Time) {
	t.UseCount++
	if t.FirstUsed.IsZero() || ts.Before(t.FirstUsed) {
		t.FirstUsed = ts
	}
	if ts.After(t.LastUsed) {
		t.LastUsed = ts
	}
	t.Touch()
}

// TagAlias folds a synonym spelling into a canonical tag name.
type TagAlias struct {
	ID        string    `json:"id"`
	Alias     string    `json:"alias"`
	Canonical string    `json:"canonical"`
	CreatedAt time.Time `json:"created_at"`
}

// TagUsage is one historical record of tags applied together to a saved
// search or piece of content. It is the raw feed for co-occurrence analysis
// and for max_total constraint counting.
type TagUsage struct {
	ID        string    `json:"id"`
	Tags      []string  `json:"tags"`
	Timestamp time.Time `json:"timestamp"`
}
