package search

import (
	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// TagDocument is the indexable projection of a tag. Documents are keyed by
// the exact tag name so a rename is a delete plus an index.
type TagDocument struct {
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	UseCount int      `json:"use_count"`
}

// NewTagDocument builds the document for a tag and its alias spellings.
func NewTagDocument(t *domain.Tag, aliases []string) *TagDocument {
	return &TagDocument{
		Name:     t.Name,
		Aliases:  aliases,
		UseCount: t.UseCount,
	}
}

// ToMap converts the document to a map so field names match the mapping.
func (d *TagDocument) ToMap() map[string]any {
	m := map[string]any{
		"name":      d.Name,
		"use_count": d.UseCount,
	}
	if len(d.Aliases) > 0 {
		m["aliases"] = d.Aliases
	}
	return m
}
