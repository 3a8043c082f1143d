package domain

import (
	"encoding/json/v2"
	"time"
)

// ChangeType discriminates the payload carried by a TagChange.
type ChangeType string

// Change types recorded in tag version history.
const (
	ChangeRename    ChangeType = "rename"
	ChangeMerge     ChangeType = "merge"
	ChangeSplit     ChangeType = "split"
	ChangeAlias     ChangeType = "alias"
	ChangeHierarchy ChangeType = "hierarchy"
	ChangeLimit     ChangeType = "limit"
	ChangeRevert    ChangeType = "revert"
)

// RenameDetails records a tag name change.
type RenameDetails struct {
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// MergeDetails records source tags folded into a target tag.
type MergeDetails struct {
	Sources []string `json:"sources"`
	Target  string   `json:"target"`
}

// SplitDetails records one tag split into several.
type SplitDetails struct {
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
}

// AliasDetails records a synonym mapping.
type AliasDetails struct {
	Alias     string `json:"alias"`
	Canonical string `json:"canonical"`
}

// HierarchyDetails records a reparenting. Empty OldParent means the tag was a
// root before the change; empty NewParent means it became one.
type HierarchyDetails struct {
	OldParent string `json:"old_parent,omitempty"`
	NewParent string `json:"new_parent,omitempty"`
}

// LimitDetails records a constraint-rule adjustment tied to the tag.
type LimitDetails struct {
	RuleType string `json:"rule_type"`
	Value    int    `json:"value"`
}

// RevertDetails records a rollback. The rollback itself is a new version;
// history is never truncated.
type RevertDetails struct {
	FromVersion int `json:"from_version"`
	ToVersion   int `json:"to_version"`
}

// TagChange is one recorded mutation within a version. Exactly one details
// field matching Type is populated; the rest stay nil. This replaces the
// free-form details map the feature grew up with — payload shapes are closed
// per change type.
type TagChange struct {
	Type        ChangeType `json:"type"`
	Description string     `json:"description"`
	Timestamp   time.Time  `json:"timestamp"`
	Comment     string     `json:"comment,omitempty"`
	Author      string     `json:"author,omitempty"`

	Rename    *RenameDetails    `json:"rename,omitempty"`
	Merge     *MergeDetails     `json:"merge,omitempty"`
	Split     *SplitDetails     `json:"split,omitempty"`
	Alias     *AliasDetails     `json:"alias,omitempty"`
	Hierarchy *HierarchyDetails `json:"hierarchy,omitempty"`
	Limit     *LimitDetails     `json:"limit,omitempty"`
	Revert    *RevertDetails    `json:"revert,omitempty"`
}

// details returns the populated payload for serialization.
func (c TagChange) details() any {
	switch c.Type {
	case ChangeRename:
		return c.Rename
	case ChangeMerge:
		return c.Merge
	case ChangeSplit:
		return c.Split
	case ChangeAlias:
		return c.Alias
	case ChangeHierarchy:
		return c.Hierarchy
	case ChangeLimit:
		return c.Limit
	case ChangeRevert:
		return c.Revert
	}
	return nil
}

// Key returns the identity of the change for diff and merge purposes:
// the change type plus its serialized details. Timestamp, comment,
// description, and author are deliberately excluded.
func (c TagChange) Key() string {
	data, err := json.Marshal(c.details())
	if err != nil {
		// Details structs contain only plain fields; marshal cannot fail.
		return string(c.Type)
	}
	return string(c.Type) + ":" + string(data)
}

// Fingerprint serializes everything that matters for modification detection.
// Two changes with equal Key but different Fingerprint count as modified.
// Timestamp and comment are ignored, matching Key semantics plus metadata.
func (c TagChange) Fingerprint() string {
	type fp struct {
		Type        ChangeType `json:"type"`
		Description string     `json:"description"`
		Author      string     `json:"author,omitempty"`
		Details     any        `json:"details"`
	}
	data, err := json.Marshal(fp{Type: c.Type, Description: c.Description, Author: c.Author, Details: c.details()})
	if err != nil {
		return c.Key()
	}
	return string(data)
}

// ConflictValue returns the value compared during conflict detection.
// Only rename and hierarchy changes participate: both are identity-affecting,
// so two versions disagreeing on the new value need explicit resolution.
// ok is false for every other change type.
func (c TagChange) ConflictValue() (value string, ok bool) {
	switch c.Type {
	case ChangeRename:
		if c.Rename != nil {
			return c.Rename.NewValue, true
		}
	case ChangeHierarchy:
		if c.Hierarchy != nil {
			return c.Hierarchy.NewParent, true
		}
	}
	return "", false
}

// TagVersion is one immutable, numbered entry in a tag's history.
// Version numbers are a 1-based, gap-free, monotonically increasing sequence
// per tag; a new version is always max(existing)+1. Versions are append-only:
// reverts add compensating versions rather than deleting anything.
type TagVersion struct {
	ID        string      `json:"id"`
	Tag       string      `json:"tag"`
	Version   int         `json:"version"`
	Changes   []TagChange `json:"changes"`
	Timestamp time.Time   `json:"timestamp"`
}
