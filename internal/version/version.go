// Package version implements append-only tag version history: numbering,
// diffing, conflict-aware merging, and compensating reverts. All functions
// operate on snapshots the caller loaded; nothing here touches storage.
package version

import (
	"fmt"
	"sort"
	"time"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/id"
)

// VersionNotFoundError reports a revert target that does not exist for a tag.
type VersionNotFoundError struct {
	Tag     string
	Version int
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %d not found for tag %q", e.Version, e.Tag)
}

// Next computes the next version number for a tag: max(existing)+1, or 1 when
// the tag has no history. Versions belonging to other tags are ignored.
func Next(tag string, existing []domain.TagVersion) int {
	maxSeen := 0
	for _, v := range existing {
		if v.Tag == tag && v.Version > maxSeen {
			maxSeen = v.Version
		}
	}
	return maxSeen + 1
}

// Create builds a new immutable version for tag carrying a single change.
// The change's timestamp is filled in if zero.
func Create(tag string, change domain.TagChange, existing []domain.TagVersion) domain.TagVersion {
	now := time.Now()
	if change.Timestamp.IsZero() {
		change.Timestamp = now
	}
	return domain.TagVersion{
		ID:        id.MustGenerate("ver"),
		Tag:       tag,
		Version:   Next(tag, existing),
		Changes:   []domain.TagChange{change},
		Timestamp: now,
	}
}

// Revert appends a compensating version recording a rollback from the current
// head to targetVersion. History is never truncated; the revert is itself a
// new version. Fails with *VersionNotFoundError if targetVersion does not
// exist for tag.
func Revert(tag string, targetVersion int, existing []domain.TagVersion) (domain.TagVersion, error) {
	found := false
	head := 0
	for _, v := range existing {
		if v.Tag != tag {
			continue
		}
		if v.Version == targetVersion {
			found = true
		}
		if v.Version > head {
			head = v.Version
		}
	}
	if !found {
		return domain.TagVersion{}, &VersionNotFoundError{Tag: tag, Version: targetVersion}
	}

	change := domain.TagChange{
		Type:        domain.ChangeRevert,
		Description: fmt.Sprintf("revert to version %d", targetVersion),
		Timestamp:   time.Now(),
		Revert:      &domain.RevertDetails{FromVersion: head, ToVersion: targetVersion},
	}
	return Create(tag, change, existing), nil
}

// Diff describes the change-set difference between two versions.
type Diff struct {
	Additions     []domain.TagChange `json:"additions"`
	Deletions     []domain.TagChange `json:"deletions"`
	Modifications []domain.TagChange `json:"modifications"`
}

// Compare diffs v1 against v2. Changes are identified by (type, details) —
// timestamps and comments do not participate. Additions are keys present in
// v2 but not v1, deletions the reverse, and modifications are keys present in
// both whose full serialized change differs (description or author edits).
func Compare(v1, v2 domain.TagVersion) Diff {
	left := changesByKey(v1)
	right := changesByKey(v2)

	var d Diff
	for _, c := range v2.Changes {
		if _, ok := left[c.Key()]; !ok {
			d.Additions = append(d.Additions, c)
		}
	}
	for _, c := range v1.Changes {
		key := c.Key()
		other, ok := right[key]
		if !ok {
			d.Deletions = append(d.Deletions, c)
			continue
		}
		if c.Fingerprint() != other.Fingerprint() {
			d.Modifications = append(d.Modifications, other)
		}
	}
	return d
}

func changesByKey(v domain.TagVersion) map[string]domain.TagChange {
	out := make(map[string]domain.TagChange, len(v.Changes))
	for _, c := range v.Changes {
		out[c.Key()] = c
	}
	return out
}

// Conflict is a pair of identity-affecting changes that disagree and need an
// explicit decision before merging.
type Conflict struct {
	Type   domain.ChangeType `json:"type"`
	Ours   domain.TagChange  `json:"ours"`
	Theirs domain.TagChange  `json:"theirs"`
}

// ConflictReport is the result of CheckConflicts, modeled as data: the engine
// never resolves a conflict on its own.
type ConflictReport struct {
	HasConflicts bool       `json:"has_conflicts"`
	Conflicts    []Conflict `json:"conflicts"`
}

// conflictTypes are the change types that require explicit resolution when
// both sides carry one with a differing new value. Everything else
// auto-unions: only identity-affecting changes (renaming, reparenting) are
// dangerous to combine blindly.
var conflictTypes = []domain.ChangeType{domain.ChangeRename, domain.ChangeHierarchy}

// CheckConflicts inspects two versions for incompatible identity changes.
func CheckConflicts(v1, v2 domain.TagVersion) ConflictReport {
	var report ConflictReport
	for _, ct := range conflictTypes {
		ours, okOurs := latestOfType(v1, ct)
		theirs, okTheirs := latestOfType(v2, ct)
		if !okOurs || !okTheirs {
			continue
		}
		ourValue, _ := ours.ConflictValue()
		theirValue, _ := theirs.ConflictValue()
		if ourValue != theirValue {
			report.Conflicts = append(report.Conflicts, Conflict{Type: ct, Ours: ours, Theirs: theirs})
		}
	}
	report.HasConflicts = len(report.Conflicts) > 0
	return report
}

func latestOfType(v domain.TagVersion, ct domain.ChangeType) (domain.TagChange, bool) {
	var latest domain.TagChange
	found := false
	for _, c := range v.Changes {
		if c.Type != ct {
			continue
		}
		if !found || c.Timestamp.After(latest.Timestamp) {
			latest = c
			found = true
		}
	}
	return latest, found
}

// Side selects which version wins a conflicting change type during a
// resolved merge.
type Side string

// Merge resolution sides.
const (
	SideOurs   Side = "ours"   // keep v1's change
	SideTheirs Side = "theirs" // keep v2's change
)

// Merge unions the change sets of two versions of the same tag. Changes are
// keyed by (type, details); on key collision the change with the later
// timestamp wins. The merged version number is max(v1,v2)+1.
//
// Merge does not guess about conflicts: if CheckConflicts reports any, they
// must be resolved via resolutions (one Side per conflicting change type) or
// Merge returns the report alongside an empty version.
func Merge(v1, v2 domain.TagVersion, resolutions map[domain.ChangeType]Side) (domain.TagVersion, ConflictReport, error) {
	report := CheckConflicts(v1, v2)
	for _, c := range report.Conflicts {
		if _, ok := resolutions[c.Type]; !ok {
			return domain.TagVersion{}, report, fmt.Errorf("unresolved %s conflict: explicit resolution required", c.Type)
		}
	}

	drop := func(side Side, c domain.TagChange) bool {
		for _, conflict := range report.Conflicts {
			if c.Type == conflict.Type && resolutions[c.Type] != side {
				return true
			}
		}
		return false
	}

	merged := make(map[string]domain.TagChange)
	for _, c := range v1.Changes {
		if drop(SideOurs, c) {
			continue
		}
		merged[c.Key()] = c
	}
	for _, c := range v2.Changes {
		if drop(SideTheirs, c) {
			continue
		}
		if existing, ok := merged[c.Key()]; ok && !c.Timestamp.After(existing.Timestamp) {
			continue
		}
		merged[c.Key()] = c
	}

	changes := make([]domain.TagChange, 0, len(merged))
	for _, c := range merged {
		changes = append(changes, c)
	}
	sort.Slice(changes, func(i, j int) bool {
		if !changes[i].Timestamp.Equal(changes[j].Timestamp) {
			return changes[i].Timestamp.Before(changes[j].Timestamp)
		}
		return changes[i].Key() < changes[j].Key()
	})

	return domain.TagVersion{
		ID:        id.MustGenerate("ver"),
		Tag:       v1.Tag,
		Version:   max(v1.Version, v2.Version) + 1,
		Changes:   changes,
		Timestamp: time.Now(),
	}, report, nil
}
