package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

func renameChange(oldName, newName string, ts time.Time) domain.TagChange {
	return domain.TagChange{
		Type:        domain.ChangeRename,
		Description: "rename " + oldName + " to " + newName,
		Timestamp:   ts,
		Rename:      &domain.RenameDetails{OldValue: oldName, NewValue: newName},
	}
}

func aliasChange(alias, canonical string, ts time.Time) domain.TagChange {
	return domain.TagChange{
		Type:        domain.ChangeAlias,
		Description: "alias " + alias,
		Timestamp:   ts,
		Alias:       &domain.AliasDetails{Alias: alias, Canonical: canonical},
	}
}

func hierarchyChange(oldParent, newParent string, ts time.Time) domain.TagChange {
	return domain.TagChange{
		Type:        domain.ChangeHierarchy,
		Description: "reparent",
		Timestamp:   ts,
		Hierarchy:   &domain.HierarchyDetails{OldParent: oldParent, NewParent: newParent},
	}
}

func TestNext_EmptyHistory(t *testing.T) {
	assert.Equal(t, 1, Next("pop", nil))
}

func TestNext_IgnoresOtherTags(t *testing.T) {
	existing := []domain.TagVersion{
		{Tag: "pop", Version: 3},
		{Tag: "rock", Version: 9},
	}
	assert.Equal(t, 4, Next("pop", existing))
}

func TestCreate_MonotonicNoGaps(t *testing.T) {
	var history []domain.TagVersion
	for i := 1; i <= 5; i++ {
		v := Create("pop", aliasChange("p", "pop", time.Now()), history)
		assert.Equal(t, i, v.Version)
		history = append(history, v)
	}
	assert.Empty(t, ValidateAll(history))
}

func TestCompare_Symmetry(t *testing.T) {
	base := time.Now()
	v1 := domain.TagVersion{Tag: "pop", Version: 1, Changes: []domain.TagChange{
		aliasChange("p", "pop", base),
		renameChange("popp", "pop", base),
	}}
	v2 := domain.TagVersion{Tag: "pop", Version: 2, Changes: []domain.TagChange{
		aliasChange("p", "pop", base),
		hierarchyChange("", "music", base),
	}}

	forward := Compare(v1, v2)
	backward := Compare(v2, v1)

	// diff(v1,v2).additions == diff(v2,v1).deletions and vice versa.
	keys := func(changes []domain.TagChange) []string {
		out := make([]string, len(changes))
		for i, c := range changes {
			out[i] = c.Key()
		}
		return out
	}
	assert.ElementsMatch(t, keys(forward.Additions), keys(backward.Deletions))
	assert.ElementsMatch(t, keys(forward.Deletions), keys(backward.Additions))
}

func TestCompare_ModificationNeedsSameKey(t *testing.T) {
	base := time.Now()
	c1 := aliasChange("p", "pop", base)
	c2 := aliasChange("p", "pop", base.Add(time.Hour)) // timestamp differs only
	c3 := aliasChange("p", "pop", base)
	c3.Description = "edited description"

	d := Compare(
		domain.TagVersion{Changes: []domain.TagChange{c1}},
		domain.TagVersion{Changes: []domain.TagChange{c2}},
	)
	assert.Empty(t, d.Modifications, "timestamp-only difference is not a modification")

	d = Compare(
		domain.TagVersion{Changes: []domain.TagChange{c1}},
		domain.TagVersion{Changes: []domain.TagChange{c3}},
	)
	require.Len(t, d.Modifications, 1)
	assert.Equal(t, "edited description", d.Modifications[0].Description)
}

func TestMerge_IdenticalInputsIsIdempotent(t *testing.T) {
	base := time.Now()
	v := domain.TagVersion{Tag: "pop", Version: 2, Changes: []domain.TagChange{
		aliasChange("p", "pop", base),
		hierarchyChange("", "music", base),
	}}

	merged, report, err := Merge(v, v, nil)
	require.NoError(t, err)
	assert.False(t, report.HasConflicts)
	assert.Equal(t, 3, merged.Version)
	assert.Len(t, merged.Changes, len(v.Changes))
}

func TestMerge_LaterTimestampWinsCollision(t *testing.T) {
	base := time.Now()
	older := aliasChange("p", "pop", base)
	newer := aliasChange("p", "pop", base.Add(time.Hour))
	newer.Comment = "newer"

	merged, _, err := Merge(
		domain.TagVersion{Tag: "pop", Version: 1, Changes: []domain.TagChange{older}},
		domain.TagVersion{Tag: "pop", Version: 1, Changes: []domain.TagChange{newer}},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, merged.Changes, 1)
	assert.Equal(t, "newer", merged.Changes[0].Comment)
}

func TestCheckConflicts_RenameDisagreement(t *testing.T) {
	base := time.Now()
	v1 := domain.TagVersion{Tag: "pop", Version: 2, Changes: []domain.TagChange{renameChange("pop", "pop-music", base)}}
	v2 := domain.TagVersion{Tag: "pop", Version: 2, Changes: []domain.TagChange{renameChange("pop", "popular", base)}}

	report := CheckConflicts(v1, v2)
	require.True(t, report.HasConflicts)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, domain.ChangeRename, report.Conflicts[0].Type)
}

func TestCheckConflicts_SameValueNoConflict(t *testing.T) {
	base := time.Now()
	v1 := domain.TagVersion{Changes: []domain.TagChange{renameChange("pop", "popular", base)}}
	v2 := domain.TagVersion{Changes: []domain.TagChange{renameChange("pop", "popular", base.Add(time.Minute))}}

	assert.False(t, CheckConflicts(v1, v2).HasConflicts)
}

func TestCheckConflicts_NonIdentityTypesAutoUnion(t *testing.T) {
	base := time.Now()
	v1 := domain.TagVersion{Changes: []domain.TagChange{aliasChange("a", "pop", base)}}
	v2 := domain.TagVersion{Changes: []domain.TagChange{aliasChange("b", "pop", base)}}

	report := CheckConflicts(v1, v2)
	assert.False(t, report.HasConflicts)

	merged, _, err := Merge(v1, v2, nil)
	require.NoError(t, err)
	assert.Len(t, merged.Changes, 2)
}

func TestMerge_RefusesUnresolvedConflict(t *testing.T) {
	base := time.Now()
	v1 := domain.TagVersion{Tag: "pop", Version: 1, Changes: []domain.TagChange{renameChange("pop", "pop-music", base)}}
	v2 := domain.TagVersion{Tag: "pop", Version: 1, Changes: []domain.TagChange{renameChange("pop", "popular", base)}}

	_, report, err := Merge(v1, v2, nil)
	require.Error(t, err)
	assert.True(t, report.HasConflicts)
}

func TestMerge_ResolvedConflictKeepsPickedSide(t *testing.T) {
	base := time.Now()
	v1 := domain.TagVersion{Tag: "pop", Version: 1, Changes: []domain.TagChange{renameChange("pop", "pop-music", base)}}
	v2 := domain.TagVersion{Tag: "pop", Version: 2, Changes: []domain.TagChange{renameChange("pop", "popular", base)}}

	merged, _, err := Merge(v1, v2, map[domain.ChangeType]Side{domain.ChangeRename: SideTheirs})
	require.NoError(t, err)
	require.Len(t, merged.Changes, 1)
	assert.Equal(t, "popular", merged.Changes[0].Rename.NewValue)
	assert.Equal(t, 3, merged.Version)
}

func TestRevert_AppendsCompensatingVersion(t *testing.T) {
	base := time.Now()
	history := []domain.TagVersion{
		{Tag: "pop", Version: 1, Changes: []domain.TagChange{aliasChange("p", "pop", base)}},
		{Tag: "pop", Version: 2, Changes: []domain.TagChange{renameChange("pop", "popular", base)}},
	}

	v, err := Revert("pop", 1, history)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Version)
	require.Len(t, v.Changes, 1)
	assert.Equal(t, domain.ChangeRevert, v.Changes[0].Type)
	assert.Equal(t, 2, v.Changes[0].Revert.FromVersion)
	assert.Equal(t, 1, v.Changes[0].Revert.ToVersion)
}

func TestRevert_MissingTarget(t *testing.T) {
	history := []domain.TagVersion{{Tag: "pop", Version: 1}}

	_, err := Revert("pop", 7, history)
	var notFound *VersionNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 7, notFound.Version)
}

func TestValidateAll_ReportsGapsAndDuplicates(t *testing.T) {
	versions := []domain.TagVersion{
		{Tag: "pop", Version: 1},
		{Tag: "pop", Version: 2},
		{Tag: "pop", Version: 2}, // duplicate
		{Tag: "pop", Version: 5}, // gap: 3, 4 missing
		{Tag: "rock", Version: 1},
	}

	violations := ValidateAll(versions)

	var dups, gaps int
	for _, v := range violations {
		switch v.Type {
		case ViolationDuplicate:
			dups++
		case ViolationGap:
			gaps++
		}
	}
	assert.Equal(t, 1, dups)
	assert.Equal(t, 2, gaps)
}
