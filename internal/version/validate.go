package version

import (
	"fmt"
	"sort"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// ViolationType classifies a history integrity problem.
type ViolationType string

// Violation types.
const (
	ViolationDuplicate ViolationType = "duplicate"
	ViolationGap       ViolationType = "gap"
)

// Violation is one integrity problem in a version set. Problems are reported,
// never silently repaired.
type Violation struct {
	Type    ViolationType `json:"type"`
	Tag     string        `json:"tag"`
	Version int           `json:"version"`
	Message string        `json:"message"`
}

// ValidateAll checks version-set integrity: every (tag, version) pair must be
// unique, and each tag's version numbers must be contiguous from 1. All gaps
// and duplicates are returned.
func ValidateAll(versions []domain.TagVersion) []Violation {
	perTag := make(map[string][]int)
	for _, v := range versions {
		perTag[v.Tag] = append(perTag[v.Tag], v.Version)
	}

	tags := make([]string, 0, len(perTag))
	for tag := range perTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var out []Violation
	for _, tag := range tags {
		nums := perTag[tag]
		sort.Ints(nums)

		seen := make(map[int]bool)
		var unique []int
		for _, n := range nums {
			if seen[n] {
				out = append(out, Violation{
					Type:    ViolationDuplicate,
					Tag:     tag,
					Version: n,
					Message: fmt.Sprintf("tag %q has multiple version %d records", tag, n),
				})
				continue
			}
			seen[n] = true
			unique = append(unique, n)
		}

		expected := 1
		for _, n := range unique {
			for missing := expected; missing < n; missing++ {
				out = append(out, Violation{
					Type:    ViolationGap,
					Tag:     tag,
					Version: missing,
					Message: fmt.Sprintf("tag %q is missing version %d", tag, missing),
				})
			}
			expected = n + 1
		}
	}
	return out
}
