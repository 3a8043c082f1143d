package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// ViolationType classifies a structural problem found by Validate.
type ViolationType string

// Violation types.
const (
	ViolationCycle     ViolationType = "cycle"
	ViolationOrphan    ViolationType = "orphan"
	ViolationDuplicate ViolationType = "duplicate"
)

// Violation is one structural problem with the tags it affects. Validate
// returns every violation it finds, never just the first — review UIs need
// to show all problems at once.
type Violation struct {
	Type    ViolationType `json:"type"`
	Message string        `json:"message"`
	Tags    []string      `json:"tags"`
}

// Validate runs a full-graph structural check over tag records and edges.
// It reports all cycles (DFS tracking the current path set), all orphans
// (tags unreachable from any parentless tag), and all duplicate tag records
// (same name appearing more than once).
func Validate(tags []domain.Tag, edges []domain.HierarchyEdge) []Violation {
	var violations []Violation
	violations = append(violations, findDuplicates(tags)...)
	violations = append(violations, findCycles(edges)...)
	violations = append(violations, findOrphans(tags, edges)...)
	return violations
}

func findDuplicates(tags []domain.Tag) []Violation {
	byName := make(map[string]int)
	for _, t := range tags {
		byName[t.Name]++
	}
	names := make([]string, 0)
	for name, n := range byName {
		if n > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []Violation
	for _, name := range names {
		out = append(out, Violation{
			Type:    ViolationDuplicate,
			Message: fmt.Sprintf("tag %q has %d records", name, byName[name]),
			Tags:    []string{name},
		})
	}
	return out
}

func findCycles(edges []domain.HierarchyEdge) []Violation {
	children := make(map[string][]string)
	nodes := make(map[string]bool)
	for _, e := range edges {
		children[e.Parent] = append(children[e.Parent], e.Child)
		nodes[e.Parent] = true
		nodes[e.Child] = true
	}
	for _, c := range children {
		sort.Strings(c)
	}

	starts := make([]string, 0, len(nodes))
	for n := range nodes {
		starts = append(starts, n)
	}
	sort.Strings(starts)

	var out []Violation
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var path []string

	var dfs func(string)
	dfs = func(tag string) {
		visited[tag] = true
		onPath[tag] = true
		path = append(path, tag)

		for _, child := range children[tag] {
			if onPath[child] {
				// Slice the current path from the repeated tag to close the loop.
				i := 0
				for ; i < len(path); i++ {
					if path[i] == child {
						break
					}
				}
				cycle := append(append([]string{}, path[i:]...), child)
				out = append(out, Violation{
					Type:    ViolationCycle,
					Message: "cycle detected: " + strings.Join(cycle, " → "),
					Tags:    cycle[:len(cycle)-1],
				})
				continue
			}
			if !visited[child] {
				dfs(child)
			}
		}

		onPath[tag] = false
		path = path[:len(path)-1]
	}

	for _, start := range starts {
		if !visited[start] {
			dfs(start)
		}
	}
	return out
}

func findOrphans(tags []domain.Tag, edges []domain.HierarchyEdge) []Violation {
	hasParent := make(map[string]bool)
	children := make(map[string][]string)
	for _, e := range edges {
		hasParent[e.Child] = true
		children[e.Parent] = append(children[e.Parent], e.Child)
	}

	// Mark everything reachable from the roots (tags with no parent).
	reachable := make(map[string]bool)
	var stack []string
	for _, t := range tags {
		if !hasParent[t.Name] {
			reachable[t.Name] = true
			stack = append(stack, t.Name)
		}
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range children[cur] {
			if !reachable[c] {
				reachable[c] = true
				stack = append(stack, c)
			}
		}
	}

	var orphans []string
	seen := make(map[string]bool)
	for _, t := range tags {
		if !reachable[t.Name] && !seen[t.Name] {
			seen[t.Name] = true
			orphans = append(orphans, t.Name)
		}
	}
	sort.Strings(orphans)

	var out []Violation
	for _, name := range orphans {
		out = append(out, Violation{
			Type:    ViolationOrphan,
			Message: fmt.Sprintf("tag %q is not reachable from any root", name),
			Tags:    []string{name},
		})
	}
	return out
}
