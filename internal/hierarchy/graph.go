// Package hierarchy maintains the directed acyclic graph of parent→child
// tag relationships and answers ancestor, descendant, and path queries.
// The graph is pure in-memory logic rebuilt from a store snapshot; callers
// persist accepted mutations.
package hierarchy

import (
	"fmt"
	"slices"
	"sort"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// CycleError reports an edge rejected because it would close a cycle.
type CycleError struct {
	Parent string
	Child  string
	Path   []string // child → … → parent, the existing path the edge would close
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("adding edge %q→%q would create a cycle", e.Parent, e.Child)
}

// DuplicateEdgeError reports an edge that already exists.
type DuplicateEdgeError struct {
	Parent string
	Child  string
}

func (e *DuplicateEdgeError) Error() string {
	return fmt.Sprintf("edge %q→%q already exists", e.Parent, e.Child)
}

// Graph is the adjacency view over a hierarchy edge set.
type Graph struct {
	children map[string][]string
	parents  map[string][]string
	edges    map[string]struct{}
}

// NewGraph builds a graph from an edge snapshot.
// Adjacency lists are kept sorted so traversal order is deterministic.
func NewGraph(edges []domain.HierarchyEdge) *Graph {
	g := &Graph{
		children: make(map[string][]string),
		parents:  make(map[string][]string),
		edges:    make(map[string]struct{}, len(edges)),
	}
	for _, e := range edges {
		g.insert(e.Parent, e.Child)
	}
	return g
}

func (g *Graph) insert(parent, child string) {
	key := domain.HierarchyEdge{Parent: parent, Child: child}.Key()
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}
	g.children[parent] = insertSorted(g.children[parent], child)
	g.parents[child] = insertSorted(g.parents[child], parent)
}

func insertSorted(list []string, s string) []string {
	i, found := slices.BinarySearch(list, s)
	if found {
		return list
	}
	return slices.Insert(list, i, s)
}

// HasEdge reports whether the exact parent→child edge exists.
func (g *Graph) HasEdge(parent, child string) bool {
	_, ok := g.edges[domain.HierarchyEdge{Parent: parent, Child: child}.Key()]
	return ok
}

// AddEdge adds parent→child. It fails with *CycleError if child is already an
// ancestor of parent and with *DuplicateEdgeError if the edge exists.
// On failure the graph is unchanged.
func (g *Graph) AddEdge(parent, child string) error {
	if g.HasEdge(parent, child) {
		return &DuplicateEdgeError{Parent: parent, Child: child}
	}
	if parent == child {
		return &CycleError{Parent: parent, Child: child, Path: []string{parent}}
	}
	if path := g.pathBetween(child, parent); path != nil {
		return &CycleError{Parent: parent, Child: child, Path: path}
	}
	g.insert(parent, child)
	return nil
}

// RemoveEdge removes parent→child. Removal is idempotent: a missing edge is
// not an error, matching the tolerant-delete behavior governance tools expect.
func (g *Graph) RemoveEdge(parent, child string) {
	key := domain.HierarchyEdge{Parent: parent, Child: child}.Key()
	if _, ok := g.edges[key]; !ok {
		return
	}
	delete(g.edges, key)
	g.children[parent] = remove(g.children[parent], child)
	g.parents[child] = remove(g.parents[child], parent)
}

func remove(list []string, s string) []string {
	if i := slices.Index(list, s); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}

// Parents returns the direct parents of tag in lexicographic order.
func (g *Graph) Parents(tag string) []string {
	return slices.Clone(g.parents[tag])
}

// Children returns the direct children of tag in lexicographic order.
func (g *Graph) Children(tag string) []string {
	return slices.Clone(g.children[tag])
}

// Ancestors returns every tag reachable by walking parent edges from tag,
// sorted lexicographically. The tag itself is excluded.
func (g *Graph) Ancestors(tag string) []string {
	return g.reachable(tag, g.parents)
}

// Descendants returns every tag reachable by walking child edges from tag,
// sorted lexicographically. The tag itself is excluded.
func (g *Graph) Descendants(tag string) []string {
	return g.reachable(tag, g.children)
}

func (g *Graph) reachable(tag string, adj map[string][]string) []string {
	seen := make(map[string]bool)
	stack := slices.Clone(adj[tag])
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, adj[cur]...)
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Path returns one concrete root-to-tag path, ending with the tag itself.
// Under multiple parents the path is not canonical in any semantic sense, but
// it is deterministic: parents are always walked in lexicographic order, so
// the same graph yields the same path. A tag with no parents is its own root.
func (g *Graph) Path(tag string) []string {
	path := []string{tag}
	seen := map[string]bool{tag: true}
	cur := tag
	for {
		parents := g.parents[cur]
		if len(parents) == 0 {
			break
		}
		next := ""
		for _, p := range parents {
			if !seen[p] {
				next = p
				break
			}
		}
		if next == "" {
			break
		}
		seen[next] = true
		path = append([]string{next}, path...)
		cur = next
	}
	return path
}

// pathBetween returns a from→…→to path following child edges, or nil.
func (g *Graph) pathBetween(from, to string) []string {
	type frame struct {
		tag  string
		path []string
	}
	seen := map[string]bool{from: true}
	queue := []frame{{tag: from, path: []string{from}}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.tag == to {
			return cur.path
		}
		for _, next := range g.children[cur.tag] {
			if seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, frame{tag: next, path: append(slices.Clone(cur.path), next)})
		}
	}
	return nil
}

// Edges returns the current edge set, sorted by parent then child.
func (g *Graph) Edges() []domain.HierarchyEdge {
	out := make([]domain.HierarchyEdge, 0, len(g.edges))
	for parent, children := range g.children {
		for _, child := range children {
			out = append(out, domain.HierarchyEdge{Parent: parent, Child: child})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Parent != out[j].Parent {
			return out[i].Parent < out[j].Parent
		}
		return out[i].Child < out[j].Child
	})
	return out
}
