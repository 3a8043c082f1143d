// Package permission resolves a user's effective role on a tag from direct
// grants and hierarchy inheritance, and exposes capability checks.
// Authorization failures are boolean results, never errors — callers decide
// what a denial means at their boundary.
package permission

import (
	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/hierarchy"
)

// Resolver answers role and capability queries over a permission snapshot.
type Resolver struct {
	graph *hierarchy.Graph

	// tag → userID → role
	direct map[string]map[string]domain.Role
}

// NewResolver builds a resolver from a hierarchy graph and a permission
// snapshot. The graph's acyclicity invariant is what bounds the recursive
// inheritance walk: every mutation site checks it, so no defensive visited
// set is kept here. A corrupted cyclic graph fails loudly instead of looping
// silently.
func NewResolver(graph *hierarchy.Graph, perms []domain.TagPermission) *Resolver {
	direct := make(map[string]map[string]domain.Role)
	for _, p := range perms {
		byUser := direct[p.Tag]
		if byUser == nil {
			byUser = make(map[string]domain.Role)
			direct[p.Tag] = byUser
		}
		byUser[p.UserID] = p.Role
	}
	return &Resolver{graph: graph, direct: direct}
}

// DirectRole returns the explicit grant for (userID, tag), if any.
func (r *Resolver) DirectRole(userID, tag string) (domain.Role, bool) {
	role, ok := r.direct[tag][userID]
	return role, ok
}

// InheritedRole walks the tag's parents recursively and returns the first
// role found. The walk is depth-first with parents visited in lexicographic
// order, so the result is deterministic even when several ancestors grant
// different roles — though not necessarily the nearest ancestor's role.
func (r *Resolver) InheritedRole(userID, tag string) (domain.Role, bool) {
	for _, parent := range r.graph.Parents(tag) {
		if role, ok := r.EffectiveRole(userID, parent); ok {
			return role, ok
		}
	}
	return "", false
}

// EffectiveRole returns the direct grant when one exists, falling back to
// inheritance. A direct grant always wins, even when an ancestor grants a
// stronger role.
func (r *Resolver) EffectiveRole(userID, tag string) (domain.Role, bool) {
	if role, ok := r.DirectRole(userID, tag); ok {
		return role, ok
	}
	return r.InheritedRole(userID, tag)
}

// Governed reports whether the tag or any of its ancestors carries at least
// one explicit grant. Ungoverned tags are open: capability checks pass for
// everyone until someone claims the tag with a grant.
func (r *Resolver) Governed(tag string) bool {
	if len(r.direct[tag]) > 0 {
		return true
	}
	for _, ancestor := range r.graph.Ancestors(tag) {
		if len(r.direct[ancestor]) > 0 {
			return true
		}
	}
	return false
}

// CanView reports whether userID may read the tag.
func (r *Resolver) CanView(userID, tag string) bool {
	if !r.Governed(tag) {
		return true
	}
	role, ok := r.EffectiveRole(userID, tag)
	return ok && role.CanView()
}

// CanEdit reports whether userID may modify the tag.
func (r *Resolver) CanEdit(userID, tag string) bool {
	if !r.Governed(tag) {
		return true
	}
	role, ok := r.EffectiveRole(userID, tag)
	return ok && role.CanEdit()
}

// CanAdmin reports whether userID may manage the tag's permissions.
func (r *Resolver) CanAdmin(userID, tag string) bool {
	if !r.Governed(tag) {
		return true
	}
	role, ok := r.EffectiveRole(userID, tag)
	return ok && role.CanAdmin()
}
