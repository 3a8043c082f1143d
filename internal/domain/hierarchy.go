package domain

import "time"

// HierarchyEdge is a directed parent→child relationship between two tags.
// The edge set as a whole must stay acyclic; a tag may have multiple parents
// and multiple children. Edges are created and removed explicitly by an
// authorized actor, never rewritten implicitly.
type HierarchyEdge struct {
	Parent    string    `json:"parent"`
	Child     string    `json:"child"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the unique identity of the edge. The NUL separator keeps keys
// collision-free for tag names that contain punctuation.
func (e HierarchyEdge) Key() string {
	return e.Parent + "\x00" + e.Child
}
