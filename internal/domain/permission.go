package domain

import "time"

// Role is a permission level a user holds on a tag.
type Role string

// Roles, strongest first. admin ⊇ editor ⊇ viewer for viewing;
// editing requires admin or editor.
const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// CanView reports whether the role grants read access.
func (r Role) CanView() bool {
	return r.Valid()
}

// CanEdit reports whether the role grants write access.
func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleEditor
}

// CanAdmin reports whether the role grants permission management.
func (r Role) CanAdmin() bool {
	return r == RoleAdmin
}

// TagPermission is an explicit grant of a role on a tag to a user.
// Unique per (tag, user) pair. Removal is a hard delete, not a tombstone;
// the audit log is the durable record of grant history.
type TagPermission struct {
	ID        string    `json:"id"`
	Tag       string    `json:"tag"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	UserName  string    `json:"user_name,omitempty"`
	UserEmail string    `json:"user_email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PermissionTemplate is a reusable bundle of role assignments applied to many
// tags at once. Applying a template fans out into individual TagPermission
// upserts plus matching audit entries.
type PermissionTemplate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Roles       []TemplateRole `json:"roles"`
	CreatorID   string         `json:"creator_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TemplateRole is one user/role pair inside a template.
type TemplateRole struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}
