package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

func (s *Server) registerPermissionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "grantPermission",
		Method:      http.MethodPost,
		Path:        "/api/v1/permissions",
		Summary:     "Grant permission",
		Description: "Grants or updates a role for a user on a tag; the first grant on an ungoverned tag bootstraps governance",
		Tags:        []string{"Permissions"},
	}, s.handleGrantPermission)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokePermission",
		Method:      http.MethodDelete,
		Path:        "/api/v1/permissions",
		Summary:     "Revoke permission",
		Description: "Removes a user's role on a tag",
		Tags:        []string{"Permissions"},
	}, s.handleRevokePermission)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTagPermissions",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/permissions",
		Summary:     "List tag permissions",
		Description: "Returns every direct grant on a tag",
		Tags:        []string{"Permissions"},
	}, s.handleListTagPermissions)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUserPermissions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userId}/permissions",
		Summary:     "List user permissions",
		Description: "Returns every direct grant held by a user",
		Tags:        []string{"Permissions"},
	}, s.handleListUserPermissions)

	huma.Register(s.api, huma.Operation{
		OperationID: "effectiveRole",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/permissions/{userId}",
		Summary:     "Effective role",
		Description: "Returns the role a user holds on a tag, direct or inherited from an ancestor",
		Tags:        []string{"Permissions"},
	}, s.handleEffectiveRole)

	huma.Register(s.api, huma.Operation{
		OperationID: "tagAuditLog",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/audit",
		Summary:     "Tag audit log",
		Description: "Returns every permission change recorded for a tag",
		Tags:        []string{"Permissions"},
	}, s.handleTagAuditLog)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAuditLog",
		Method:      http.MethodGet,
		Path:        "/api/v1/audit",
		Summary:     "Full audit log",
		Description: "Exports every permission change across all tags, grouped by tag",
		Tags:        []string{"Permissions"},
	}, s.handleListAuditLog)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTemplate",
		Method:      http.MethodPost,
		Path:        "/api/v1/templates",
		Summary:     "Create permission template",
		Description: "Creates a reusable bundle of role assignments",
		Tags:        []string{"Permissions"},
	}, s.handleCreateTemplate)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTemplates",
		Method:      http.MethodGet,
		Path:        "/api/v1/templates",
		Summary:     "List permission templates",
		Description: "Returns all permission templates",
		Tags:        []string{"Permissions"},
	}, s.handleListTemplates)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTemplate",
		Method:      http.MethodGet,
		Path:        "/api/v1/templates/{id}",
		Summary:     "Get permission template",
		Description: "Returns one permission template by ID",
		Tags:        []string{"Permissions"},
	}, s.handleGetTemplate)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTemplate",
		Method:      http.MethodDelete,
		Path:        "/api/v1/templates/{id}",
		Summary:     "Delete permission template",
		Description: "Deletes a permission template; grants already applied stay in place",
		Tags:        []string{"Permissions"},
	}, s.handleDeleteTemplate)

	huma.Register(s.api, huma.Operation{
		OperationID: "applyTemplate",
		Method:      http.MethodPost,
		Path:        "/api/v1/templates/{id}/apply",
		Summary:     "Apply permission template",
		Description: "Fans a template out over a set of tags; the actor needs admin on every governed target",
		Tags:        []string{"Permissions"},
	}, s.handleApplyTemplate)
}

// === DTOs ===

// PermissionResponse contains one grant in API responses.
type PermissionResponse struct {
	ID        string    `json:"id" doc:"Permission ID"`
	Tag       string    `json:"tag" doc:"Tag name"`
	UserID    string    `json:"user_id" doc:"Subject user"`
	Role      string    `json:"role" doc:"Granted role"`
	UserName  string    `json:"user_name,omitempty" doc:"Display name"`
	UserEmail string    `json:"user_email,omitempty" doc:"Email address"`
	CreatedAt time.Time `json:"created_at" doc:"Grant time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

func toPermissionResponse(p domain.TagPermission) PermissionResponse {
	return PermissionResponse{
		ID:        p.ID,
		Tag:       p.Tag,
		UserID:    p.UserID,
		Role:      string(p.Role),
		UserName:  p.UserName,
		UserEmail: p.UserEmail,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// GrantPermissionRequest is the request body for granting a role.
type GrantPermissionRequest struct {
	Tag       string `json:"tag" validate:"required" doc:"Tag name"`
	UserID    string `json:"user_id" validate:"required" doc:"Subject user"`
	Role      string `json:"role" validate:"required,oneof=admin editor viewer" doc:"Role to grant"`
	UserName  string `json:"user_name,omitempty" doc:"Display name"`
	UserEmail string `json:"user_email,omitempty" validate:"omitempty,email" doc:"Email address"`
}

// GrantPermissionInput wraps the grant request for Huma.
type GrantPermissionInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the grant"`
	Body    GrantPermissionRequest
}

// RevokePermissionInput contains parameters for revoking a role.
type RevokePermissionInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the revoke"`
	Tag     string `query:"tag" required:"true" doc:"Tag name"`
	UserID  string `query:"userId" required:"true" doc:"Subject user"`
}

// ListTagPermissionsInput contains parameters for listing grants on a tag.
type ListTagPermissionsInput struct {
	Name string `path:"name" doc:"Tag name"`
}

// ListUserPermissionsInput contains parameters for listing a user's grants.
type ListUserPermissionsInput struct {
	UserID string `path:"userId" doc:"User ID"`
}

// PermissionListResponse contains a list of grants.
type PermissionListResponse struct {
	Permissions []PermissionResponse `json:"permissions" doc:"Direct grants"`
}

// PermissionListOutput wraps a permission list for Huma.
type PermissionListOutput struct {
	Body PermissionListResponse
}

// EffectiveRoleInput contains parameters for resolving a role.
type EffectiveRoleInput struct {
	Name   string `path:"name" doc:"Tag name"`
	UserID string `path:"userId" doc:"User ID"`
}

// EffectiveRoleResponse contains the resolved role for a user on a tag.
type EffectiveRoleResponse struct {
	Tag     string `json:"tag" doc:"Tag name"`
	UserID  string `json:"user_id" doc:"User ID"`
	Role    string `json:"role,omitempty" doc:"Effective role, empty when none"`
	HasRole bool   `json:"has_role" doc:"Whether the user holds any role on the tag"`
}

// EffectiveRoleOutput wraps the effective role response for Huma.
type EffectiveRoleOutput struct {
	Body EffectiveRoleResponse
}

// AuditLogInput contains parameters for reading a tag's audit log.
type AuditLogInput struct {
	Name string `path:"name" doc:"Tag name"`
}

// AuditLogResponse contains permission audit entries for a tag.
type AuditLogResponse struct {
	Entries []domain.AuditLogEntry `json:"entries" doc:"Audit entries, oldest first"`
}

// AuditLogOutput wraps the audit log response for Huma.
type AuditLogOutput struct {
	Body AuditLogResponse
}

// TemplateRoleRequest is one user/role pair in a template request.
type TemplateRoleRequest struct {
	UserID string `json:"user_id" validate:"required" doc:"Subject user"`
	Role   string `json:"role" validate:"required,oneof=admin editor viewer" doc:"Role to grant"`
}

// CreateTemplateRequest is the request body for creating a template.
type CreateTemplateRequest struct {
	Name        string                `json:"name" validate:"required,min=1,max=100" doc:"Template name"`
	Description string                `json:"description,omitempty" doc:"What the template is for"`
	Roles       []TemplateRoleRequest `json:"roles" validate:"required,min=1" doc:"Role assignments"`
}

// CreateTemplateInput wraps the create template request for Huma.
type CreateTemplateInput struct {
	ActorID string `header:"X-Actor-ID" doc:"Template creator"`
	Body    CreateTemplateRequest
}

// TemplateOutput wraps a template for Huma.
type TemplateOutput struct {
	Body domain.PermissionTemplate
}

// TemplateListResponse contains all templates.
type TemplateListResponse struct {
	Templates []domain.PermissionTemplate `json:"templates" doc:"All permission templates"`
}

// TemplateListOutput wraps a template list for Huma.
type TemplateListOutput struct {
	Body TemplateListResponse
}

// GetTemplateInput contains parameters for reading a template.
type GetTemplateInput struct {
	ID string `path:"id" doc:"Template ID"`
}

// DeleteTemplateInput contains parameters for deleting a template.
type DeleteTemplateInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the delete"`
	ID      string `path:"id" doc:"Template ID"`
}

// ApplyTemplateRequest is the request body for applying a template.
type ApplyTemplateRequest struct {
	Tags []string `json:"tags" validate:"required,min=1" doc:"Tags to apply the template to"`
}

// ApplyTemplateInput wraps the apply template request for Huma.
type ApplyTemplateInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the apply"`
	ID      string `path:"id" doc:"Template ID"`
	Body    ApplyTemplateRequest
}

// ApplyTemplateResponse reports how many grants the template produced.
type ApplyTemplateResponse struct {
	Applied int `json:"applied" doc:"Number of grants written"`
}

// ApplyTemplateOutput wraps the apply response for Huma.
type ApplyTemplateOutput struct {
	Body ApplyTemplateResponse
}

// === Handlers ===

func (s *Server) handleGrantPermission(ctx context.Context, input *GrantPermissionInput) (*MessageOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	p := &domain.TagPermission{
		Tag:       input.Body.Tag,
		UserID:    input.Body.UserID,
		Role:      domain.Role(input.Body.Role),
		UserName:  input.Body.UserName,
		UserEmail: input.Body.UserEmail,
	}
	if err := s.services.Permission.Grant(ctx, p, actorID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Permission granted"}}, nil
}

func (s *Server) handleRevokePermission(ctx context.Context, input *RevokePermissionInput) (*MessageOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Permission.Revoke(ctx, input.Tag, input.UserID, actorID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Permission revoked"}}, nil
}

func (s *Server) handleListTagPermissions(ctx context.Context, input *ListTagPermissionsInput) (*PermissionListOutput, error) {
	perms, err := s.services.Permission.ListForTag(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	resp := make([]PermissionResponse, len(perms))
	for i, p := range perms {
		resp[i] = toPermissionResponse(p)
	}

	return &PermissionListOutput{Body: PermissionListResponse{Permissions: resp}}, nil
}

func (s *Server) handleListUserPermissions(ctx context.Context, input *ListUserPermissionsInput) (*PermissionListOutput, error) {
	perms, err := s.services.Permission.ListForUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	resp := make([]PermissionResponse, len(perms))
	for i, p := range perms {
		resp[i] = toPermissionResponse(p)
	}

	return &PermissionListOutput{Body: PermissionListResponse{Permissions: resp}}, nil
}

func (s *Server) handleEffectiveRole(ctx context.Context, input *EffectiveRoleInput) (*EffectiveRoleOutput, error) {
	role, ok, err := s.services.Permission.EffectiveRole(ctx, input.Name, input.UserID)
	if err != nil {
		return nil, err
	}

	return &EffectiveRoleOutput{
		Body: EffectiveRoleResponse{
			Tag:     input.Name,
			UserID:  input.UserID,
			Role:    string(role),
			HasRole: ok,
		},
	}, nil
}

func (s *Server) handleTagAuditLog(ctx context.Context, input *AuditLogInput) (*AuditLogOutput, error) {
	entries, err := s.services.Permission.AuditLog(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	return &AuditLogOutput{Body: AuditLogResponse{Entries: entries}}, nil
}

func (s *Server) handleListAuditLog(ctx context.Context, _ *struct{}) (*AuditLogOutput, error) {
	entries, err := s.services.Permission.FullAuditLog(ctx)
	if err != nil {
		return nil, err
	}

	return &AuditLogOutput{Body: AuditLogResponse{Entries: entries}}, nil
}

func (s *Server) handleCreateTemplate(ctx context.Context, input *CreateTemplateInput) (*TemplateOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	roles := make([]domain.TemplateRole, len(input.Body.Roles))
	for i, r := range input.Body.Roles {
		roles[i] = domain.TemplateRole{
			UserID: r.UserID,
			Role:   domain.Role(r.Role),
		}
	}

	tmpl, err := s.services.Permission.CreateTemplate(ctx, input.Body.Name, input.Body.Description, roles, actorID)
	if err != nil {
		return nil, err
	}

	return &TemplateOutput{Body: *tmpl}, nil
}

func (s *Server) handleListTemplates(ctx context.Context, _ *struct{}) (*TemplateListOutput, error) {
	templates, err := s.services.Permission.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	return &TemplateListOutput{Body: TemplateListResponse{Templates: templates}}, nil
}

func (s *Server) handleGetTemplate(ctx context.Context, input *GetTemplateInput) (*TemplateOutput, error) {
	tmpl, err := s.services.Permission.GetTemplate(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &TemplateOutput{Body: *tmpl}, nil
}

func (s *Server) handleDeleteTemplate(ctx context.Context, input *DeleteTemplateInput) (*MessageOutput, error) {
	if _, err := requireActor(input.ActorID); err != nil {
		return nil, err
	}

	if err := s.services.Permission.DeleteTemplate(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Template deleted"}}, nil
}

func (s *Server) handleApplyTemplate(ctx context.Context, input *ApplyTemplateInput) (*ApplyTemplateOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	applied, err := s.services.Permission.ApplyTemplate(ctx, input.ID, input.Body.Tags, actorID)
	if err != nil {
		return nil, err
	}

	return &ApplyTemplateOutput{Body: ApplyTemplateResponse{Applied: applied}}, nil
}
