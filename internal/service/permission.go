package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
	"github.com/tagwardenapp/tagwarden-server/internal/hierarchy"
	"github.com/tagwardenapp/tagwarden-server/internal/id"
	"github.com/tagwardenapp/tagwarden-server/internal/permission"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
)

// PermissionService orchestrates grants, templates, capability checks, and
// the audit trail. Reads build a resolver snapshot (grants + hierarchy) so
// inheritance is computed against one consistent view.
type PermissionService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPermissionService creates a new permission service.
func NewPermissionService(st *store.Store, logger *slog.Logger) *PermissionService {
	return &PermissionService{
		store:  st,
		logger: logger,
	}
}

// Resolver builds a point-in-time capability resolver from the current
// grants and hierarchy edges.
func (s *PermissionService) Resolver(ctx context.Context) (*permission.Resolver, error) {
	edges, err := s.store.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := s.store.ListAllPermissions(ctx)
	if err != nil {
		return nil, err
	}
	return permission.NewResolver(hierarchy.NewGraph(edges), perms), nil
}

// EffectiveRole returns the role a user holds on a tag, direct or inherited.
func (s *PermissionService) EffectiveRole(ctx context.Context, tag, userID string) (domain.Role, bool, error) {
	r, err := s.Resolver(ctx)
	if err != nil {
		return "", false, err
	}
	role, ok := r.EffectiveRole(userID, tag)
	return role, ok, nil
}

// Grant upserts a role for a user on a tag. The actor needs admin capability
// on the tag, except when the tag is ungoverned — the first grant bootstraps
// governance. The audit entry commits with the grant.
func (s *PermissionService) Grant(ctx context.Context, p *domain.TagPermission, actorID string) error {
	if !p.Role.Valid() {
		return errors.Validationf("unknown role %q", p.Role)
	}

	r, err := s.Resolver(ctx)
	if err != nil {
		return err
	}
	if r.Governed(p.Tag) && !r.CanAdmin(actorID, p.Tag) {
		return errors.Forbiddenf("user %q cannot manage permissions on %q", actorID, p.Tag)
	}

	if err := s.store.SetPermission(ctx, p, actorID); err != nil {
		return err
	}

	s.logger.Info("permission granted", "tag", p.Tag, "user", p.UserID, "role", p.Role, "actor", actorID)
	return nil
}

// Revoke removes a user's grant on a tag. Requires admin capability on the
// tag. The audit entry commits with the removal.
func (s *PermissionService) Revoke(ctx context.Context, tag, userID, actorID string) error {
	r, err := s.Resolver(ctx)
	if err != nil {
		return err
	}
	if !r.CanAdmin(actorID, tag) {
		return errors.Forbiddenf("user %q cannot manage permissions on %q", actorID, tag)
	}

	if err := s.store.RemovePermission(ctx, tag, userID, actorID); err != nil {
		return errTranslate(err)
	}

	s.logger.Info("permission revoked", "tag", tag, "user", userID, "actor", actorID)
	return nil
}

// ListForTag returns the direct grants on one tag.
func (s *PermissionService) ListForTag(ctx context.Context, tag string) ([]domain.TagPermission, error) {
	return s.store.ListPermissionsForTag(ctx, tag)
}

// ListForUser returns every direct grant a user holds.
func (s *PermissionService) ListForUser(ctx context.Context, userID string) ([]domain.TagPermission, error) {
	return s.store.ListPermissionsForUser(ctx, userID)
}

// AuditLog returns the audit history for a tag, oldest first.
func (s *PermissionService) AuditLog(ctx context.Context, tag string) ([]domain.AuditLogEntry, error) {
	return s.store.ListAuditForTag(ctx, tag)
}

// FullAuditLog returns every audit entry in the store, grouped by tag and
// chronological within each tag. Backs the admin audit export.
func (s *PermissionService) FullAuditLog(ctx context.Context) ([]domain.AuditLogEntry, error) {
	return s.store.ListAudit(ctx)
}

// CreateTemplate stores a reusable role bundle.
func (s *PermissionService) CreateTemplate(ctx context.Context, name, description string, roles []domain.TemplateRole, creatorID string) (*domain.PermissionTemplate, error) {
	if name == "" {
		return nil, errors.Validation("template name must not be empty")
	}
	if len(roles) == 0 {
		return nil, errors.Validation("template needs at least one role")
	}
	for _, r := range roles {
		if !r.Role.Valid() {
			return nil, errors.Validationf("unknown role %q", r.Role)
		}
	}

	now := time.Now()
	tpl := &domain.PermissionTemplate{
		ID:          id.MustGenerate("tpl"),
		Name:        name,
		Description: description,
		Roles:       roles,
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Templates.Create(ctx, tpl.ID, tpl); err != nil {
		return nil, errTranslate(err)
	}
	return tpl, nil
}

// GetTemplate returns a template by ID.
func (s *PermissionService) GetTemplate(ctx context.Context, templateID string) (*domain.PermissionTemplate, error) {
	tpl, err := s.store.Templates.Get(ctx, templateID)
	return tpl, errTranslate(err)
}

// ListTemplates returns every stored template.
func (s *PermissionService) ListTemplates(ctx context.Context) ([]domain.PermissionTemplate, error) {
	var out []domain.PermissionTemplate
	for tpl, err := range s.store.Templates.List(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, *tpl)
	}
	return out, nil
}

// DeleteTemplate removes a template. Grants already applied from it stay.
func (s *PermissionService) DeleteTemplate(ctx context.Context, templateID string) error {
	return s.store.Templates.Delete(ctx, templateID)
}

// ApplyTemplate fans a template out over a list of tags: one upsert plus one
// audit entry per (tag, user) pair. The actor needs admin capability on every
// governed target tag before any grant is written.
func (s *PermissionService) ApplyTemplate(ctx context.Context, templateID string, tags []string, actorID string) (int, error) {
	if len(tags) == 0 {
		return 0, errors.Validation("template application needs at least one tag")
	}

	tpl, err := s.store.Templates.Get(ctx, templateID)
	if err != nil {
		return 0, errTranslate(err)
	}

	r, err := s.Resolver(ctx)
	if err != nil {
		return 0, err
	}
	for _, tag := range tags {
		if r.Governed(tag) && !r.CanAdmin(actorID, tag) {
			return 0, errors.Forbiddenf("user %q cannot manage permissions on %q", actorID, tag)
		}
	}

	applied := 0
	for _, tag := range tags {
		for _, role := range tpl.Roles {
			p := &domain.TagPermission{
				Tag:    tag,
				UserID: role.UserID,
				Role:   role.Role,
			}
			if err := s.store.SetPermission(ctx, p, actorID); err != nil {
				return applied, err
			}
			applied++
		}
	}

	s.logger.Info("template applied", "template", tpl.Name, "tags", len(tags), "grants", applied, "actor", actorID)
	return applied, nil
}

// requireView converts a capability check into a Forbidden error.
func (s *PermissionService) requireView(ctx context.Context, tag, userID string) error {
	r, err := s.Resolver(ctx)
	if err != nil {
		return err
	}
	if !r.CanView(userID, tag) {
		return errors.Forbiddenf("user %q cannot view tag %q", userID, tag)
	}
	return nil
}

// requireEdit converts a capability check into a Forbidden error.
func (s *PermissionService) requireEdit(ctx context.Context, tag, userID string) error {
	r, err := s.Resolver(ctx)
	if err != nil {
		return err
	}
	if !r.CanEdit(userID, tag) {
		return errors.Forbiddenf("user %q cannot edit tag %q", userID, tag)
	}
	return nil
}

// requireAdmin converts a capability check into a Forbidden error.
func (s *PermissionService) requireAdmin(ctx context.Context, tag, userID string) error {
	r, err := s.Resolver(ctx)
	if err != nil {
		return err
	}
	if !r.CanAdmin(userID, tag) {
		return errors.Forbiddenf("user %q cannot administer tag %q", userID, tag)
	}
	return nil
}
