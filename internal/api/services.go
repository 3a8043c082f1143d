package api

import (
	"github.com/tagwardenapp/tagwarden-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Tag        *service.TagService
	Version    *service.VersionService
	Permission *service.PermissionService
	Hierarchy  *service.HierarchyService
	Constraint *service.ConstraintService
	Suggestion *service.SuggestionService
	Transfer   *service.TransferService
}
