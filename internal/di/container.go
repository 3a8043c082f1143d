// Package di provides dependency injection configuration for the TagWarden server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/config"
	"github.com/tagwardenapp/tagwarden-server/internal/di/providers"
	"github.com/tagwardenapp/tagwarden-server/internal/logger"
	"github.com/tagwardenapp/tagwarden-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Rules layer
	do.Provide(injector, providers.ProvideRulesLoader)

	// Business services
	do.Provide(injector, providers.ProvidePermissionService)
	do.Provide(injector, providers.ProvideVersionService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideHierarchyService)
	do.Provide(injector, providers.ProvideConstraintService)
	do.Provide(injector, providers.ProvideSuggestionService)
	do.Provide(injector, providers.ProvideTransferService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.RulesLoaderHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.PermissionService](injector)
	_ = do.MustInvoke[*service.VersionService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.HierarchyService](injector)
	_ = do.MustInvoke[*service.ConstraintService](injector)
	_ = do.MustInvoke[*service.SuggestionService](injector)
	_ = do.MustInvoke[*service.TransferService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the typeahead index if it is empty but tags exist
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
