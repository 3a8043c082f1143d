package providers

import (
	"github.com/samber/do/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/logger"
	"github.com/tagwardenapp/tagwarden-server/internal/service"
)

// ProvidePermissionService provides the tag governance service.
func ProvidePermissionService(i do.Injector) (*service.PermissionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPermissionService(storeHandle.Store, log.Logger), nil
}

// ProvideVersionService provides the tag version history service.
func ProvideVersionService(i do.Injector) (*service.VersionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	permissionService := do.MustInvoke[*service.PermissionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVersionService(storeHandle.Store, permissionService, log.Logger), nil
}

// ProvideTagService provides the core tag lifecycle service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	versionService := do.MustInvoke[*service.VersionService](i)
	permissionService := do.MustInvoke[*service.PermissionService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, versionService, permissionService, indexHandle.SearchIndex, log.Logger), nil
}

// ProvideHierarchyService provides the tag hierarchy service.
func ProvideHierarchyService(i do.Injector) (*service.HierarchyService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	versionService := do.MustInvoke[*service.VersionService](i)
	permissionService := do.MustInvoke[*service.PermissionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewHierarchyService(storeHandle.Store, versionService, permissionService, log.Logger), nil
}

// ProvideConstraintService provides the tag set constraint service.
func ProvideConstraintService(i do.Injector) (*service.ConstraintService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	loaderHandle := do.MustInvoke[*RulesLoaderHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewConstraintService(storeHandle.Store, loaderHandle.Loader, log.Logger), nil
}

// ProvideSuggestionService provides the co-occurrence suggestion service.
func ProvideSuggestionService(i do.Injector) (*service.SuggestionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSuggestionService(storeHandle.Store, log.Logger), nil
}

// ProvideTransferService provides the bulk import/export service.
func ProvideTransferService(i do.Injector) (*service.TransferService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	permissionService := do.MustInvoke[*service.PermissionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTransferService(storeHandle.Store, permissionService, log.Logger), nil
}
