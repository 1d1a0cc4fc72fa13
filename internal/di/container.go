// Package di provides dependency injection configuration for the cmskit server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/cmskit/cmskit-server/internal/config"
	"github.com/cmskit/cmskit-server/internal/di/providers"
	"github.com/cmskit/cmskit-server/internal/logger"
	"github.com/cmskit/cmskit-server/internal/service"
	"github.com/cmskit/cmskit-server/internal/treepath"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()
	do.Provide(injector, providers.ProvideConfig)
	register(injector)
	return injector
}

func register(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Page tree
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideCodec)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvidePageService)
	do.Provide(injector, providers.ProvideRouter)
	do.Provide(injector, providers.ProvideItemService)
	do.Provide(injector, providers.ProvideMenuService)
	do.Provide(injector, providers.ProvidePageTypes)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
}

// NewContainerWithConfig creates a container around an already loaded
// configuration instead of reading flags and the environment.
func NewContainerWithConfig(cfg *config.Config) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	register(injector)
	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	for _, invoke := range []func(do.Injector) error{
		invokeAs[*config.Config],
		invokeAs[*logger.Logger],
		invokeAs[*providers.StoreHandle],
		invokeAs[*providers.SearchIndexHandle],
		invokeAs[*service.SearchService],
		invokeAs[*treepath.Codec],
		invokeAs[*service.PageService],
		invokeAs[*service.ItemService],
		invokeAs[*providers.PageTypes],
	} {
		if err := invoke(injector); err != nil {
			return err
		}
	}

	return nil
}

// Serve starts the HTTP server on a bootstrapped container and schedules
// the initial search rebuild.
func Serve(injector *do.RootScope) error {
	if err := invokeAs[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}

func invokeAs[T any](i do.Injector) error {
	_, err := do.Invoke[T](i)
	return err
}
