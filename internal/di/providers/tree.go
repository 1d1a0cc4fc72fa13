package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/cmskit/cmskit-server/internal/config"
	"github.com/cmskit/cmskit-server/internal/logger"
	"github.com/cmskit/cmskit-server/internal/pagetype"
	"github.com/cmskit/cmskit-server/internal/service"
	"github.com/cmskit/cmskit-server/internal/specific"
	"github.com/cmskit/cmskit-server/internal/treepath"
)

// ProvideRegistry provides the empty page type registry. Types are added
// by ProvidePageTypes once the services they reference exist.
func ProvideRegistry(i do.Injector) (*pagetype.Registry, error) {
	return pagetype.NewRegistry(), nil
}

// ProvideCodec provides the tree path codec.
func ProvideCodec(i do.Injector) (*treepath.Codec, error) {
	cfg := do.MustInvoke[*config.Config](i)
	codec, err := treepath.New(cfg.Tree.StepLength)
	if err != nil {
		return nil, fmt.Errorf("tree step length: %w", err)
	}
	return codec, nil
}

// ProvideResolver provides the specific type resolver.
func ProvideResolver(i do.Injector) (*specific.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	registry := do.MustInvoke[*pagetype.Registry](i)

	return specific.NewResolver(registry, cfg.Tree.BaseType, log.Component("resolver")), nil
}

// ProvidePageService provides the page tree service.
func ProvidePageService(i do.Injector) (*service.PageService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	// A nil *PageIndex must not reach the service as a non-nil interface.
	var indexer service.PageIndexer
	if indexHandle.PageIndex != nil {
		indexer = indexHandle.PageIndex
	}

	return service.NewPageService(
		storeHandle.Store,
		do.MustInvoke[*pagetype.Registry](i),
		do.MustInvoke[*treepath.Codec](i),
		do.MustInvoke[*specific.Resolver](i),
		indexer,
		log.Component("pages"),
	), nil
}

// ProvideRouter provides the public path router.
func ProvideRouter(i do.Injector) (*service.Router, error) {
	cfg := do.MustInvoke[*config.Config](i)
	pages := do.MustInvoke[*service.PageService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRouter(pages, cfg.Site.URLPrefix, log.Component("router")), nil
}

// ProvideItemService provides the item page service.
func ProvideItemService(i do.Injector) (*service.ItemService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	router := do.MustInvoke[*service.Router](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewItemService(storeHandle.Store, router, log.Component("items")), nil
}

// ProvideMenuService provides the navigation menu service.
func ProvideMenuService(i do.Injector) (*service.MenuService, error) {
	pages := do.MustInvoke[*service.PageService](i)
	router := do.MustInvoke[*service.Router](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMenuService(pages, router, log.Component("menu")), nil
}

// PageTypes marks the registry as fully populated and frozen.
type PageTypes struct {
	*pagetype.Registry
}

// ProvidePageTypes registers the built-in page types, validates their
// constraints and freezes the registry. Anything serving requests must
// depend on it.
func ProvidePageTypes(i do.Injector) (*PageTypes, error) {
	cfg := do.MustInvoke[*config.Config](i)
	registry := do.MustInvoke[*pagetype.Registry](i)
	items := do.MustInvoke[*service.ItemService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := service.RegisterDefaultTypes(registry, cfg.Tree.BaseType, items); err != nil {
		return nil, fmt.Errorf("register page types: %w", err)
	}
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("validate page types: %w", err)
	}
	registry.Freeze()

	log.Info("Page types registered",
		"base", cfg.Tree.BaseType,
		"types", len(registry.SubtypesOf(cfg.Tree.BaseType)),
	)

	return &PageTypes{Registry: registry}, nil
}
