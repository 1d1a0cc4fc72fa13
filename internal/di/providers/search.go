package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cmskit/cmskit-server/internal/config"
	"github.com/cmskit/cmskit-server/internal/logger"
	"github.com/cmskit/cmskit-server/internal/search"
	"github.com/cmskit/cmskit-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// PageIndex is nil when search is disabled.
type SearchIndexHandle struct {
	*search.PageIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.PageIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve page index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Search disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewPageIndex(search.Options{
		DataPath: cfg.Search.Path,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "path", cfg.Search.Path, "documents", docCount)

	return &SearchIndexHandle{PageIndex: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(indexHandle.PageIndex, storeHandle.Store, log.Component("search")), nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index in the background
// when active pages exist. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !searchService.Enabled() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reindexTimeout)
		defer cancel()

		if err := searchService.IndexMissing(ctx); err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		count, _ := searchService.DocumentCount()
		log.Info("Search index ready", "documents", count)
	}()
}
