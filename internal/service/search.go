package service

import (
	"context"
	"log/slog"

	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/search"
	"github.com/cmskit/cmskit-server/internal/store"
	"github.com/cmskit/cmskit-server/internal/tree"
)

// SearchService answers page searches and keeps the index complete.
// A nil index means search is disabled.
type SearchService struct {
	index  *search.PageIndex
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.PageIndex, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Enabled reports whether an index is configured.
func (s *SearchService) Enabled() bool {
	return s.index != nil
}

// DocumentCount returns the number of indexed pages.
func (s *SearchService) DocumentCount() (uint64, error) {
	if s.index == nil {
		return 0, nil
	}
	return s.index.DocumentCount()
}

// Search runs a query against the page index.
func (s *SearchService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if s.index == nil {
		return nil, domainerrors.NotFound("search is disabled")
	}
	return s.index.Search(ctx, params)
}

// ReindexAll rebuilds the index from every stored page.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	pages, err := s.store.FindPages(ctx, tree.Where(tree.All()))
	if err != nil {
		return err
	}
	if err := s.index.Rebuild(ctx, pages); err != nil {
		return err
	}
	s.logger.Info("search index rebuilt", "pages", len(pages))
	return nil
}

// IndexMissing rebuilds the index when it is empty but pages exist, as
// after a first start or a mapping change.
func (s *SearchService) IndexMissing(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	count, err := s.index.DocumentCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	n, err := s.store.CountPages(ctx, tree.Active())
	if err != nil || n == 0 {
		return err
	}
	return s.ReindexAll(ctx)
}
