package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cmskit/cmskit-server/internal/domain"
	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/pagetype"
	"github.com/cmskit/cmskit-server/internal/specific"
	"github.com/cmskit/cmskit-server/internal/store"
	"github.com/cmskit/cmskit-server/internal/tree"
	"github.com/cmskit/cmskit-server/internal/treepath"
	"github.com/cmskit/cmskit-server/internal/validation"
)

// PageIndexer keeps a search index in step with committed page changes.
type PageIndexer interface {
	// SyncPages indexes active pages and drops inactive ones.
	SyncPages(ctx context.Context, pages []*domain.Page) error
	RemovePages(ctx context.Context, ids []string) error
}

type noopIndexer struct{}

func (noopIndexer) SyncPages(context.Context, []*domain.Page) error { return nil }
func (noopIndexer) RemovePages(context.Context, []string) error     { return nil }

// PageService owns the page tree: queries, and the mutations that keep
// paths, slug paths, active flags and child counts consistent.
type PageService struct {
	store     store.Store
	registry  *pagetype.Registry
	codec     *treepath.Codec
	resolver  *specific.Resolver
	indexer   PageIndexer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewPageService creates a new page service. A nil indexer disables search
// indexing.
func NewPageService(
	st store.Store,
	registry *pagetype.Registry,
	codec *treepath.Codec,
	resolver *specific.Resolver,
	indexer PageIndexer,
	logger *slog.Logger,
) *PageService {
	if indexer == nil {
		indexer = noopIndexer{}
	}
	return &PageService{
		store:     st,
		registry:  registry,
		codec:     codec,
		resolver:  resolver,
		indexer:   indexer,
		validator: validation.New(),
		logger:    logger,
	}
}

// Registry returns the page type registry.
func (s *PageService) Registry() *pagetype.Registry {
	return s.registry
}

// BaseType returns the tag of the tree's base page type.
func (s *PageService) BaseType() string {
	return s.resolver.BaseTag()
}

// Codec returns the path codec of the tree.
func (s *PageService) Codec() *treepath.Codec {
	return s.codec
}

// Get returns the generic row of a page.
func (s *PageService) Get(ctx context.Context, id string) (*domain.Page, error) {
	return getPage(ctx, s.store, id)
}

// GetSpecific returns a page loaded as its concrete type.
func (s *PageService) GetSpecific(ctx context.Context, id string) (*domain.Specific, error) {
	p, err := getPage(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return s.resolver.ResolveOne(ctx, s.store, s.resolver.Generic(p))
}

// Resolve loads pages as their concrete types in bulk.
func (s *PageService) Resolve(ctx context.Context, pages []*domain.Page) ([]*domain.Specific, error) {
	return s.resolver.ResolvePages(ctx, s.store, pages)
}

// Count returns the number of pages matching where.
func (s *PageService) Count(ctx context.Context, where tree.Predicate) (int, error) {
	return s.store.CountPages(ctx, where)
}

// Roots returns the top level pages.
func (s *PageService) Roots(ctx context.Context) ([]*domain.Page, error) {
	return s.store.FindPages(ctx, tree.Where(tree.Roots()))
}

// Children returns the direct children of a page in path order.
func (s *PageService) Children(ctx context.Context, id string) ([]*domain.Page, error) {
	return s.related(ctx, id, func(n *domain.Page) tree.Predicate { return tree.ChildOf(n) })
}

// Ancestors returns the ancestors of a page, root first.
func (s *PageService) Ancestors(ctx context.Context, id string, inclusive bool) ([]*domain.Page, error) {
	return s.related(ctx, id, func(n *domain.Page) tree.Predicate {
		return tree.AncestorOf(s.codec, n, inclusive)
	})
}

// Descendants returns every page below a page in path order.
func (s *PageService) Descendants(ctx context.Context, id string, inclusive bool) ([]*domain.Page, error) {
	return s.related(ctx, id, func(n *domain.Page) tree.Predicate { return tree.DescendantOf(n, inclusive) })
}

// Siblings returns the pages sharing a page's parent.
func (s *PageService) Siblings(ctx context.Context, id string, inclusive bool) ([]*domain.Page, error) {
	return s.related(ctx, id, func(n *domain.Page) tree.Predicate {
		return tree.SiblingOf(s.codec, n, inclusive)
	})
}

// NextSiblings returns the siblings after a page.
func (s *PageService) NextSiblings(ctx context.Context, id string) ([]*domain.Page, error) {
	return s.related(ctx, id, func(n *domain.Page) tree.Predicate {
		return tree.And(tree.SiblingOf(s.codec, n, false), tree.PathAfter(n.Path, false))
	})
}

// PrevSiblings returns the siblings before a page.
func (s *PageService) PrevSiblings(ctx context.Context, id string) ([]*domain.Page, error) {
	return s.related(ctx, id, func(n *domain.Page) tree.Predicate {
		return tree.And(tree.SiblingOf(s.codec, n, false), tree.PathBefore(n.Path, false))
	})
}

// Parent returns the parent of a page, or nil for a root.
func (s *PageService) Parent(ctx context.Context, id string) (*domain.Page, error) {
	pages, err := s.related(ctx, id, func(n *domain.Page) tree.Predicate { return tree.ParentOf(s.codec, n) })
	if err != nil || len(pages) == 0 {
		return nil, err
	}
	return pages[0], nil
}

// Tree returns the subtree rooted at id in path order, or the whole tree
// when id is empty.
func (s *PageService) Tree(ctx context.Context, id string) ([]*domain.Page, error) {
	if id == "" {
		return s.store.FindPages(ctx, tree.Where(tree.All()))
	}
	return s.Descendants(ctx, id, true)
}

// FirstCommonAncestor returns the deepest page that is an ancestor of
// every page in ids (or one of them when includeSelf is set). When nothing
// is shared, strict requests fail with NotFound and the others fall back
// to the first root of the tree.
func (s *PageService) FirstCommonAncestor(ctx context.Context, ids []string, includeSelf, strict bool) (*domain.Page, error) {
	var pages []*domain.Page
	if len(ids) > 0 {
		var err error
		pages, err = s.store.FindPages(ctx, tree.Where(tree.IDIn(ids...)))
		if err != nil {
			return nil, err
		}
	}

	if len(pages) > 0 {
		paths := make([]string, len(pages))
		for i, p := range pages {
			paths[i] = p.Path
		}
		if path, ok := tree.CommonAncestorPath(s.codec, paths, includeSelf); ok {
			p, err := s.store.GetPageByPath(ctx, path)
			if err == nil {
				return p, nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
		}
	}

	if strict {
		return nil, domainerrors.NotFound("no common ancestor")
	}
	roots, err := s.store.FindPages(ctx, tree.Where(tree.Roots()).Take(1))
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, domainerrors.NotFound("tree is empty")
	}
	return roots[0], nil
}

func (s *PageService) related(ctx context.Context, id string, pred func(*domain.Page) tree.Predicate) ([]*domain.Page, error) {
	n, err := getPage(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return s.store.FindPages(ctx, tree.Where(pred(n)))
}

func getPage(ctx context.Context, q store.PageQuerier, id string) (*domain.Page, error) {
	p, err := q.GetPage(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("page %s not found", id)
	}
	return p, err
}

// reindex pushes committed pages to the search index. Index failures are
// logged and never fail the mutation.
func (s *PageService) reindex(ctx context.Context, pages []*domain.Page) {
	if len(pages) == 0 {
		return
	}
	if err := s.indexer.SyncPages(ctx, pages); err != nil {
		s.logger.Warn("search index sync failed", "count", len(pages), "error", err)
	}
}
