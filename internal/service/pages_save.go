package service

import (
	"context"
	"fmt"

	"github.com/cmskit/cmskit-server/internal/domain"
	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/store"
	"github.com/cmskit/cmskit-server/internal/tree"
	"github.com/cmskit/cmskit-server/internal/util"
)

// Save persists a page and cascades derived-column changes to its subtree,
// all in one transaction. The tree columns (path, depth, numchild, parent)
// of sp are ignored and refreshed from storage.
//
// A page loaded generically while its concrete type is registered is
// saved through the concrete type: the base columns are written first, the
// page is reloaded as its concrete type and saved as moved, and sp is
// refreshed from the result.
func (s *PageService) Save(ctx context.Context, sp *domain.Specific) error {
	var touched []*domain.Page
	err := s.store.InTx(ctx, func(q store.Querier) error {
		touched = touched[:0]
		return s.saveInTx(ctx, q, sp, false, &touched)
	})
	if err != nil {
		return err
	}

	s.logger.Info("page saved", "id", sp.ID, "type", sp.TypeTag, "cascaded", len(touched)-1)
	s.reindex(ctx, touched)
	return nil
}

func (s *PageService) saveInTx(ctx context.Context, q store.Querier, sp *domain.Specific, moved bool, touched *[]*domain.Page) error {
	if !sp.IsSpecific() {
		if t, ok := s.registry.Resolve(sp.TypeTag); ok && t.Tag != sp.Type {
			return s.saveAsSpecific(ctx, q, sp, touched)
		}
	}
	return s.saveCascade(ctx, q, sp, moved, touched)
}

func (s *PageService) saveAsSpecific(ctx context.Context, q store.Querier, sp *domain.Specific, touched *[]*domain.Page) error {
	stored, err := getPage(ctx, q, sp.ID)
	if err != nil {
		return err
	}
	keepTreeColumns(sp.Page, stored)
	sp.Touch()
	if err := q.UpdatePage(ctx, sp.Page); err != nil {
		return err
	}

	concrete, err := s.resolver.ResolveOne(ctx, q, sp)
	if err != nil {
		return err
	}
	if err := s.saveCascade(ctx, q, concrete, true, touched); err != nil {
		return err
	}

	*sp.Page = *concrete.Page.Clone()
	return nil
}

// saveCascade saves root and walks its subtree breadth first while pages
// keep reporting a move. Each level's children are loaded with one bulk
// resolution per parent.
func (s *PageService) saveCascade(ctx context.Context, q store.Querier, root *domain.Specific, moved bool, touched *[]*domain.Page) error {
	type job struct {
		page   *domain.Specific
		parent *domain.Page
		moved  bool
	}

	work := []job{{page: root, moved: moved}}
	for len(work) > 0 {
		j := work[0]
		work = work[1:]

		changed, err := s.saveOne(ctx, q, j.page, j.parent, j.moved)
		if err != nil {
			return err
		}
		*touched = append(*touched, j.page.Page)
		if !changed || j.page.NumChild == 0 {
			continue
		}

		children, err := q.FindPages(ctx, tree.Where(tree.ChildOf(j.page.Page)))
		if err != nil {
			return err
		}
		resolved, err := s.resolver.ResolvePages(ctx, q, children)
		if err != nil {
			return err
		}
		for _, child := range resolved {
			work = append(work, job{page: child, parent: j.page.Page, moved: true})
		}
	}
	return nil
}

// saveOne recomputes the derived columns of sp against its parent, writes
// it and reports whether the page moved. parent may be nil, in which case
// it is read from storage.
func (s *PageService) saveOne(ctx context.Context, q store.Querier, sp *domain.Specific, parent *domain.Page, moved bool) (bool, error) {
	stored, err := getPage(ctx, q, sp.ID)
	if err != nil {
		return false, err
	}
	keepTreeColumns(sp.Page, stored)

	// Only roots may have an empty slug.
	if (sp.Slug == "" && !sp.IsRoot()) || (sp.Slug != "" && !util.ValidSlug(sp.Slug)) {
		return false, domainerrors.ValidationWithDetails("validation failed: slug",
			map[string]string{"slug": "may only contain letters, digits, underscores and dashes"})
	}

	if parent == nil && sp.ParentID != "" {
		if parent, err = getPage(ctx, q, sp.ParentID); err != nil {
			return false, err
		}
	}
	derive(sp.Page, parent)

	moved = moved ||
		stored.Slug != sp.Slug ||
		stored.SlugPath != sp.SlugPath ||
		stored.Active != sp.Active

	if parent != nil && stored.Slug != sp.Slug {
		if err := checkSiblingSlug(ctx, q, parent, sp.Slug, sp.ID); err != nil {
			return false, err
		}
	}

	sp.Touch()
	if err := q.UpdatePage(ctx, sp.Page); err != nil {
		return false, err
	}
	if err := s.saveFields(ctx, q, sp); err != nil {
		return false, err
	}

	if moved {
		if t, ok := s.registry.Resolve(sp.Type); ok && t.OnMoved != nil && sp.IsSpecific() {
			if err := t.OnMoved(ctx, q, sp); err != nil {
				return false, fmt.Errorf("moved hook of %s: %w", t.Tag, err)
			}
		}
	}
	return moved, nil
}

func (s *PageService) saveFields(ctx context.Context, q store.Querier, sp *domain.Specific) error {
	if !sp.IsSpecific() {
		return nil
	}
	t, ok := s.registry.Resolve(sp.Type)
	if !ok || t.Fields == nil {
		return nil
	}
	data, err := t.Fields.Encode(sp.Fields)
	if err != nil {
		return domainerrors.Validationf("fields of %s: %v", t.Tag, err)
	}
	return q.SaveFields(ctx, sp.ID, t.Tag, data)
}

// derive recomputes slug path, active flag and url path from the parent.
func derive(p, parent *domain.Page) {
	if parent == nil {
		p.SlugPath = ""
		p.Active = p.Published
	} else {
		p.SlugPath = parent.FullSlugPath()
		p.Active = p.Published && parent.Active
	}

	if path, _, ok := p.PathOrURL(); ok {
		p.URLPath = &path
	} else {
		p.URLPath = nil
	}
}

func keepTreeColumns(p, stored *domain.Page) {
	p.ParentID = stored.ParentID
	p.Path = stored.Path
	p.Depth = stored.Depth
	p.NumChild = stored.NumChild
	p.CreatedAt = stored.CreatedAt
}

// checkSiblingSlug fails with ConstraintViolation when another child of
// parent already uses slug.
func checkSiblingSlug(ctx context.Context, q store.PageQuerier, parent *domain.Page, slug, exceptID string) error {
	where := tree.And(tree.ChildOf(parent), tree.Slug(slug))
	if exceptID != "" {
		where = tree.And(where, tree.Not(tree.ID(exceptID)))
	}
	n, err := q.CountPages(ctx, where)
	if err != nil {
		return err
	}
	if n > 0 {
		return domainerrors.ConstraintViolationf("slug %q is already used under %s", slug, parent.ID)
	}
	return nil
}
