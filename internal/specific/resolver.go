// Package specific turns generic page rows into instances of their concrete
// page types, fetching each distinct type once.
package specific

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmskit/cmskit-server/internal/domain"
	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/pagetype"
	"github.com/cmskit/cmskit-server/internal/store"
)

// Fetcher loads page rows by id, optionally with their type fields.
// store.Querier satisfies it.
type Fetcher interface {
	FetchTyped(ctx context.Context, ids []string, withFields bool) ([]store.TypedRow, error)
}

// Ref identifies a page and the type tag it claims.
type Ref struct {
	ID      string
	TypeTag string
}

// RefsOf returns the refs of pages in order.
func RefsOf(pages []*domain.Page) []Ref {
	refs := make([]Ref, len(pages))
	for i, p := range pages {
		refs[i] = Ref{ID: p.ID, TypeTag: p.TypeTag}
	}
	return refs
}

// Resolver loads pages as their concrete types.
type Resolver struct {
	registry *pagetype.Registry
	logger   *slog.Logger
	baseTag  string
}

// NewResolver creates a resolver for the tree whose base type is baseTag.
func NewResolver(registry *pagetype.Registry, baseTag string, logger *slog.Logger) *Resolver {
	return &Resolver{registry: registry, logger: logger, baseTag: baseTag}
}

// BaseTag returns the base type tag of the tree.
func (r *Resolver) BaseTag() string {
	return r.baseTag
}

// Generic wraps a base row without fetching.
func (r *Resolver) Generic(p *domain.Page) *domain.Specific {
	return &domain.Specific{Page: p, Type: r.baseTag}
}

// ResolveAll loads every ref as its concrete type with one fetch per
// distinct type tag. Output order follows refs; ids missing from the
// fetched rows are skipped. Tags the registry does not know are loaded
// generically.
func (r *Resolver) ResolveAll(ctx context.Context, f Fetcher, refs []Ref) ([]*domain.Specific, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	// Group ids by tag, keeping first-seen tag order.
	var tags []string
	groups := make(map[string][]string)
	for _, ref := range refs {
		if _, ok := groups[ref.TypeTag]; !ok {
			tags = append(tags, ref.TypeTag)
		}
		groups[ref.TypeTag] = append(groups[ref.TypeTag], ref.ID)
	}

	loaded := make(map[string]*domain.Specific, len(refs))
	for _, tag := range tags {
		ids := groups[tag]
		t, ok := r.registry.Resolve(tag)
		if !ok {
			r.logStale(tag, ids)
			rows, err := f.FetchTyped(ctx, ids, false)
			if err != nil {
				return nil, fmt.Errorf("fetch generic %s: %w", tag, err)
			}
			for _, row := range rows {
				loaded[row.Page.ID] = r.Generic(row.Page)
			}
			continue
		}

		rows, err := f.FetchTyped(ctx, ids, t.HasFields())
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", tag, err)
		}
		for _, row := range rows {
			s, err := decode(t, row)
			if err != nil {
				return nil, err
			}
			loaded[row.Page.ID] = s
		}
	}

	out := make([]*domain.Specific, 0, len(refs))
	for _, ref := range refs {
		if s, ok := loaded[ref.ID]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// ResolveOne returns s when it is already loaded as its concrete type,
// otherwise it fetches it once. A page deleted meanwhile is NotFound.
func (r *Resolver) ResolveOne(ctx context.Context, f Fetcher, s *domain.Specific) (*domain.Specific, error) {
	if s.IsSpecific() {
		return s, nil
	}
	if _, ok := r.registry.Resolve(s.TypeTag); !ok {
		r.logStale(s.TypeTag, []string{s.ID})
		return s, nil
	}
	out, err := r.ResolveAll(ctx, f, []Ref{{ID: s.ID, TypeTag: s.TypeTag}})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domainerrors.NotFoundf("page %s not found", s.ID)
	}
	return out[0], nil
}

// ResolvePages is ResolveAll over already loaded base rows.
func (r *Resolver) ResolvePages(ctx context.Context, f Fetcher, pages []*domain.Page) ([]*domain.Specific, error) {
	return r.ResolveAll(ctx, f, RefsOf(pages))
}

func (r *Resolver) logStale(tag string, ids []string) {
	err := domainerrors.TypeResolutionStalef("type %q is not registered", tag)
	r.logger.Warn("loading pages generically",
		"type", tag,
		"count", len(ids),
		"error", err,
	)
}

func decode(t *pagetype.Type, row store.TypedRow) (*domain.Specific, error) {
	s := &domain.Specific{Page: row.Page, Type: t.Tag}
	if t.Fields == nil {
		return s, nil
	}
	fields, err := t.Fields.Decode(row.Data)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", row.Page.ID, err)
	}
	s.Fields = fields
	return s, nil
}
