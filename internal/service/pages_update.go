package service

import (
	"context"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/store"
	"github.com/cmskit/cmskit-server/internal/tree"
)

// UpdatePageRequest contains the editable fields of a page. Nil fields are
// left unchanged.
type UpdatePageRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Slug    *string `json:"slug,omitempty" validate:"omitempty,slug,max=255"`
	URLText *string `json:"urlText,omitempty" validate:"omitempty,max=255"`

	Published    *bool   `json:"published,omitempty"`
	Behaviour    *string `json:"behaviour,omitempty"`
	BaseTemplate *string `json:"baseTemplate,omitempty"`
	AltTemplate  *string `json:"altTemplate,omitempty"`
	AltView      *string `json:"altView,omitempty"`

	MenuWeight        *int    `json:"menuWeight,omitempty"`
	MenuTitle         *string `json:"menuTitle,omitempty"`
	MenuExtender      *string `json:"menuExtender,omitempty"`
	MenuIn            *bool   `json:"menuIn,omitempty"`
	MenuInChain       *bool   `json:"menuInChain,omitempty"`
	MenuJump          *bool   `json:"menuJump,omitempty"`
	MenuLoginRequired *bool   `json:"menuLoginRequired,omitempty"`
	MenuShowCurrent   *bool   `json:"menuShowCurrent,omitempty"`

	// Fields replaces the type-specific fields when set.
	Fields map[string]any `json:"fields,omitempty"`
}

// Update applies req to a page and saves it.
func (s *PageService) Update(ctx context.Context, id string, req UpdatePageRequest) (*domain.Specific, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	sp, err := s.GetSpecific(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Fields != nil {
		if t, ok := s.registry.Resolve(sp.Type); ok && sp.IsSpecific() {
			if sp.Fields, err = decodeFields(t, req.Fields); err != nil {
				return nil, err
			}
		}
	}
	applyUpdate(sp.Page, req)

	if err := s.Save(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func applyUpdate(p *domain.Page, req UpdatePageRequest) {
	setString(&p.Title, req.Title)
	setString(&p.Slug, req.Slug)
	setString(&p.URLText, req.URLText)
	setBool(&p.Published, req.Published)
	setString(&p.Behaviour, req.Behaviour)
	setString(&p.BaseTemplate, req.BaseTemplate)
	setString(&p.AltTemplate, req.AltTemplate)
	setString(&p.AltView, req.AltView)
	if req.MenuWeight != nil {
		p.MenuWeight = *req.MenuWeight
	}
	setString(&p.MenuTitle, req.MenuTitle)
	setString(&p.MenuExtender, req.MenuExtender)
	setBool(&p.MenuIn, req.MenuIn)
	setBool(&p.MenuInChain, req.MenuInChain)
	setBool(&p.MenuJump, req.MenuJump)
	setBool(&p.MenuLoginRequired, req.MenuLoginRequired)
	setBool(&p.MenuShowCurrent, req.MenuShowCurrent)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Delete removes a page and its whole subtree. The stored row is re-read
// so a stale or specific copy held by the caller cannot narrow the delete.
func (s *PageService) Delete(ctx context.Context, id string) error {
	var (
		removed []string
		deleted int64
	)
	err := s.store.InTx(ctx, func(q store.Querier) error {
		p, err := getPage(ctx, q, id)
		if err != nil {
			return err
		}

		subtree, err := q.FindPages(ctx, tree.Where(tree.DescendantOf(p, true)))
		if err != nil {
			return err
		}
		removed = removed[:0]
		for _, n := range subtree {
			removed = append(removed, n.ID)
		}

		if deleted, err = q.DeleteSubtree(ctx, p.Path); err != nil {
			return err
		}
		if p.ParentID != "" {
			return q.AdjustNumChild(ctx, p.ParentID, -1)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("page deleted", "id", id, "pages", deleted)
	if err := s.indexer.RemovePages(ctx, removed); err != nil {
		s.logger.Warn("search index removal failed", "count", len(removed), "error", err)
	}
	return nil
}
