package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/cmskit/cmskit-server/internal/domain"
	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/id"
	"github.com/cmskit/cmskit-server/internal/pagetype"
	"github.com/cmskit/cmskit-server/internal/store"
	"github.com/cmskit/cmskit-server/internal/tree"
	"github.com/cmskit/cmskit-server/internal/util"
)

// maxSlugAttempts bounds the "-N" suffix search for a free slug.
const maxSlugAttempts = 1000

// CreatePageRequest contains fields for creating a page.
type CreatePageRequest struct {
	Type    string `json:"type" validate:"required"`
	Title   string `json:"title" validate:"required,max=255"`
	Slug    string `json:"slug,omitempty" validate:"omitempty,slug,max=255"`
	URLText string `json:"urlText,omitempty" validate:"max=255"`

	Published    bool   `json:"published"`
	Behaviour    string `json:"behaviour,omitempty"`
	BaseTemplate string `json:"baseTemplate,omitempty"`
	AltTemplate  string `json:"altTemplate,omitempty"`
	AltView      string `json:"altView,omitempty"`

	MenuWeight        *int   `json:"menuWeight,omitempty"`
	MenuTitle         string `json:"menuTitle,omitempty"`
	MenuExtender      string `json:"menuExtender,omitempty"`
	MenuIn            *bool  `json:"menuIn,omitempty"`
	MenuInChain       *bool  `json:"menuInChain,omitempty"`
	MenuJump          bool   `json:"menuJump,omitempty"`
	MenuLoginRequired bool   `json:"menuLoginRequired,omitempty"`
	MenuShowCurrent   *bool  `json:"menuShowCurrent,omitempty"`

	// Fields holds the type-specific fields as a JSON object.
	Fields map[string]any `json:"fields,omitempty"`
}

// AddRoot creates a new top level page after the existing roots.
func (s *PageService) AddRoot(ctx context.Context, req CreatePageRequest) (*domain.Specific, error) {
	return s.create(ctx, "", req)
}

// AddChild creates a new page as the last child of parentID.
func (s *PageService) AddChild(ctx context.Context, parentID string, req CreatePageRequest) (*domain.Specific, error) {
	if parentID == "" {
		return nil, domainerrors.Validation("parent id is required")
	}
	return s.create(ctx, parentID, req)
}

func (s *PageService) create(ctx context.Context, parentID string, req CreatePageRequest) (*domain.Specific, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	t, ok := s.registry.Resolve(req.Type)
	if !ok || t.Base != s.resolver.BaseTag() {
		return nil, domainerrors.Validationf("unknown page type %q", req.Type)
	}
	if t.NotCreatable {
		return nil, domainerrors.ConstraintViolationf("pages of type %s cannot be created", t.Tag)
	}
	fields, err := decodeFields(t, req.Fields)
	if err != nil {
		return nil, err
	}

	pageID, err := id.NewPageID()
	if err != nil {
		return nil, err
	}

	var created *domain.Specific
	err = s.store.InTx(ctx, func(q store.Querier) error {
		var parent *domain.Page
		parentTag := ""
		if parentID != "" {
			if parent, err = getPage(ctx, q, parentID); err != nil {
				return err
			}
			parentTag = parent.TypeTag
		}

		if !s.registry.CanExistUnder(t.Tag, parentTag) {
			return domainerrors.ConstraintViolationf("%s cannot be placed under %s", t.Tag, describeParent(parentTag))
		}
		if t.MaxCount > 0 {
			n, err := q.CountPages(ctx, tree.TypeIn(t.Tag))
			if err != nil {
				return err
			}
			if n >= t.MaxCount {
				return domainerrors.ConstraintViolationf("at most %d pages of type %s may exist", t.MaxCount, t.Tag)
			}
		}

		p := newPageFromRequest(req)
		p.ID = pageID
		if p.Slug, err = s.pickSlug(ctx, q, parent, req); err != nil {
			return err
		}

		parentPath := ""
		if parent != nil {
			parentPath = parent.Path
			p.ParentID = parent.ID
		}
		if p.Path, err = s.nextChildPath(ctx, q, parentPath); err != nil {
			return err
		}
		p.Depth = s.codec.Depth(p.Path)
		derive(p, parent)
		p.InitTimestamps()

		if err := q.InsertPage(ctx, p); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domainerrors.ConstraintViolationf("path %s is taken", p.Path)
			}
			return err
		}
		if parent != nil {
			if err := q.AdjustNumChild(ctx, parent.ID, 1); err != nil {
				return err
			}
		}

		sp := &domain.Specific{Page: p, Type: t.Tag, Fields: fields}
		if err := s.saveFields(ctx, q, sp); err != nil {
			return err
		}

		stored, err := getPage(ctx, q, p.ID)
		if err != nil {
			return err
		}
		created, err = s.resolver.ResolveOne(ctx, q, s.resolver.Generic(stored))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("page created",
		"id", created.ID,
		"type", created.TypeTag,
		"path", created.Path,
		"parent", parentID,
	)
	s.reindex(ctx, []*domain.Page{created.Page})
	return created, nil
}

// nextChildPath allocates the step after the last child of parentPath.
func (s *PageService) nextChildPath(ctx context.Context, q store.PageQuerier, parentPath string) (string, error) {
	depth := s.codec.Depth(parentPath) + 1
	last, err := q.LastChildPath(ctx, parentPath, depth)
	if err != nil {
		return "", err
	}
	if last == "" {
		return s.codec.First(parentPath), nil
	}
	return s.codec.Next(last)
}

// pickSlug returns the requested slug, or one derived from the title with
// a "-N" suffix until it is free among the parent's children. Roots are not
// checked.
func (s *PageService) pickSlug(ctx context.Context, q store.PageQuerier, parent *domain.Page, req CreatePageRequest) (string, error) {
	if req.Slug != "" {
		if parent != nil {
			if err := checkSiblingSlug(ctx, q, parent, req.Slug, ""); err != nil {
				return "", err
			}
		}
		return req.Slug, nil
	}

	base := util.Slugify(req.Title)
	if base == "" {
		return "", domainerrors.ValidationWithDetails("validation failed: slug",
			map[string]string{"slug": "cannot be derived from the title"})
	}
	if parent == nil {
		return base, nil
	}
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := util.NthSlug(base, n)
		err := checkSiblingSlug(ctx, q, parent, candidate, "")
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, domainerrors.ErrConstraintViolation) {
			return "", err
		}
	}
	return "", domainerrors.ConstraintViolationf("no free slug for %q", base)
}

func newPageFromRequest(req CreatePageRequest) *domain.Page {
	p := domain.NewPage(req.Type, req.Title, req.Slug)
	p.URLText = req.URLText
	p.Published = req.Published
	p.Behaviour = req.Behaviour
	p.BaseTemplate = req.BaseTemplate
	p.AltTemplate = req.AltTemplate
	p.AltView = req.AltView
	p.MenuTitle = req.MenuTitle
	p.MenuExtender = req.MenuExtender
	p.MenuJump = req.MenuJump
	p.MenuLoginRequired = req.MenuLoginRequired
	if req.MenuWeight != nil {
		p.MenuWeight = *req.MenuWeight
	}
	if req.MenuIn != nil {
		p.MenuIn = *req.MenuIn
	}
	if req.MenuInChain != nil {
		p.MenuInChain = *req.MenuInChain
	}
	if req.MenuShowCurrent != nil {
		p.MenuShowCurrent = *req.MenuShowCurrent
	}
	return p
}

// decodeFields converts request fields into the type's field value.
func decodeFields(t *pagetype.Type, raw map[string]any) (any, error) {
	if t.Fields == nil {
		if len(raw) > 0 {
			return nil, domainerrors.Validationf("type %s has no fields", t.Tag)
		}
		return nil, nil
	}
	if raw == nil {
		return t.Fields.Zero(), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	v, err := t.Fields.Decode(data)
	if err != nil {
		return nil, domainerrors.Validationf("fields of %s: %v", t.Tag, err)
	}
	return v, nil
}

func describeParent(tag string) string {
	if tag == "" {
		return "the root level"
	}
	return tag
}
