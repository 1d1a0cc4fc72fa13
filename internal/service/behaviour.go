package service

import (
	"context"
	"strings"

	"github.com/cmskit/cmskit-server/internal/domain"
	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/pagetype"
	"github.com/cmskit/cmskit-server/internal/tree"
)

// TemplatePrefix is the directory holding page templates.
const TemplatePrefix = "nodes"

// DefaultBehave is the behaviour of pages whose type does not define one:
// a named alt view when set, a redirect for menu jumps, the node view
// otherwise.
func (r *Router) DefaultBehave(ctx context.Context, req *pagetype.Request) (*pagetype.Result, error) {
	p := req.Page

	if p.AltView != "" {
		res, err := r.AltView(ctx, req, p.AltView)
		if err != nil || res != nil {
			return res, err
		}
	}

	if p.MenuJump {
		target, err := r.JumpTarget(ctx, p.Page)
		if err != nil {
			return nil, err
		}
		if target != nil {
			return &pagetype.Result{Redirect: r.AbsoluteURL(target)}, nil
		}
	}

	return r.NodeView(req), nil
}

// AltView runs the named alternative view of the page's type. A name the
// type does not offer is NotFound. A view may return a nil result to fall
// back to the regular behaviour.
func (r *Router) AltView(ctx context.Context, req *pagetype.Request, name string) (*pagetype.Result, error) {
	t, ok := r.registry.Resolve(req.Page.Type)
	if !ok || t.AltViews[name] == nil {
		return nil, domainerrors.NotFoundf("alt view %q of page %s/%s (%s) is not accessible",
			name, req.Page.TypeTag, req.Page.Slug, req.Page.ID)
	}
	return t.AltViews[name](ctx, req)
}

// NodeView renders the page itself.
func (r *Router) NodeView(req *pagetype.Request) *pagetype.Result {
	return &pagetype.Result{
		Templates: r.TemplateCandidates("node", req.Page.AltTemplate, req.Page.Type),
		Context:   map[string]any{"node": req.Page},
	}
}

// TemplateCandidates lists templates for kind from most to least specific:
// the alt template before the plain one, and for each, the page type's
// directory, the base type's directory, then the shared prefix.
func (r *Router) TemplateCandidates(kind, altTemplate, typeTag string) []string {
	bases := []string{kind + ".html"}
	if altTemplate != "" {
		bases = append([]string{kind + "." + altTemplate + ".html"}, bases...)
	}

	var dirs []string
	seen := make(map[string]bool)
	for _, tag := range []string{typeTag, r.pages.resolver.BaseTag()} {
		dir := TemplatePrefix + "/" + modelName(tag)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	dirs = append(dirs, TemplatePrefix)

	out := make([]string, 0, len(bases)*len(dirs))
	for _, b := range bases {
		for _, d := range dirs {
			out = append(out, d+"/"+b)
		}
	}
	return out
}

// JumpTarget follows menu jumps from p: while the current page jumps, its
// first active child becomes the target, and jumping targets are followed
// further. A page whose chain ends on a page without active children
// lands on the last jumping page reached. Nil means no redirect.
func (r *Router) JumpTarget(ctx context.Context, p *domain.Page) (*domain.Page, error) {
	from := p
	var to *domain.Page
	for {
		if from.MenuJump {
			children, err := r.pages.store.FindPages(ctx,
				tree.Where(tree.And(tree.ChildOf(from), tree.Active())).Take(1))
			if err != nil {
				return nil, err
			}
			if len(children) > 0 {
				to = children[0]
			}
		}
		if to != nil && to.MenuJump {
			from, to = to, nil
			continue
		}
		if to == nil && from.ID != p.ID {
			to = from
		}
		return to, nil
	}
}

// modelName is the last dotted part of a type tag.
func modelName(tag string) string {
	if i := strings.LastIndexByte(tag, '.'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}
