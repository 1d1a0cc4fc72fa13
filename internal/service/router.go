package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/cmskit/cmskit-server/internal/domain"
	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/pagetype"
	"github.com/cmskit/cmskit-server/internal/tree"
)

// Router resolves request paths to pages and runs their behaviour.
type Router struct {
	pages     *PageService
	registry  *pagetype.Registry
	urlPrefix string
	logger    *slog.Logger
}

// NewRouter creates a router serving pages below urlPrefix.
func NewRouter(pages *PageService, urlPrefix string, logger *slog.Logger) *Router {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Router{
		pages:     pages,
		registry:  pages.Registry(),
		urlPrefix: urlPrefix,
		logger:    logger,
	}
}

// AbsoluteURL returns the public URL of a page: its external link when it
// has one, otherwise the prefix plus its url path.
func (r *Router) AbsoluteURL(p *domain.Page) string {
	path, link, ok := p.PathOrURL()
	if !ok {
		return link
	}
	if path == "" {
		return r.urlPrefix
	}
	return r.urlPrefix + path + "/"
}

// Resolve finds the page serving link. Every prefix of the path is a
// candidate url path; the longest active candidate matching exactly wins,
// otherwise candidates are offered the remaining segments in order of url
// path length and menu weight until one consumes them.
func (r *Router) Resolve(ctx context.Context, link string, query url.Values) (*pagetype.Request, error) {
	path := strings.Trim(link, "/")

	var segments []string
	if path != "" {
		segments = strings.Split(path, "/")
	}
	candidates := make([]string, 0, len(segments)+1)
	for i := len(segments); i >= 0; i-- {
		candidates = append(candidates, strings.Join(segments[:i], "/"))
	}

	pages, err := r.pages.store.FindPages(ctx,
		tree.Where(tree.And(tree.Active(), tree.URLPathIn(candidates...))).
			OrderBy(tree.ByURLPathLengthDesc, tree.ByMenuWeightDesc))
	if err != nil {
		return nil, err
	}
	resolved, err := r.pages.Resolve(ctx, pages)
	if err != nil {
		return nil, err
	}

	for _, sp := range resolved {
		urlPath := sp.URLPathString()
		req := &pagetype.Request{Page: sp, Path: path, Query: query}
		if urlPath == path {
			return req, nil
		}

		req.Segments = strings.Split(strings.Trim(path[len(urlPath):], "/"), "/")
		t, ok := r.registry.Resolve(sp.Type)
		if !ok || t.Consume == nil {
			continue
		}
		consumed, err := t.Consume(ctx, req)
		if err != nil {
			return nil, err
		}
		if consumed {
			return req, nil
		}
	}

	r.logger.Debug("no page for path", "path", path, "candidates", len(resolved))
	return nil, domainerrors.NotFoundf("no page serves /%s", path)
}

// Behave runs the behaviour of a resolved page: its type's own behaviour
// when it defines one, the default otherwise.
func (r *Router) Behave(ctx context.Context, req *pagetype.Request) (*pagetype.Result, error) {
	if t, ok := r.registry.Resolve(req.Page.Type); ok && t.Behave != nil {
		return t.Behave(ctx, req)
	}
	return r.DefaultBehave(ctx, req)
}

// Serve resolves link and runs the page behaviour.
func (r *Router) Serve(ctx context.Context, link string, query url.Values) (*pagetype.Request, *pagetype.Result, error) {
	req, err := r.Resolve(ctx, link, query)
	if err != nil {
		return nil, nil, err
	}
	res, err := r.Behave(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return req, res, nil
}
