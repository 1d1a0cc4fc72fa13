package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/service"
)

func (s *Server) registerPageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRootPages",
		Method:      http.MethodGet,
		Path:        "/api/v1/pages",
		Summary:     "List root pages",
		Description: "Returns the top level pages of the tree in path order",
		Tags:        []string{"Pages"},
	}, s.handleListRootPages)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRootPage",
		Method:        http.MethodPost,
		Path:          "/api/v1/pages",
		Summary:       "Create root page",
		Description:   "Creates a page after the existing root pages",
		Tags:          []string{"Pages"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRootPage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPageTree",
		Method:      http.MethodGet,
		Path:        "/api/v1/pages/tree",
		Summary:     "Get page tree",
		Description: "Returns the whole tree, or the subtree of root, in path order",
		Tags:        []string{"Pages"},
	}, s.handleGetPageTree)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCommonAncestor",
		Method:      http.MethodGet,
		Path:        "/api/v1/pages/common-ancestor",
		Summary:     "Get first common ancestor",
		Description: "Returns the deepest page that is an ancestor of every listed page",
		Tags:        []string{"Pages"},
	}, s.handleGetCommonAncestor)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPage",
		Method:      http.MethodGet,
		Path:        "/api/v1/pages/{id}",
		Summary:     "Get page",
		Description: "Returns a page loaded as its concrete type",
		Tags:        []string{"Pages"},
	}, s.handleGetPage)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePage",
		Method:      http.MethodPatch,
		Path:        "/api/v1/pages/{id}",
		Summary:     "Update page",
		Description: "Updates a page and cascades slug path and active changes to its subtree",
		Tags:        []string{"Pages"},
	}, s.handleUpdatePage)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deletePage",
		Method:        http.MethodDelete,
		Path:          "/api/v1/pages/{id}",
		Summary:       "Delete page",
		Description:   "Deletes a page together with its subtree",
		Tags:          []string{"Pages"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeletePage)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPageChildren",
		Method:      http.MethodGet,
		Path:        "/api/v1/pages/{id}/children",
		Summary:     "List children",
		Description: "Returns the direct children of a page",
		Tags:        []string{"Pages"},
	}, s.handleListChildren)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createChildPage",
		Method:        http.MethodPost,
		Path:          "/api/v1/pages/{id}/children",
		Summary:       "Create child page",
		Description:   "Creates a page as the last child of a page",
		Tags:          []string{"Pages"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateChildPage)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPageAncestors",
		Method:      http.MethodGet,
		Path:        "/api/v1/pages/{id}/ancestors",
		Summary:     "List ancestors",
		Description: "Returns the ancestors of a page, root first",
		Tags:        []string{"Pages"},
	}, s.handleListAncestors)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPageDescendants",
		Method:      http.MethodGet,
		Path:        "/api/v1/pages/{id}/descendants",
		Summary:     "List descendants",
		Description: "Returns every page below a page in path order",
		Tags:        []string{"Pages"},
	}, s.handleListDescendants)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPageSiblings",
		Method:      http.MethodGet,
		Path:        "/api/v1/pages/{id}/siblings",
		Summary:     "List siblings",
		Description: "Returns the pages sharing a page's parent",
		Tags:        []string{"Pages"},
	}, s.handleListSiblings)

	huma.Register(s.api, huma.Operation{
		OperationID: "movePage",
		Method:      http.MethodPost,
		Path:        "/api/v1/pages/{id}/move",
		Summary:     "Move page",
		Description: "Moves a page and its subtree relative to a target page",
		Tags:        []string{"Pages"},
	}, s.handleMovePage)
}

// === DTOs ===

// MenuSettings are the navigation flags of a page.
type MenuSettings struct {
	Weight        int    `json:"weight" doc:"Sort weight among siblings in menus"`
	Title         string `json:"title,omitempty" doc:"Menu label overriding the title"`
	Extender      string `json:"extender,omitempty" doc:"Comma separated menu extender names"`
	In            bool   `json:"in" doc:"Shown in menus"`
	InChain       bool   `json:"inChain" doc:"Shown in breadcrumbs"`
	Jump          bool   `json:"jump" doc:"Redirects to the first active child"`
	LoginRequired bool   `json:"loginRequired" doc:"Hidden from anonymous visitors"`
	ShowCurrent   bool   `json:"showCurrent" doc:"Highlighted when current"`
}

// PageResponse contains page data in API responses.
type PageResponse struct {
	ID           string       `json:"id" doc:"Page ID"`
	Type         string       `json:"type" doc:"Concrete page type tag"`
	ParentID     string       `json:"parentId,omitempty" doc:"Parent page ID, empty for roots"`
	Path         string       `json:"path" doc:"Materialized tree path"`
	Depth        int          `json:"depth" doc:"Tree level, 1 for roots"`
	NumChild     int          `json:"numchild" doc:"Number of direct children"`
	Title        string       `json:"title" doc:"Page title"`
	Slug         string       `json:"slug" doc:"URL segment of the page"`
	SlugPath     string       `json:"slugPath" doc:"Slugs of the ancestors joined by /"`
	URLPath      *string      `json:"urlPath" doc:"Routable path, null when unreachable"`
	URLText      string       `json:"urlText,omitempty" doc:"Path override or external link"`
	Published    bool         `json:"published" doc:"Editor publication flag"`
	Active       bool         `json:"active" doc:"Published with every ancestor published"`
	Behaviour    string       `json:"behaviour,omitempty" doc:"Type specific behaviour choice"`
	BaseTemplate string       `json:"baseTemplate,omitempty" doc:"Site template name"`
	AltTemplate  string       `json:"altTemplate,omitempty" doc:"Alternative template suffix"`
	AltView      string       `json:"altView,omitempty" doc:"Alternative view name"`
	Menu         MenuSettings `json:"menu" doc:"Navigation settings"`
	URL          string       `json:"url" doc:"Public URL of the page"`
	CreatedAt    time.Time    `json:"createdAt" doc:"Creation time"`
	UpdatedAt    time.Time    `json:"updatedAt" doc:"Last update time"`

	LoadedAs string `json:"loadedAs,omitempty" doc:"Type the page was loaded as"`
	Fields   any    `json:"fields,omitempty" doc:"Type specific fields"`
}

// PageOutput wraps a page response for Huma.
type PageOutput struct {
	Body PageResponse
}

// PageListResponse contains a list of pages.
type PageListResponse struct {
	Pages []PageResponse `json:"pages" doc:"Pages in path order"`
}

// PageListOutput wraps a page list for Huma.
type PageListOutput struct {
	Body PageListResponse
}

// PageIDInput addresses a page by ID.
type PageIDInput struct {
	ID string `path:"id" doc:"Page ID"`
}

// RelativesInput addresses a page and whether to include it.
type RelativesInput struct {
	ID        string `path:"id" doc:"Page ID"`
	Inclusive bool   `query:"inclusive" doc:"Include the page itself"`
}

// PageTreeInput selects the subtree to return.
type PageTreeInput struct {
	Root string `query:"root" doc:"Subtree root page ID; empty returns the whole tree"`
}

// CommonAncestorInput contains parameters for the common ancestor lookup.
type CommonAncestorInput struct {
	IDs         []string `query:"ids" doc:"Comma separated page IDs"`
	IncludeSelf bool     `query:"includeSelf" doc:"A listed page may itself be the answer"`
	Strict      bool     `query:"strict" doc:"Fail instead of falling back to the first root"`
}

// CreatePageBody is the request body for creating a page.
type CreatePageBody struct {
	Type    string `json:"type" minLength:"1" doc:"Concrete page type tag"`
	Title   string `json:"title" minLength:"1" maxLength:"255" doc:"Page title"`
	Slug    string `json:"slug,omitempty" maxLength:"255" doc:"URL segment; derived from the title when empty"`
	URLText string `json:"urlText,omitempty" maxLength:"255" doc:"Path override or external link"`

	Published    bool   `json:"published,omitempty" doc:"Publish the page"`
	Behaviour    string `json:"behaviour,omitempty" doc:"Type specific behaviour choice"`
	BaseTemplate string `json:"baseTemplate,omitempty" doc:"Site template name"`
	AltTemplate  string `json:"altTemplate,omitempty" doc:"Alternative template suffix"`
	AltView      string `json:"altView,omitempty" doc:"Alternative view name"`

	MenuWeight        *int   `json:"menuWeight,omitempty" doc:"Menu sort weight (default 500)"`
	MenuTitle         string `json:"menuTitle,omitempty" doc:"Menu label"`
	MenuExtender      string `json:"menuExtender,omitempty" doc:"Comma separated menu extender names"`
	MenuIn            *bool  `json:"menuIn,omitempty" doc:"Shown in menus (default true)"`
	MenuInChain       *bool  `json:"menuInChain,omitempty" doc:"Shown in breadcrumbs (default true)"`
	MenuJump          bool   `json:"menuJump,omitempty" doc:"Redirect to the first active child"`
	MenuLoginRequired bool   `json:"menuLoginRequired,omitempty" doc:"Hidden from anonymous visitors"`
	MenuShowCurrent   *bool  `json:"menuShowCurrent,omitempty" doc:"Highlighted when current (default true)"`

	Fields map[string]any `json:"fields,omitempty" doc:"Type specific fields"`
}

// CreateRootPageInput wraps the create root page request for Huma.
type CreateRootPageInput struct {
	Body CreatePageBody
}

// CreateChildPageInput wraps the create child page request for Huma.
type CreateChildPageInput struct {
	ID   string `path:"id" doc:"Parent page ID"`
	Body CreatePageBody
}

// UpdatePageBody is the request body for updating a page. Omitted fields
// are left unchanged.
type UpdatePageBody struct {
	Title   *string `json:"title,omitempty" doc:"Page title"`
	Slug    *string `json:"slug,omitempty" doc:"URL segment"`
	URLText *string `json:"urlText,omitempty" doc:"Path override or external link"`

	Published    *bool   `json:"published,omitempty" doc:"Publication flag"`
	Behaviour    *string `json:"behaviour,omitempty" doc:"Type specific behaviour choice"`
	BaseTemplate *string `json:"baseTemplate,omitempty" doc:"Site template name"`
	AltTemplate  *string `json:"altTemplate,omitempty" doc:"Alternative template suffix"`
	AltView      *string `json:"altView,omitempty" doc:"Alternative view name"`

	MenuWeight        *int    `json:"menuWeight,omitempty" doc:"Menu sort weight"`
	MenuTitle         *string `json:"menuTitle,omitempty" doc:"Menu label"`
	MenuExtender      *string `json:"menuExtender,omitempty" doc:"Comma separated menu extender names"`
	MenuIn            *bool   `json:"menuIn,omitempty" doc:"Shown in menus"`
	MenuInChain       *bool   `json:"menuInChain,omitempty" doc:"Shown in breadcrumbs"`
	MenuJump          *bool   `json:"menuJump,omitempty" doc:"Redirect to the first active child"`
	MenuLoginRequired *bool   `json:"menuLoginRequired,omitempty" doc:"Hidden from anonymous visitors"`
	MenuShowCurrent   *bool   `json:"menuShowCurrent,omitempty" doc:"Highlighted when current"`

	Fields map[string]any `json:"fields,omitempty" doc:"Replacement type specific fields"`
}

// UpdatePageInput wraps the update page request for Huma.
type UpdatePageInput struct {
	ID   string `path:"id" doc:"Page ID"`
	Body UpdatePageBody
}

// MovePageBody is the request body for moving a page.
type MovePageBody struct {
	Target   string `json:"target" minLength:"1" doc:"Target page ID"`
	Position string `json:"position" doc:"first-child, last-child, sorted-child, first-sibling, left, right, last-sibling or sorted-sibling"`
}

// MovePageInput wraps the move page request for Huma.
type MovePageInput struct {
	ID   string `path:"id" doc:"Page ID"`
	Body MovePageBody
}

// === Handlers ===

func (s *Server) handleListRootPages(ctx context.Context, _ *struct{}) (*PageListOutput, error) {
	pages, err := s.services.Pages.Roots(ctx)
	if err != nil {
		return nil, err
	}
	return s.pageList(pages), nil
}

func (s *Server) handleCreateRootPage(ctx context.Context, input *CreateRootPageInput) (*PageOutput, error) {
	sp, err := s.services.Pages.AddRoot(ctx, input.Body.toRequest())
	if err != nil {
		return nil, err
	}
	return &PageOutput{Body: s.specificResponse(sp)}, nil
}

func (s *Server) handleCreateChildPage(ctx context.Context, input *CreateChildPageInput) (*PageOutput, error) {
	sp, err := s.services.Pages.AddChild(ctx, input.ID, input.Body.toRequest())
	if err != nil {
		return nil, err
	}
	return &PageOutput{Body: s.specificResponse(sp)}, nil
}

func (s *Server) handleGetPage(ctx context.Context, input *PageIDInput) (*PageOutput, error) {
	sp, err := s.services.Pages.GetSpecific(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PageOutput{Body: s.specificResponse(sp)}, nil
}

func (s *Server) handleUpdatePage(ctx context.Context, input *UpdatePageInput) (*PageOutput, error) {
	sp, err := s.services.Pages.Update(ctx, input.ID, input.Body.toRequest())
	if err != nil {
		return nil, err
	}
	return &PageOutput{Body: s.specificResponse(sp)}, nil
}

func (s *Server) handleDeletePage(ctx context.Context, input *PageIDInput) (*struct{}, error) {
	if err := s.services.Pages.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleMovePage(ctx context.Context, input *MovePageInput) (*PageOutput, error) {
	sp, err := s.services.Pages.Move(ctx, input.ID, input.Body.Target, domain.Position(input.Body.Position))
	if err != nil {
		return nil, err
	}
	return &PageOutput{Body: s.specificResponse(sp)}, nil
}

func (s *Server) handleListChildren(ctx context.Context, input *PageIDInput) (*PageListOutput, error) {
	pages, err := s.services.Pages.Children(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return s.pageList(pages), nil
}

func (s *Server) handleListAncestors(ctx context.Context, input *RelativesInput) (*PageListOutput, error) {
	pages, err := s.services.Pages.Ancestors(ctx, input.ID, input.Inclusive)
	if err != nil {
		return nil, err
	}
	return s.pageList(pages), nil
}

func (s *Server) handleListDescendants(ctx context.Context, input *RelativesInput) (*PageListOutput, error) {
	pages, err := s.services.Pages.Descendants(ctx, input.ID, input.Inclusive)
	if err != nil {
		return nil, err
	}
	return s.pageList(pages), nil
}

func (s *Server) handleListSiblings(ctx context.Context, input *RelativesInput) (*PageListOutput, error) {
	pages, err := s.services.Pages.Siblings(ctx, input.ID, input.Inclusive)
	if err != nil {
		return nil, err
	}
	return s.pageList(pages), nil
}

func (s *Server) handleGetPageTree(ctx context.Context, input *PageTreeInput) (*PageListOutput, error) {
	pages, err := s.services.Pages.Tree(ctx, input.Root)
	if err != nil {
		return nil, err
	}
	return s.pageList(pages), nil
}

func (s *Server) handleGetCommonAncestor(ctx context.Context, input *CommonAncestorInput) (*PageOutput, error) {
	p, err := s.services.Pages.FirstCommonAncestor(ctx, input.IDs, input.IncludeSelf, input.Strict)
	if err != nil {
		return nil, err
	}
	return &PageOutput{Body: s.pageResponse(p)}, nil
}

// === Conversions ===

func (b CreatePageBody) toRequest() service.CreatePageRequest {
	return service.CreatePageRequest{
		Type:              b.Type,
		Title:             b.Title,
		Slug:              b.Slug,
		URLText:           b.URLText,
		Published:         b.Published,
		Behaviour:         b.Behaviour,
		BaseTemplate:      b.BaseTemplate,
		AltTemplate:       b.AltTemplate,
		AltView:           b.AltView,
		MenuWeight:        b.MenuWeight,
		MenuTitle:         b.MenuTitle,
		MenuExtender:      b.MenuExtender,
		MenuIn:            b.MenuIn,
		MenuInChain:       b.MenuInChain,
		MenuJump:          b.MenuJump,
		MenuLoginRequired: b.MenuLoginRequired,
		MenuShowCurrent:   b.MenuShowCurrent,
		Fields:            b.Fields,
	}
}

func (b UpdatePageBody) toRequest() service.UpdatePageRequest {
	return service.UpdatePageRequest{
		Title:             b.Title,
		Slug:              b.Slug,
		URLText:           b.URLText,
		Published:         b.Published,
		Behaviour:         b.Behaviour,
		BaseTemplate:      b.BaseTemplate,
		AltTemplate:       b.AltTemplate,
		AltView:           b.AltView,
		MenuWeight:        b.MenuWeight,
		MenuTitle:         b.MenuTitle,
		MenuExtender:      b.MenuExtender,
		MenuIn:            b.MenuIn,
		MenuInChain:       b.MenuInChain,
		MenuJump:          b.MenuJump,
		MenuLoginRequired: b.MenuLoginRequired,
		MenuShowCurrent:   b.MenuShowCurrent,
		Fields:            b.Fields,
	}
}

func (s *Server) pageResponse(p *domain.Page) PageResponse {
	return PageResponse{
		ID:           p.ID,
		Type:         p.TypeTag,
		ParentID:     p.ParentID,
		Path:         p.Path,
		Depth:        p.Depth,
		NumChild:     p.NumChild,
		Title:        p.Title,
		Slug:         p.Slug,
		SlugPath:     p.SlugPath,
		URLPath:      p.URLPath,
		URLText:      p.URLText,
		Published:    p.Published,
		Active:       p.Active,
		Behaviour:    p.Behaviour,
		BaseTemplate: p.BaseTemplate,
		AltTemplate:  p.AltTemplate,
		AltView:      p.AltView,
		Menu: MenuSettings{
			Weight:        p.MenuWeight,
			Title:         p.MenuTitle,
			Extender:      p.MenuExtender,
			In:            p.MenuIn,
			InChain:       p.MenuInChain,
			Jump:          p.MenuJump,
			LoginRequired: p.MenuLoginRequired,
			ShowCurrent:   p.MenuShowCurrent,
		},
		URL:       s.services.Router.AbsoluteURL(p),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (s *Server) specificResponse(sp *domain.Specific) PageResponse {
	resp := s.pageResponse(sp.Page)
	resp.LoadedAs = sp.Type
	resp.Fields = sp.Fields
	return resp
}

func (s *Server) pageList(pages []*domain.Page) *PageListOutput {
	out := make([]PageResponse, 0, len(pages))
	for _, p := range pages {
		out = append(out, s.pageResponse(p))
	}
	return &PageListOutput{Body: PageListResponse{Pages: out}}
}
