package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/tree"
)

// NavigationNode is one entry of the site menu.
type NavigationNode struct {
	ID       string           `json:"id"`
	ParentID string           `json:"parentId,omitempty"`
	Title    string           `json:"title"`
	URL      string           `json:"url"`
	Visible  bool             `json:"visible"`
	Data     NavigationData   `json:"data"`
	Children []NavigationNode `json:"children,omitempty"`
}

// NavigationData carries the menu flags of a page.
type NavigationData struct {
	ReverseID      string   `json:"reverseId"`
	AuthRequired   bool     `json:"authRequired"`
	ShowCurrent    bool     `json:"showCurrent"`
	Jump           bool     `json:"jump"`
	VisibleInChain bool     `json:"visibleInChain"`
	Extenders      []string `json:"extenders,omitempty"`
}

// MenuService builds navigation menus from the page tree.
type MenuService struct {
	pages  *PageService
	router *Router
	logger *slog.Logger
}

// NewMenuService creates a new menu service.
func NewMenuService(pages *PageService, router *Router, logger *slog.Logger) *MenuService {
	return &MenuService{pages: pages, router: router, logger: logger}
}

// Nodes returns the menu entries of the active tree in path order. Pages
// below an inactive page are left out. A non-empty rootID limits the menu
// to that page's descendants.
func (s *MenuService) Nodes(ctx context.Context, rootID string) ([]NavigationNode, error) {
	where := tree.All()
	if rootID != "" {
		root, err := getPage(ctx, s.pages.store, rootID)
		if err != nil {
			return nil, err
		}
		where = tree.DescendantOf(root, false)
	}

	pages, err := s.pages.store.FindPages(ctx, tree.Where(where).OrderBy(tree.ByPath))
	if err != nil {
		return nil, err
	}

	nodes := make([]NavigationNode, 0, len(pages))
	cut := ""
	for _, p := range pages {
		if cut != "" && strings.HasPrefix(p.Path, cut) {
			continue
		}
		if !p.Active {
			cut = p.Path
			continue
		}
		cut = ""
		nodes = append(nodes, s.node(p))
	}
	return nodes, nil
}

// Tree nests the result of Nodes under their parents.
func (s *MenuService) Tree(ctx context.Context, rootID string) ([]NavigationNode, error) {
	flat, err := s.Nodes(ctx, rootID)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(flat))
	children := make(map[string][]int)
	var top []int
	for i, n := range flat {
		index[n.ID] = i
	}
	for i, n := range flat {
		if _, ok := index[n.ParentID]; ok {
			children[n.ParentID] = append(children[n.ParentID], i)
		} else {
			top = append(top, i)
		}
	}

	var build func(i int) NavigationNode
	build = func(i int) NavigationNode {
		n := flat[i]
		for _, c := range children[n.ID] {
			n.Children = append(n.Children, build(c))
		}
		return n
	}
	out := make([]NavigationNode, 0, len(top))
	for _, i := range top {
		out = append(out, build(i))
	}
	return out, nil
}

func (s *MenuService) node(p *domain.Page) NavigationNode {
	return NavigationNode{
		ID:       p.ID,
		ParentID: p.ParentID,
		Title:    p.MenuLabel(),
		URL:      s.router.AbsoluteURL(p),
		Visible:  p.MenuIn,
		Data: NavigationData{
			ReverseID:      p.ID,
			AuthRequired:   p.MenuLoginRequired,
			ShowCurrent:    p.MenuShowCurrent,
			Jump:           p.MenuJump,
			VisibleInChain: p.MenuInChain,
			Extenders:      p.Extenders(),
		},
	}
}
