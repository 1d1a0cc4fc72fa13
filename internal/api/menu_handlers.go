package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cmskit/cmskit-server/internal/service"
)

func (s *Server) registerMenuRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getMenu",
		Method:      http.MethodGet,
		Path:        "/api/v1/menu",
		Summary:     "Get navigation menu",
		Description: "Returns the menu entries of the active tree, flat or nested",
		Tags:        []string{"Menu"},
	}, s.handleGetMenu)
}

// MenuInput contains parameters for building the menu.
type MenuInput struct {
	Root   string `query:"root" doc:"Limit the menu to the descendants of this page"`
	Nested bool   `query:"nested" doc:"Nest entries under their parents"`
}

// MenuOutput wraps the menu for Huma.
type MenuOutput struct {
	Body struct {
		Nodes []service.NavigationNode `json:"nodes" doc:"Menu entries in path order"`
	}
}

func (s *Server) handleGetMenu(ctx context.Context, input *MenuInput) (*MenuOutput, error) {
	var (
		nodes []service.NavigationNode
		err   error
	)
	if input.Nested {
		nodes, err = s.services.Menu.Tree(ctx, input.Root)
	} else {
		nodes, err = s.services.Menu.Nodes(ctx, input.Root)
	}
	if err != nil {
		return nil, err
	}

	out := &MenuOutput{}
	out.Body.Nodes = nodes
	if out.Body.Nodes == nil {
		out.Body.Nodes = []service.NavigationNode{}
	}
	return out, nil
}
