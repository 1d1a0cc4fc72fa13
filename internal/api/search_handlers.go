package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cmskit/cmskit-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchPages",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search pages",
		Description: "Full text search over active pages",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID:   "reindexPages",
		Method:        http.MethodPost,
		Path:          "/api/v1/search/reindex",
		Summary:       "Rebuild search index",
		Description:   "Rebuilds the page index from the stored tree",
		Tags:          []string{"Search"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleReindex)
}

// === DTOs ===

// SearchInput contains parameters for searching pages.
type SearchInput struct {
	Query  string `query:"q" maxLength:"200" doc:"Search query; empty matches every page"`
	Types  string `query:"types" maxLength:"500" doc:"Comma separated page type tags. Omit for all."`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset int    `query:"offset" minimum:"0" doc:"Pagination offset (default 0)"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.Result
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.DefaultParams()
	params.Query = strings.TrimSpace(input.Query)
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset
	if input.Types != "" {
		for _, t := range strings.Split(input.Types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				params.Types = append(params.Types, t)
			}
		}
	}

	res, err := s.services.Search.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: res}, nil
}

func (s *Server) handleReindex(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.services.Search.ReindexAll(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}
