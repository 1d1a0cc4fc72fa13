package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a page search.
type Params struct {
	Query string   // User's search query
	Types []string // Page type tags to include (empty = all)

	Limit  int
	Offset int

	Highlight bool
}

// DefaultParams returns the parameters used by the API.
func DefaultParams() Params {
	return Params{Limit: 20, Highlight: true}
}

// Result holds one page of search hits.
type Result struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"tookMs"`
	Hits   []Hit        `json:"hits"`
	Types  []FacetCount `json:"types,omitempty"`
}

// Hit is a single matching page.
type Hit struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	URLPath    string            `json:"urlPath"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount is a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search runs a query against the index.
func (s *PageIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "url_path"})
	req.AddFacet("type", bleve.NewFacetRequest("type", 20))
	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
	}
	req.Fields = []string{"type", "title", "url_path"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["type"].(string); ok {
			hit.Type = v
		}
		if v, ok := h.Fields["title"].(string); ok {
			hit.Title = v
		}
		if v, ok := h.Fields["url_path"].(string); ok {
			hit.URLPath = v
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string)
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		out.Hits = append(out.Hits, hit)
	}

	if f, ok := res.Facets["type"]; ok && f.Terms != nil {
		for _, term := range f.Terms.Terms() {
			out.Types = append(out.Types, FacetCount{Value: term.Term, Count: term.Count})
		}
	}
	return out, nil
}

// buildQuery matches the text against title, menu title and slug, with
// fuzzy and prefix variants on the title, filtered by type.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if params.Query != "" {
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		menuMatch := bleve.NewMatchQuery(params.Query)
		menuMatch.SetField("menu_title")
		menuMatch.SetBoost(1.5)

		slugMatch := bleve.NewMatchQuery(params.Query)
		slugMatch.SetField("slug")

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(params.Query))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		text := []query.Query{titleMatch, menuMatch, slugMatch, fuzzy}
		if len(params.Query) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(t)
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
