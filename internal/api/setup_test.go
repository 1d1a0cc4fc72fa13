package api

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/cmskit/cmskit-server/internal/config"
	"github.com/cmskit/cmskit-server/internal/pagetype"
	"github.com/cmskit/cmskit-server/internal/search"
	"github.com/cmskit/cmskit-server/internal/service"
	"github.com/cmskit/cmskit-server/internal/specific"
	"github.com/cmskit/cmskit-server/internal/store/sqlite"
	"github.com/cmskit/cmskit-server/internal/treepath"
)

const (
	basePage   = "pages.page"
	folderType = "pages.folder"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api humatest.TestAPI
}

type serverOptions struct {
	search    bool
	rateLimit float64
	burst     int
}

// setupTestServer creates a test server over a temporary database.
func setupTestServer(t *testing.T, opts ...func(*serverOptions)) *testServer {
	t.Helper()

	o := serverOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var (
		index   *search.PageIndex
		indexer service.PageIndexer
	)
	if o.search {
		index, err = search.NewPageIndex(search.Options{Logger: logger})
		require.NoError(t, err)
		t.Cleanup(func() { _ = index.Close() })
		indexer = index
	}

	registry := pagetype.NewRegistry()
	resolver := specific.NewResolver(registry, basePage, logger)
	pages := service.NewPageService(st, registry, treepath.MustNew(4), resolver, indexer, logger)
	router := service.NewRouter(pages, "/", logger)
	items := service.NewItemService(st, router, logger)

	require.NoError(t, service.RegisterDefaultTypes(registry, basePage, items))
	require.NoError(t, registry.Register(basePage, pagetype.Type{Tag: folderType, Name: "Folder"}))
	require.NoError(t, registry.Validate())
	registry.Freeze()

	services := &Services{
		Pages:  pages,
		Router: router,
		Items:  items,
		Menu:   service.NewMenuService(pages, router, logger),
		Search: service.NewSearchService(index, st, logger),
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "cmskit", CORSOrigins: []string{"*"}},
		Site:   config.SiteConfig{URLPrefix: "/", RateLimit: o.rateLimit, Burst: o.burst},
	}
	s := NewServer(services, cfg, logger)
	t.Cleanup(s.Close)

	return &testServer{Server: s, api: humatest.Wrap(t, s.api)}
}

func withSearch(o *serverOptions) { o.search = true }

func withRateLimit(rps float64, burst int) func(*serverOptions) {
	return func(o *serverOptions) {
		o.rateLimit = rps
		o.burst = burst
	}
}

// createPage posts a page and returns the decoded response.
func (ts *testServer) createPage(t *testing.T, parentID string, body map[string]any) PageResponse {
	t.Helper()
	path := "/api/v1/pages"
	if parentID != "" {
		path += "/" + parentID + "/children"
	}
	if _, ok := body["published"]; !ok {
		body["published"] = true
	}
	resp := ts.api.Post(path, body)
	require.Equal(t, 201, resp.Code, resp.Body.String())
	return decodeBody[PageResponse](t, resp)
}

func decodeBody[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}
