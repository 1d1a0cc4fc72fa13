package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/pagetype"
	"github.com/cmskit/cmskit-server/internal/specific"
	"github.com/cmskit/cmskit-server/internal/store/sqlite"
	"github.com/cmskit/cmskit-server/internal/treepath"
)

const (
	basePage    = "pages.page"
	folderType  = "pages.folder"
	galleryType = "pages.gallery"
	blogType    = "pages.blog"
	homeType    = "pages.home"
)

type blogFields struct {
	Year int `json:"year"`
}

// testEnv wires the services over a temporary database.
type testEnv struct {
	store    *sqlite.Store
	registry *pagetype.Registry
	pages    *PageService
	router   *Router
	items    *ItemService
	menu     *MenuService
	indexer  *recordingIndexer
}

// recordingIndexer remembers what the page service pushed to it.
type recordingIndexer struct {
	mu      sync.Mutex
	synced  []string
	removed []string
}

func (r *recordingIndexer) SyncPages(_ context.Context, pages []*domain.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pages {
		r.synced = append(r.synced, p.ID)
	}
	return nil
}

func (r *recordingIndexer) RemovePages(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, ids...)
	return nil
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	registry := pagetype.NewRegistry()
	codec := treepath.MustNew(4)
	resolver := specific.NewResolver(registry, basePage, logger)
	indexer := &recordingIndexer{}
	pages := NewPageService(st, registry, codec, resolver, indexer, logger)
	router := NewRouter(pages, "/", logger)
	items := NewItemService(st, router, logger)

	require.NoError(t, RegisterDefaultTypes(registry, basePage, items))
	require.NoError(t, registry.Register(basePage, pagetype.Type{
		Tag:          folderType,
		Name:         "Folder",
		SubpageTypes: []string{basePage, folderType, blogType},
	}))
	require.NoError(t, registry.Register(basePage, pagetype.Type{Tag: galleryType, Name: "Gallery"}))
	require.NoError(t, registry.Register(basePage, pagetype.Type{
		Tag:      homeType,
		Name:     "Home",
		MaxCount: 1,
	}))
	require.NoError(t, registry.Register(basePage, pagetype.Type{
		Tag:    blogType,
		Name:   "Blog",
		Fields: pagetype.JSONFields[blogFields](),
		Consume: func(_ context.Context, req *pagetype.Request) (bool, error) {
			if len(req.Segments) == 2 && req.Segments[0] == "2024" {
				req.SetParam("post", req.Segments[1])
				return true, nil
			}
			return false, nil
		},
	}))
	require.NoError(t, registry.Validate())
	registry.Freeze()

	return &testEnv{
		store:    st,
		registry: registry,
		pages:    pages,
		router:   router,
		items:    items,
		menu:     NewMenuService(pages, router, logger),
		indexer:  indexer,
	}
}

func (e *testEnv) addRoot(t *testing.T, typeTag, title string) *domain.Specific {
	t.Helper()
	sp, err := e.pages.AddRoot(context.Background(), CreatePageRequest{Type: typeTag, Title: title, Published: true})
	require.NoError(t, err)
	return sp
}

func (e *testEnv) addChild(t *testing.T, parent *domain.Specific, typeTag, title string) *domain.Specific {
	t.Helper()
	sp, err := e.pages.AddChild(context.Background(), parent.ID, CreatePageRequest{Type: typeTag, Title: title, Published: true})
	require.NoError(t, err)
	return sp
}

func (e *testEnv) reload(t *testing.T, id string) *domain.Page {
	t.Helper()
	p, err := e.pages.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

// requireTreeInvariants checks depth, parent path and child counts of
// every stored page.
func (e *testEnv) requireTreeInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	codec := e.pages.Codec()

	all, err := e.pages.Tree(ctx, "")
	require.NoError(t, err)

	byID := make(map[string]*domain.Page, len(all))
	children := make(map[string]int)
	for _, p := range all {
		byID[p.ID] = p
		if p.ParentID != "" {
			children[p.ParentID]++
		}
	}
	for _, p := range all {
		require.Equal(t, codec.Depth(p.Path), p.Depth, "depth of %s", p.ID)
		require.Equal(t, children[p.ID], p.NumChild, "numchild of %s", p.ID)
		if p.ParentID == "" {
			require.Equal(t, 1, p.Depth, "root %s", p.ID)
			continue
		}
		parent := byID[p.ParentID]
		require.NotNil(t, parent, "parent of %s", p.ID)
		parentPath, err := codec.Parent(p.Path)
		require.NoError(t, err)
		require.Equal(t, parent.Path, parentPath, "parent path of %s", p.ID)
	}
}
