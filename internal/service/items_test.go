package service

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmskit/cmskit-server/internal/domain"
	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/store"
)

// setupItemPage creates a root item page "news" holding n items ordered by
// weight and listed five per page.
func setupItemPage(t *testing.T, env *testEnv, n int) *domain.Specific {
	t.Helper()
	ctx := context.Background()

	page, err := env.pages.AddRoot(ctx, CreatePageRequest{
		Type:      ItemPageType,
		Title:     "News",
		Published: true,
		Fields:    map[string]any{"orderBy": "weight bogus", "onpage": 5},
	})
	require.NoError(t, err)

	for i := 1; i <= n; i++ {
		_, err := env.items.CreateItem(ctx, page.ID, CreateItemRequest{
			Title:  fmt.Sprintf("Item %d", i),
			Weight: ptr(i),
		})
		require.NoError(t, err)
	}
	return page
}

func itemSlugs(items []*domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Slug
	}
	return out
}

func TestItemService_ListView_Pagination(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	setupItemPage(t, env, 12)

	tests := []struct {
		name  string
		page  string
		want  int
		first string
		count int
	}{
		{name: "first page", page: "", want: 1, first: "item-1", count: 5},
		{name: "explicit page", page: "2", want: 2, first: "item-6", count: 5},
		{name: "last page", page: "3", want: 3, first: "item-11", count: 2},
		{name: "beyond last", page: "99", want: 3, first: "item-11", count: 2},
		{name: "zero", page: "0", want: 3, first: "item-11", count: 2},
		{name: "not a number", page: "abc", want: 1, first: "item-1", count: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := url.Values{}
			if tt.page != "" {
				query.Set("page", tt.page)
			}
			_, res, err := env.router.Serve(ctx, "/news/", query)
			require.NoError(t, err)

			items, ok := res.Context["pageItem"].(*store.PaginatedResult[*domain.Item])
			require.True(t, ok)
			assert.Equal(t, tt.want, items.Page)
			assert.Equal(t, 3, items.NumPages)
			assert.Equal(t, 12, items.Total)
			require.Len(t, items.Items, tt.count)
			assert.Equal(t, tt.first, items.Items[0].Slug)
			assert.Equal(t, "/news/", res.Context["urlNoPage"])
		})
	}
}

func TestItemService_ListView_Templates(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	setupItemPage(t, env, 1)

	_, res, err := env.router.Serve(ctx, "/news", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"nodes/itempage/list.html",
		"nodes/page/list.html",
		"nodes/list.html",
	}, res.Templates)
}

func TestItemService_ListView_HidesInvisibleAndUnpublished(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	page := setupItemPage(t, env, 2)

	_, err := env.items.CreateItem(ctx, page.ID, CreateItemRequest{Title: "Hidden", Visible: ptr(false), Weight: ptr(0)})
	require.NoError(t, err)
	_, err = env.items.CreateItem(ctx, page.ID, CreateItemRequest{Title: "Draft", Published: ptr(false), Weight: ptr(0)})
	require.NoError(t, err)

	_, res, err := env.router.Serve(ctx, "/news", nil)
	require.NoError(t, err)
	items := res.Context["pageItem"].(*store.PaginatedResult[*domain.Item])
	assert.Equal(t, []string{"item-1", "item-2"}, itemSlugs(items.Items))

	// Invisible items are still reachable by slug, unpublished ones are not.
	_, res, err = env.router.Serve(ctx, "/news/hidden", nil)
	require.NoError(t, err)
	assert.Equal(t, "hidden", res.Context["item"].(*domain.Item).Slug)

	_, _, err = env.router.Serve(ctx, "/news/draft", nil)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	all, err := env.items.ListItems(ctx, page.ID, store.PaginationParams{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)
}

func TestItemService_ItemView(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	page := setupItemPage(t, env, 3)

	req, res, err := env.router.Serve(ctx, "/news/item-3/", nil)
	require.NoError(t, err)
	assert.Equal(t, page.ID, req.Page.ID)
	assert.Equal(t, "item-3", req.Param("item"))

	it := res.Context["item"].(*domain.Item)
	assert.Equal(t, "Item 3", it.Title)
	assert.Equal(t, "/news/item-3/", res.Context["itemUrl"])
	assert.Equal(t, []string{
		"nodes/itempage/item.html",
		"nodes/page/item.html",
		"nodes/item.html",
	}, res.Templates)

	_, _, err = env.router.Serve(ctx, "/news/missing", nil)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	_, _, err = env.router.Serve(ctx, "/news/item-1/extra", nil)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestItemService_Behaviours(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	page := setupItemPage(t, env, 2)

	_, err := env.pages.Update(ctx, page.ID, UpdatePageRequest{Behaviour: ptr(ItemBehaviourItem), AltTemplate: ptr("wide")})
	require.NoError(t, err)
	_, res, err := env.router.Serve(ctx, "/news", nil)
	require.NoError(t, err)
	assert.Equal(t, "item-1", res.Context["item"].(*domain.Item).Slug)
	assert.Equal(t, "nodes/itempage/item.wide.html", res.Templates[0])

	_, err = env.pages.Update(ctx, page.ID, UpdatePageRequest{Behaviour: ptr(ItemBehaviourNode)})
	require.NoError(t, err)
	_, res, err = env.router.Serve(ctx, "/news", nil)
	require.NoError(t, err)
	assert.Equal(t, "nodes/itempage/node.wide.html", res.Templates[0])
	assert.NotContains(t, res.Context, "item")
}

func TestItemService_PageMoveUpdatesActive(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	page := setupItemPage(t, env, 2)

	_, err := env.pages.Update(ctx, page.ID, UpdatePageRequest{Published: ptr(false)})
	require.NoError(t, err)

	items, err := env.items.ListItems(ctx, page.ID, store.PaginationParams{Page: 1, PerPage: 10})
	require.NoError(t, err)
	for _, it := range items.Items {
		assert.False(t, it.Active, it.Slug)
		assert.True(t, it.Published, it.Slug)
	}

	_, err = env.pages.Update(ctx, page.ID, UpdatePageRequest{Published: ptr(true)})
	require.NoError(t, err)
	items, err = env.items.ListItems(ctx, page.ID, store.PaginationParams{Page: 1, PerPage: 10})
	require.NoError(t, err)
	for _, it := range items.Items {
		assert.True(t, it.Active, it.Slug)
	}
}

func TestItemService_CRUD(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	page := setupItemPage(t, env, 0)

	it, err := env.items.CreateItem(ctx, page.ID, CreateItemRequest{Title: "Spring Sale"})
	require.NoError(t, err)
	assert.Equal(t, "spring-sale", it.Slug)
	assert.True(t, it.Active)
	assert.NotEmpty(t, it.ID)

	updated, err := env.items.UpdateItem(ctx, it.ID, UpdateItemRequest{Title: ptr("Summer Sale"), Published: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Summer Sale", updated.Title)
	assert.False(t, updated.Active)

	got, err := env.items.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Summer Sale", got.Title)
	assert.Equal(t, "/news/spring-sale/", env.items.ItemURL(got, page.Page))

	got.URL = "https://example.com/sale"
	assert.Equal(t, "https://example.com/sale", env.items.ItemURL(got, page.Page))

	require.NoError(t, env.items.DeleteItem(ctx, it.ID))
	_, err = env.items.GetItem(ctx, it.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
	err = env.items.DeleteItem(ctx, it.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestItemService_CreateItem_Rejects(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	plain := env.addRoot(t, basePage, "Plain")
	page := setupItemPage(t, env, 0)

	_, err := env.items.CreateItem(ctx, plain.ID, CreateItemRequest{Title: "Nope"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = env.items.CreateItem(ctx, page.ID, CreateItemRequest{})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = env.items.CreateItem(ctx, page.ID, CreateItemRequest{Title: "x", Slug: "not a slug"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = env.items.CreateItem(ctx, "pg_missing", CreateItemRequest{Title: "x"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestParsePageParam(t *testing.T) {
	assert.Equal(t, 1, parsePageParam(""))
	assert.Equal(t, 1, parsePageParam("-2"))
	assert.Equal(t, 1, parsePageParam("2a"))
	assert.Equal(t, 7, parsePageParam("7"))
	assert.Equal(t, 0, parsePageParam("0"))
}

func TestOrderItemsBy(t *testing.T) {
	assert.Equal(t, defaultItemOrder, orderItemsBy(&domain.ItemPageFields{}))
	assert.Equal(t, defaultItemOrder, orderItemsBy(&domain.ItemPageFields{OrderBy: "bogus -nope"}))
	assert.Equal(t, []string{"-weight", "title"}, orderItemsBy(&domain.ItemPageFields{OrderBy: "-weight  title password"}))
}
