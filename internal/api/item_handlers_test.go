package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmskit/cmskit-server/internal/service"
)

// createItemPage creates a published item page with three weighted items.
func (ts *testServer) createItemPage(t *testing.T) (PageResponse, []ItemResponse) {
	t.Helper()

	page := ts.createPage(t, "", map[string]any{
		"type":   service.ItemPageType,
		"title":  "News",
		"fields": map[string]any{"onpage": 2, "orderBy": "weight"},
	})

	var items []ItemResponse
	for i, title := range []string{"First", "Second", "Third"} {
		resp := ts.api.Post("/api/v1/pages/"+page.ID+"/items", map[string]any{
			"title":  title,
			"weight": i + 1,
		})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		items = append(items, decodeBody[ItemResponse](t, resp))
	}
	return page, items
}

func TestItemCRUD(t *testing.T) {
	ts := setupTestServer(t)
	page, items := ts.createItemPage(t)

	first := items[0]
	assert.Equal(t, page.ID, first.PageID)
	assert.Equal(t, "first", first.Slug)
	assert.True(t, first.Published)
	assert.True(t, first.Active)
	assert.True(t, first.ShowItemName)

	resp := ts.api.Patch("/api/v1/items/"+first.ID, map[string]any{"title": "Renamed", "published": false})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decodeBody[ItemResponse](t, resp)
	assert.Equal(t, "Renamed", updated.Title)
	assert.False(t, updated.Active)

	resp = ts.api.Get("/api/v1/items/" + first.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Renamed", decodeBody[ItemResponse](t, resp).Title)

	resp = ts.api.Delete("/api/v1/items/" + first.ID)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/items/" + first.ID)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody[errorBody](t, resp).Code)
}

func TestListItems(t *testing.T) {
	ts := setupTestServer(t)
	page, _ := ts.createItemPage(t)

	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantFirst string
		wantCount int
	}{
		{name: "first page", query: "?page=1&perPage=2", wantPage: 1, wantFirst: "First", wantCount: 2},
		{name: "second page", query: "?page=2&perPage=2", wantPage: 2, wantFirst: "Third", wantCount: 1},
		{name: "past the end", query: "?page=9&perPage=2", wantPage: 2, wantFirst: "Third", wantCount: 1},
		{name: "defaults", query: "", wantPage: 1, wantFirst: "First", wantCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/pages/" + page.ID + "/items" + tt.query)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			list := decodeBody[ItemListResponse](t, resp)
			assert.Equal(t, 3, list.Total)
			assert.Equal(t, tt.wantPage, list.Page)
			require.Len(t, list.Items, tt.wantCount)
			assert.Equal(t, tt.wantFirst, list.Items[0].Title)
		})
	}
}

func TestCreateItem_NotAnItemPage(t *testing.T) {
	ts := setupTestServer(t)
	plain := ts.createPage(t, "", map[string]any{"type": basePage, "title": "Plain"})

	resp := ts.api.Post("/api/v1/pages/"+plain.ID+"/items", map[string]any{"title": "Lost"})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.Equal(t, "VALIDATION", decodeBody[errorBody](t, resp).Code)

	resp = ts.api.Get("/api/v1/pages/" + plain.ID + "/items")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
