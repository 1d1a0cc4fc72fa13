package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type siteEnvelope struct {
	Success bool         `json:"success"`
	Code    string       `json:"code"`
	Error   string       `json:"error"`
	Data    SiteResponse `json:"data"`
}

func TestSite_NodeView(t *testing.T) {
	ts := setupTestServer(t)
	home := ts.createPage(t, "", map[string]any{"type": basePage, "title": "Home"})
	about := ts.createPage(t, home.ID, map[string]any{"type": folderType, "title": "About"})

	resp := ts.api.Get("/site/home/about")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeBody[siteEnvelope](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, about.ID, env.Data.Page.ID)
	assert.Equal(t, folderType, env.Data.Page.LoadedAs)
	assert.Equal(t, "home/about", env.Data.Path)
	assert.Equal(t, []string{
		"nodes/folder/node.html",
		"nodes/page/node.html",
		"nodes/node.html",
	}, env.Data.Templates)
	assert.Contains(t, env.Data.Context, "node")
}

func TestSite_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	ts.createPage(t, "", map[string]any{"type": basePage, "title": "Home"})
	ts.createPage(t, "", map[string]any{"type": basePage, "title": "Draft", "published": false})

	for _, path := range []string{"/site/missing", "/site/home/missing", "/site/draft", "/site"} {
		t.Run(path, func(t *testing.T) {
			resp := ts.api.Get(path)
			require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())

			env := decodeBody[siteEnvelope](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, "NOT_FOUND", env.Code)
		})
	}
}

func TestSite_MenuJumpRedirects(t *testing.T) {
	ts := setupTestServer(t)
	section := ts.createPage(t, "", map[string]any{"type": basePage, "title": "Section", "menuJump": true})
	ts.createPage(t, section.ID, map[string]any{"type": basePage, "title": "Leaf"})

	resp := ts.api.Get("/site/section")
	require.Equal(t, http.StatusFound, resp.Code, resp.Body.String())
	assert.Equal(t, "/section/leaf/", resp.Header().Get("Location"))
}

func TestSite_ItemPage(t *testing.T) {
	ts := setupTestServer(t)
	ts.createItemPage(t)

	resp := ts.api.Get("/site/news")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decodeBody[siteEnvelope](t, resp)
	require.NotEmpty(t, env.Data.Templates)
	assert.Equal(t, "nodes/itempage/list.html", env.Data.Templates[0])
	assert.Contains(t, env.Data.Context, "pageItem")

	resp = ts.api.Get("/site/news/second")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env = decodeBody[siteEnvelope](t, resp)
	assert.Equal(t, []string{"second"}, env.Data.Segments)
	item, ok := env.Data.Context["item"].(map[string]any)
	require.True(t, ok, "item missing from context")
	assert.Equal(t, "second", item["slug"])

	resp = ts.api.Get("/site/news/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSite_RateLimit(t *testing.T) {
	ts := setupTestServer(t, withRateLimit(0.001, 1))
	ts.createPage(t, "", map[string]any{"type": basePage, "title": "Home"})

	resp := ts.api.Get("/site/home")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/site/home")
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "1", resp.Header().Get("Retry-After"))

	// The JSON API is not limited.
	resp = ts.api.Get("/api/v1/pages")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "10.0.0.1:4242", want: "10.0.0.1"},
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, remote: "10.0.0.1:1", want: "1.2.3.4"},
		{name: "single forwarded", headers: map[string]string{"X-Forwarded-For": "5.6.7.8"}, remote: "10.0.0.1:1", want: "5.6.7.8"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "9.9.9.9"}, remote: "10.0.0.1:1", want: "9.9.9.9"},
		{name: "no port", remote: "unix", want: "unix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/site/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}
