package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullSlugPath(t *testing.T) {
	root := NewPage("pages.page", "Home", "home")
	assert.Equal(t, "home", root.FullSlugPath())

	child := NewPage("pages.page", "Blog", "blog")
	child.SlugPath = "home"
	assert.Equal(t, "home/blog", child.FullSlugPath())
}

func TestPathOrURL(t *testing.T) {
	tests := []struct {
		name     string
		urlText  string
		wantPath string
		wantURL  string
		wantOK   bool
	}{
		{"slug path", "", "home/blog", "", true},
		{"external url", "https://example.com/x", "", "https://example.com/x", false},
		{"absolute link", "/elsewhere/", "", "/elsewhere/", false},
		{"relative override", "news/latest/?page=2", "news/latest", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage("pages.page", "Blog", "blog")
			p.SlugPath = "home"
			p.URLText = tt.urlText

			path, link, ok := p.PathOrURL()
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantURL, link)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestStatusString(t *testing.T) {
	p := NewPage("pages.page", "x", "x")
	assert.Equal(t, "unpublished", p.StatusString())

	p.Published = true
	assert.Equal(t, "published + inactive", p.StatusString())

	p.Active = true
	assert.Equal(t, "published + active", p.StatusString())
}

func TestMenuLabelAndExtenders(t *testing.T) {
	p := NewPage("pages.page", "About us", "about")
	assert.Equal(t, "About us", p.MenuLabel())

	p.MenuTitle = "About"
	assert.Equal(t, "About", p.MenuLabel())

	p.MenuExtender = " news, ,events "
	assert.Equal(t, []string{"news", "events"}, p.Extenders())
}

func TestClone_CopiesURLPath(t *testing.T) {
	path := "blog"
	p := NewPage("pages.page", "Blog", "blog")
	p.URLPath = &path

	c := p.Clone()
	*c.URLPath = "changed"

	assert.Equal(t, "blog", *p.URLPath)
}

func TestPositions(t *testing.T) {
	assert.True(t, FirstChild.IsChild())
	assert.False(t, FirstChild.IsSibling())
	assert.True(t, LeftSibling.IsSibling())
	assert.False(t, Position("middle").Valid())
}

func TestItemPageFields_PageSize(t *testing.T) {
	var nilFields *ItemPageFields
	assert.Equal(t, DefaultOnPage, nilFields.PageSize())
	assert.Equal(t, DefaultOnPage, (&ItemPageFields{OnPage: 0}).PageSize())
	assert.Equal(t, DefaultOnPage, (&ItemPageFields{OnPage: 1000}).PageSize())
	assert.Equal(t, 25, (&ItemPageFields{OnPage: 25}).PageSize())
}
