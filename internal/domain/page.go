package domain

import (
	"net/url"
	"strings"
	"time"
)

// DefaultMenuWeight is the menu weight of a page that does not set one.
const DefaultMenuWeight = 500

// Page is one node of the page tree in its generic (base) form.
// Path, Depth and NumChild are owned by the tree mutator; SlugPath, URLPath
// and Active are derived on every save.
type Page struct {
	ID       string `json:"id"`
	TypeTag  string `json:"type"`
	ParentID string `json:"parentId,omitempty"`

	Path     string `json:"path"`
	Depth    int    `json:"depth"`
	NumChild int    `json:"numchild"`

	Title    string  `json:"title"`
	Slug     string  `json:"slug"`
	SlugPath string  `json:"slugPath"`
	URLPath  *string `json:"urlPath"`
	// URLText overrides the page path. A value containing "://" or starting
	// with "/" turns the page into a menu-only link.
	URLText string `json:"urlText,omitempty"`

	Published bool `json:"published"`
	Active    bool `json:"active"`

	Behaviour    string `json:"behaviour,omitempty"`
	BaseTemplate string `json:"baseTemplate,omitempty"`
	AltTemplate  string `json:"altTemplate,omitempty"`
	AltView      string `json:"altView,omitempty"`

	MenuWeight        int    `json:"menuWeight"`
	MenuTitle         string `json:"menuTitle,omitempty"`
	MenuExtender      string `json:"menuExtender,omitempty"`
	MenuIn            bool   `json:"menuIn"`
	MenuInChain       bool   `json:"menuInChain"`
	MenuJump          bool   `json:"menuJump"`
	MenuLoginRequired bool   `json:"menuLoginRequired"`
	MenuShowCurrent   bool   `json:"menuShowCurrent"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPage returns a page with the column defaults applied.
func NewPage(typeTag, title, slug string) *Page {
	return &Page{
		TypeTag:         typeTag,
		Title:           title,
		Slug:            slug,
		MenuWeight:      DefaultMenuWeight,
		MenuIn:          true,
		MenuInChain:     true,
		MenuShowCurrent: true,
	}
}

// IsRoot reports whether the page sits at the top level of the tree.
func (p *Page) IsRoot() bool {
	return p.ParentID == ""
}

// FullSlugPath joins the stored slug path with the page's own slug.
// Children store this value as their SlugPath.
func (p *Page) FullSlugPath() string {
	if p.SlugPath == "" {
		return p.Slug
	}
	return p.SlugPath + "/" + p.Slug
}

// PathOrURL returns the routable path of the page, or the external URL when
// the page is only a link. Exactly one of the results is meaningful: ok is
// false when the page has no routable path.
func (p *Page) PathOrURL() (path string, link string, ok bool) {
	if p.URLText != "" {
		if strings.Contains(p.URLText, "://") || strings.HasPrefix(p.URLText, "/") {
			return "", p.URLText, false
		}
		if u, err := url.Parse(p.URLText); err == nil {
			return strings.Trim(u.Path, "/"), "", true
		}
		return strings.Trim(p.URLText, "/"), "", true
	}
	return p.FullSlugPath(), "", true
}

// MenuLabel returns the menu title, falling back to the title.
func (p *Page) MenuLabel() string {
	if p.MenuTitle != "" {
		return p.MenuTitle
	}
	return p.Title
}

// StatusString describes the publication state shown in admin listings.
func (p *Page) StatusString() string {
	switch {
	case p.Active:
		return "published + active"
	case p.Published:
		return "published + inactive"
	default:
		return "unpublished"
	}
}

// Touch sets UpdatedAt to now.
func (p *Page) Touch() {
	p.UpdatedAt = time.Now()
}

// InitTimestamps sets both timestamps to now.
func (p *Page) InitTimestamps() {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
}

// URLPathString returns URLPath or "" when the page is unreachable.
func (p *Page) URLPathString() string {
	if p.URLPath == nil {
		return ""
	}
	return *p.URLPath
}

// Extenders splits MenuExtender on commas.
func (p *Page) Extenders() []string {
	var out []string
	for _, part := range strings.Split(p.MenuExtender, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Clone returns a shallow copy with its own URLPath pointer.
func (p *Page) Clone() *Page {
	c := *p
	if p.URLPath != nil {
		v := *p.URLPath
		c.URLPath = &v
	}
	return &c
}

// Specific is a page loaded as a concrete page type. Fields holds the
// decoded type-specific data (nil for types without extra fields). Type is
// the tag the instance was loaded as; it differs from TypeTag when the
// instance is generic.
type Specific struct {
	*Page
	Type   string `json:"loadedAs"`
	Fields any    `json:"fields,omitempty"`
}

// IsSpecific reports whether the instance was loaded as its concrete type.
func (s *Specific) IsSpecific() bool {
	return s.Type == s.TypeTag
}
