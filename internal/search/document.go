package search

import (
	"github.com/cmskit/cmskit-server/internal/domain"
)

// PageDocument is the indexed form of an active page.
type PageDocument struct {
	ID        string
	Type      string
	Title     string
	MenuTitle string
	Slug      string
	URLPath   string
	UpdatedAt int64 // unix seconds
}

// NewPageDocument builds the document for p. It returns nil for pages that
// must not be searchable: inactive ones and menu-only links.
func NewPageDocument(p *domain.Page) *PageDocument {
	if !p.Active || p.URLPath == nil {
		return nil
	}
	return &PageDocument{
		ID:        p.ID,
		Type:      p.TypeTag,
		Title:     p.Title,
		MenuTitle: p.MenuTitle,
		Slug:      p.Slug,
		URLPath:   *p.URLPath,
		UpdatedAt: p.UpdatedAt.Unix(),
	}
}

// ToMap converts the document to the field names used by the mapping.
func (d *PageDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"type":       d.Type,
		"title":      d.Title,
		"slug":       d.Slug,
		"url_path":   d.URLPath,
		"updated_at": d.UpdatedAt,
	}
	if d.MenuTitle != "" {
		m["menu_title"] = d.MenuTitle
	}
	return m
}
