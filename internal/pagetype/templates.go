package pagetype

import (
	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
)

// Template is a base site template pages can be rendered with.
type Template struct {
	Name  string   `json:"name"`
	Path  string   `json:"path"`
	Title string   `json:"title,omitempty"`
	Areas []Choice `json:"areas,omitempty"`
}

// DefaultTemplates is registered when configuration names none.
var DefaultTemplates = []Template{
	{Name: "base", Path: "base.html", Title: "General site template"},
}

// RegisterTemplate adds a site template. Name and path are required and
// names are unique.
func (r *Registry) RegisterTemplate(t Template) error {
	if t.Name == "" || t.Path == "" {
		return domainerrors.Validation("template needs a name and a path")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	for _, existing := range r.templates {
		if existing.Name == t.Name {
			return domainerrors.Conflictf("template %q already registered", t.Name)
		}
	}
	r.templates = append(r.templates, t)
	return nil
}

// UnregisterTemplate removes a template by name. Unknown names are ignored.
func (r *Registry) UnregisterTemplate(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	for i, t := range r.templates {
		if t.Name == name {
			r.templates = append(r.templates[:i], r.templates[i+1:]...)
			break
		}
	}
	return nil
}

// Templates returns the registered templates in registration order.
func (r *Registry) Templates() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Template(nil), r.templates...)
}

// Template looks up a template by name.
func (r *Registry) Template(name string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}
