package service

import (
	"errors"

	"github.com/cmskit/cmskit-server/internal/pagetype"
)

// RegisterDefaultTypes registers the page types and templates every site
// has: the plain base page and the item page.
func RegisterDefaultTypes(registry *pagetype.Registry, base string, items *ItemService) error {
	var errs []error
	errs = append(errs, registry.Register(base, pagetype.Type{Tag: base, Name: "Page"}))
	if items != nil {
		errs = append(errs, registry.Register(base, items.PageType()))
	}
	for _, t := range pagetype.DefaultTemplates {
		if _, ok := registry.Template(t.Name); !ok {
			errs = append(errs, registry.RegisterTemplate(t))
		}
	}
	return errors.Join(errs...)
}
