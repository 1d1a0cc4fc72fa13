package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/pagetype"
)

func (s *Server) registerPageTypeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPageTypes",
		Method:      http.MethodGet,
		Path:        "/api/v1/page-types",
		Summary:     "List page types",
		Description: "Returns the registered page types of the tree",
		Tags:        []string{"Page Types"},
	}, s.handleListPageTypes)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSubpageTypes",
		Method:      http.MethodGet,
		Path:        "/api/v1/page-types/{tag}/subpage-types",
		Summary:     "List creatable subpage types",
		Description: "Returns the types an editor may create under a page of this type",
		Tags:        []string{"Page Types"},
	}, s.handleListSubpageTypes)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTemplates",
		Method:      http.MethodGet,
		Path:        "/api/v1/templates",
		Summary:     "List site templates",
		Description: "Returns the base templates pages can be rendered with",
		Tags:        []string{"Page Types"},
	}, s.handleListTemplates)
}

// === DTOs ===

// PageTypeResponse describes one page type.
type PageTypeResponse struct {
	Tag                string            `json:"tag" doc:"Type tag"`
	Name               string            `json:"name" doc:"Display name"`
	Extends            string            `json:"extends,omitempty" doc:"Specialized type tag"`
	NotCreatable       bool              `json:"notCreatable,omitempty" doc:"Editors cannot create pages of this type"`
	MaxCount           int               `json:"maxCount,omitempty" doc:"Maximum number of pages, 0 for unlimited"`
	HasFields          bool              `json:"hasFields" doc:"Pages store type specific fields"`
	SubpageTypes       []string          `json:"subpageTypes" doc:"Types allowed as children"`
	ParentTypes        []string          `json:"parentTypes" doc:"Types allowed as parent"`
	BehaviourChoices   []pagetype.Choice `json:"behaviourChoices,omitempty" doc:"Behaviour options"`
	AltTemplateChoices []pagetype.Choice `json:"altTemplateChoices,omitempty" doc:"Alternative template options"`
	AltViewChoices     []pagetype.Choice `json:"altViewChoices,omitempty" doc:"Alternative view options"`
}

// PageTypesOutput wraps the page type list for Huma.
type PageTypesOutput struct {
	Body struct {
		Base  string             `json:"base" doc:"Base type tag of the tree"`
		Types []PageTypeResponse `json:"types" doc:"Types in registration order"`
	}
}

// SubpageTypesInput addresses a page type.
type SubpageTypesInput struct {
	Tag string `path:"tag" doc:"Parent type tag"`
}

// TagListOutput wraps a list of type tags for Huma.
type TagListOutput struct {
	Body struct {
		Types []string `json:"types" doc:"Type tags"`
	}
}

// TemplatesOutput wraps the template list for Huma.
type TemplatesOutput struct {
	Body struct {
		Templates []pagetype.Template `json:"templates" doc:"Templates in registration order"`
	}
}

// === Handlers ===

func (s *Server) handleListPageTypes(_ context.Context, _ *struct{}) (*PageTypesOutput, error) {
	registry := s.services.Pages.Registry()
	base := s.services.Pages.BaseType()

	out := &PageTypesOutput{}
	out.Body.Base = base
	for _, t := range registry.Types(base) {
		out.Body.Types = append(out.Body.Types, PageTypeResponse{
			Tag:                t.Tag,
			Name:               t.Name,
			Extends:            t.Extends,
			NotCreatable:       t.NotCreatable,
			MaxCount:           t.MaxCount,
			HasFields:          t.HasFields(),
			SubpageTypes:       nonNil(registry.AllowedSubpageTypes(t.Tag)),
			ParentTypes:        nonNil(registry.AllowedParentTypes(t.Tag)),
			BehaviourChoices:   t.BehaviourChoices,
			AltTemplateChoices: t.AltTemplateChoices,
			AltViewChoices:     t.AltViewChoices,
		})
	}
	return out, nil
}

func (s *Server) handleListSubpageTypes(_ context.Context, input *SubpageTypesInput) (*TagListOutput, error) {
	registry := s.services.Pages.Registry()
	if _, ok := registry.Resolve(input.Tag); !ok {
		return nil, domainerrors.NotFoundf("page type %q is not registered", input.Tag)
	}
	out := &TagListOutput{}
	out.Body.Types = nonNil(registry.CreatableSubpageTypes(input.Tag))
	return out, nil
}

func (s *Server) handleListTemplates(_ context.Context, _ *struct{}) (*TemplatesOutput, error) {
	out := &TemplatesOutput{}
	out.Body.Templates = s.services.Pages.Registry().Templates()
	return out, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
