// Package pagetype holds the registry of concrete page types sharing one
// base tree, and the capability records that drive per-type behaviour.
package pagetype

import (
	"context"
	"net/url"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/store"
)

// Choice is a value/label pair offered to editors.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Request carries a routed page and whatever the router learned about the
// incoming path.
type Request struct {
	Page *domain.Specific
	// Path is the requested path, trimmed of slashes.
	Path string
	// Segments is the remainder after the page's url path, nil on an exact match.
	Segments []string
	// Params is filled by Consume and read by Behave.
	Params map[string]string
	Query  url.Values
}

// Param returns a consumed parameter or "".
func (r *Request) Param(name string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params[name]
}

// SetParam records a consumed parameter.
func (r *Request) SetParam(name, value string) {
	if r.Params == nil {
		r.Params = make(map[string]string)
	}
	r.Params[name] = value
}

// Result is what a page behaviour decided to do: redirect somewhere or
// render one of the candidate templates with a context.
type Result struct {
	Redirect  string         `json:"redirect,omitempty"`
	Templates []string       `json:"templates,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// ConsumeFunc reports whether a type accepts the trailing segments of a
// path that did not match any page exactly.
type ConsumeFunc func(ctx context.Context, req *Request) (bool, error)

// BehaveFunc produces the response plan for a routed page.
type BehaveFunc func(ctx context.Context, req *Request) (*Result, error)

// MovedFunc runs inside the save transaction after a page's slug path or
// active flag changed.
type MovedFunc func(ctx context.Context, q store.Querier, page *domain.Specific) error

// Type is one concrete page type and its capabilities. Types without a
// Fields codec share the base columns and differ only in behaviour.
type Type struct {
	Tag  string `json:"tag"`
	Base string `json:"base"`
	// Extends names the type this one specializes. Empty means the base.
	Extends string `json:"extends,omitempty"`
	Name    string `json:"name"`

	NotCreatable bool `json:"notCreatable,omitempty"`
	// MaxCount limits how many pages of this type may exist. Zero is unlimited.
	MaxCount int `json:"maxCount,omitempty"`
	// SubpageTypes and ParentTypes restrict placement. Nil allows every type
	// of the base.
	SubpageTypes []string `json:"subpageTypes,omitempty"`
	ParentTypes  []string `json:"parentTypes,omitempty"`

	BehaviourChoices   []Choice `json:"behaviourChoices,omitempty"`
	AltTemplateChoices []Choice `json:"altTemplateChoices,omitempty"`
	AltViewChoices     []Choice `json:"altViewChoices,omitempty"`

	Fields   Codec                 `json:"-"`
	Consume  ConsumeFunc           `json:"-"`
	Behave   BehaveFunc            `json:"-"`
	AltViews map[string]BehaveFunc `json:"-"`
	OnMoved  MovedFunc             `json:"-"`
}

// HasFields reports whether the type stores extra fields.
func (t *Type) HasFields() bool {
	return t.Fields != nil
}

func (t *Type) sameDefinition(o *Type) bool {
	return t.Base == o.Base && t.Extends == o.Extends && t.Name == o.Name &&
		t.NotCreatable == o.NotCreatable && t.MaxCount == o.MaxCount &&
		equalTags(t.SubpageTypes, o.SubpageTypes) && equalTags(t.ParentTypes, o.ParentTypes) &&
		(t.Fields == nil) == (o.Fields == nil)
}

func equalTags(a, b []string) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allows(tags []string, tag string) bool {
	if tags == nil {
		return true
	}
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
