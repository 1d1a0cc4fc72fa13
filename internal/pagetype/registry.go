package pagetype

import (
	"errors"
	"sync"

	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
)

// ErrFrozen is returned by registrations after Freeze.
var ErrFrozen = domainerrors.Conflict("page type registry is frozen")

// Registry maps type tags to concrete page types, grouped by base tag.
// It is populated at startup and frozen before serving.
type Registry struct {
	mu        sync.RWMutex
	frozen    bool
	types     map[string]*Type
	bases     map[string][]string // base tag -> member tags in registration order
	templates []Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*Type),
		bases: make(map[string][]string),
	}
}

// Register adds t as a concrete type of base. Registering the same
// definition twice is a no-op; a different definition under a tag already
// taken is a Conflict.
func (r *Registry) Register(base string, t Type) error {
	if base == "" || t.Tag == "" {
		return domainerrors.Validation("page type needs a tag and a base")
	}
	t.Base = base
	if t.Name == "" {
		t.Name = t.Tag
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	if existing, ok := r.types[t.Tag]; ok {
		if existing.sameDefinition(&t) {
			return nil
		}
		return domainerrors.Conflictf("page type %q already registered", t.Tag)
	}

	r.types[t.Tag] = &t
	r.bases[base] = append(r.bases[base], t.Tag)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(base string, t Type) {
	if err := r.Register(base, t); err != nil {
		panic(err)
	}
}

// Freeze rejects further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Resolve returns the type registered under tag.
func (r *Registry) Resolve(tag string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[tag]
	return t, ok
}

// SubtypesOf returns the tags registered under base, in registration order.
func (r *Registry) SubtypesOf(base string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.bases[base]...)
}

// Types returns the types registered under base, in registration order.
func (r *Registry) Types(base string) []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, 0, len(r.bases[base]))
	for _, tag := range r.bases[base] {
		out = append(out, r.types[tag])
	}
	return out
}

// Lineage returns tag followed by the types it extends, ending at the base
// type. Unknown tags yield just the tag.
func (r *Registry) Lineage(tag string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []string{tag}
	seen := map[string]bool{tag: true}
	t, ok := r.types[tag]
	for ok {
		next := t.Extends
		if next == "" {
			next = t.Base
		}
		if seen[next] {
			break
		}
		seen[next] = true
		out = append(out, next)
		t, ok = r.types[next]
	}
	return out
}

// TypeAndSubtypes returns tag and every registered type extending it,
// directly or transitively.
func (r *Registry) TypeAndSubtypes(tag string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[tag]
	if !ok {
		return []string{tag}
	}

	out := []string{tag}
	in := map[string]bool{tag: true}
	// Walk until no new member is found; chains are short.
	for changed := true; changed; {
		changed = false
		for _, member := range r.bases[t.Base] {
			if in[member] {
				continue
			}
			parent := r.types[member].Extends
			if parent == "" && member != t.Base {
				parent = t.Base
			}
			if in[parent] {
				in[member] = true
				out = append(out, member)
				changed = true
			}
		}
	}
	return out
}

// Validate reports every reference to an unknown type tag.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for base, members := range r.bases {
		if _, ok := r.types[base]; !ok {
			errs = append(errs, domainerrors.Validationf("base type %q is not registered", base))
		}
		for _, tag := range members {
			t := r.types[tag]
			if t.Extends != "" {
				if parent, ok := r.types[t.Extends]; !ok || parent.Base != base {
					errs = append(errs, domainerrors.Validationf("%s extends unknown type %q", tag, t.Extends))
				}
			}
			for _, ref := range append(append([]string(nil), t.SubpageTypes...), t.ParentTypes...) {
				if ref == "" {
					continue
				}
				if _, ok := r.types[ref]; !ok {
					errs = append(errs, domainerrors.Validationf("%s references unknown type %q", tag, ref))
				}
			}
		}
	}
	return errors.Join(errs...)
}
