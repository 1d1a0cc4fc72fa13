package pagetype

// CanExistUnder reports whether a child of type childTag may be placed
// under a parent of type parentTag. An empty parentTag means the root
// level, where every known type may live.
func (r *Registry) CanExistUnder(childTag, parentTag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canExistUnder(childTag, parentTag)
}

func (r *Registry) canExistUnder(childTag, parentTag string) bool {
	child, ok := r.types[childTag]
	if !ok {
		return false
	}
	if parentTag == "" {
		return true
	}
	parent, ok := r.types[parentTag]
	if !ok || parent.Base != child.Base {
		return false
	}
	return allows(parent.SubpageTypes, childTag) && allows(child.ParentTypes, parentTag)
}

// AllowedSubpageTypes lists the types that may be placed under parentTag.
func (r *Registry) AllowedSubpageTypes(parentTag string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parent, ok := r.types[parentTag]
	if !ok {
		return nil
	}
	var out []string
	for _, tag := range r.bases[parent.Base] {
		if r.canExistUnder(tag, parentTag) {
			out = append(out, tag)
		}
	}
	return out
}

// AllowedParentTypes lists the types childTag may be placed under.
func (r *Registry) AllowedParentTypes(childTag string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	child, ok := r.types[childTag]
	if !ok {
		return nil
	}
	var out []string
	for _, tag := range r.bases[child.Base] {
		if r.canExistUnder(childTag, tag) {
			out = append(out, tag)
		}
	}
	return out
}

// CreatableSubpageTypes lists the types an editor may create under parentTag.
func (r *Registry) CreatableSubpageTypes(parentTag string) []string {
	var out []string
	for _, tag := range r.AllowedSubpageTypes(parentTag) {
		if t, _ := r.Resolve(tag); !t.NotCreatable {
			out = append(out, tag)
		}
	}
	return out
}

// CanCreateAt reports whether a new page of childTag may be created under
// parentTag when existing pages of that type already exist.
func (r *Registry) CanCreateAt(childTag, parentTag string, existing int) bool {
	t, ok := r.Resolve(childTag)
	if !ok || t.NotCreatable {
		return false
	}
	if t.MaxCount > 0 && existing >= t.MaxCount {
		return false
	}
	return r.CanExistUnder(childTag, parentTag)
}
