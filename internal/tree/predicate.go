// Package tree builds filters over the materialized-path page tree.
//
// A Predicate carries both a SQL fragment (over the "p" alias of the pages
// table) and an in-memory matcher with the same meaning, so callers can
// intersect tree relations with their own criteria in either place.
package tree

import (
	"strings"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/treepath"
)

// Predicate is a composable filter over pages.
type Predicate struct {
	clause string
	args   []any
	match  func(*domain.Page) bool
}

// SQL returns the WHERE fragment and its positional arguments.
func (p Predicate) SQL() (string, []any) {
	if p.clause == "" {
		return "1 = 1", nil
	}
	return p.clause, p.args
}

// Match evaluates the predicate against a loaded page.
func (p Predicate) Match(pg *domain.Page) bool {
	if p.match == nil {
		return true
	}
	return p.match(pg)
}

// Filter keeps the pages matching p, preserving order.
func (p Predicate) Filter(pages []*domain.Page) []*domain.Page {
	out := make([]*domain.Page, 0, len(pages))
	for _, pg := range pages {
		if p.Match(pg) {
			out = append(out, pg)
		}
	}
	return out
}

// All matches every page.
func All() Predicate {
	return Predicate{}
}

// None matches no page.
func None() Predicate {
	return Predicate{clause: "1 = 0", match: func(*domain.Page) bool { return false }}
}

// And matches pages matching every predicate.
func And(ps ...Predicate) Predicate {
	return combine(" AND ", ps, func(pg *domain.Page) bool {
		for _, p := range ps {
			if !p.Match(pg) {
				return false
			}
		}
		return true
	})
}

// Or matches pages matching any predicate. An empty Or matches nothing.
func Or(ps ...Predicate) Predicate {
	if len(ps) == 0 {
		return None()
	}
	return combine(" OR ", ps, func(pg *domain.Page) bool {
		for _, p := range ps {
			if p.Match(pg) {
				return true
			}
		}
		return false
	})
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	clause, args := p.SQL()
	return Predicate{
		clause: "NOT (" + clause + ")",
		args:   args,
		match:  func(pg *domain.Page) bool { return !p.Match(pg) },
	}
}

func combine(sep string, ps []Predicate, match func(*domain.Page) bool) Predicate {
	parts := make([]string, 0, len(ps))
	var args []any
	for _, p := range ps {
		clause, a := p.SQL()
		parts = append(parts, "("+clause+")")
		args = append(args, a...)
	}
	if len(parts) == 0 {
		return All()
	}
	return Predicate{clause: strings.Join(parts, sep), args: args, match: match}
}

// ID matches one page by id.
func ID(id string) Predicate {
	return Predicate{
		clause: "p.id = ?",
		args:   []any{id},
		match:  func(pg *domain.Page) bool { return pg.ID == id },
	}
}

// IDIn matches pages whose id is listed.
func IDIn(ids ...string) Predicate {
	if len(ids) == 0 {
		return None()
	}
	set := make(map[string]struct{}, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		set[id] = struct{}{}
		args[i] = id
	}
	return Predicate{
		clause: "p.id IN (" + placeholders(len(ids)) + ")",
		args:   args,
		match:  func(pg *domain.Page) bool { _, ok := set[pg.ID]; return ok },
	}
}

// Path matches the page stored at path.
func Path(path string) Predicate {
	return Predicate{
		clause: "p.path = ?",
		args:   []any{path},
		match:  func(pg *domain.Page) bool { return pg.Path == path },
	}
}

// Active matches active pages.
func Active() Predicate {
	return Predicate{
		clause: "p.active = 1",
		match:  func(pg *domain.Page) bool { return pg.Active },
	}
}

// Slug matches pages with the given slug.
func Slug(slug string) Predicate {
	return Predicate{
		clause: "p.slug = ?",
		args:   []any{slug},
		match:  func(pg *domain.Page) bool { return pg.Slug == slug },
	}
}

// TypeIn matches pages whose type tag is listed.
func TypeIn(tags ...string) Predicate {
	if len(tags) == 0 {
		return None()
	}
	set := make(map[string]struct{}, len(tags))
	args := make([]any, len(tags))
	for i, tag := range tags {
		set[tag] = struct{}{}
		args[i] = tag
	}
	return Predicate{
		clause: "p.type_tag IN (" + placeholders(len(tags)) + ")",
		args:   args,
		match:  func(pg *domain.Page) bool { _, ok := set[pg.TypeTag]; return ok },
	}
}

// URLPathIn matches pages whose url path is listed.
func URLPathIn(paths ...string) Predicate {
	if len(paths) == 0 {
		return None()
	}
	set := make(map[string]struct{}, len(paths))
	args := make([]any, len(paths))
	for i, path := range paths {
		set[path] = struct{}{}
		args[i] = path
	}
	return Predicate{
		clause: "p.url_path IN (" + placeholders(len(paths)) + ")",
		args:   args,
		match: func(pg *domain.Page) bool {
			if pg.URLPath == nil {
				return false
			}
			_, ok := set[*pg.URLPath]
			return ok
		},
	}
}

// prefix matches pages whose path starts with prefix. substr is used
// instead of LIKE, which folds ASCII case in SQLite.
func prefix(prefix string) Predicate {
	return Predicate{
		clause: "substr(p.path, 1, ?) = ?",
		args:   []any{len(prefix), prefix},
		match:  func(pg *domain.Page) bool { return strings.HasPrefix(pg.Path, prefix) },
	}
}

func depth(d int) Predicate {
	return Predicate{
		clause: "p.depth = ?",
		args:   []any{d},
		match:  func(pg *domain.Page) bool { return pg.Depth == d },
	}
}

func minDepth(d int) Predicate {
	return Predicate{
		clause: "p.depth >= ?",
		args:   []any{d},
		match:  func(pg *domain.Page) bool { return pg.Depth >= d },
	}
}

// DescendantOf matches pages whose path starts with n's path. The node
// itself is included only when inclusive is set.
func DescendantOf(n *domain.Page, inclusive bool) Predicate {
	p := And(prefix(n.Path), minDepth(n.Depth))
	if !inclusive {
		p = And(p, Not(ID(n.ID)))
	}
	return p
}

// NotDescendantOf is the complement of DescendantOf.
func NotDescendantOf(n *domain.Page, inclusive bool) Predicate {
	return Not(DescendantOf(n, inclusive))
}

// ChildOf matches the direct children of n.
func ChildOf(n *domain.Page) Predicate {
	return And(DescendantOf(n, false), depth(n.Depth+1))
}

// NotChildOf is the complement of ChildOf.
func NotChildOf(n *domain.Page) Predicate {
	return Not(ChildOf(n))
}

// AtLevel matches the pages at depth d below parentPath. With an empty
// parentPath and d == 1 it selects the roots.
func AtLevel(parentPath string, d int) Predicate {
	return And(prefix(parentPath), depth(d))
}

// Roots matches top level pages.
func Roots() Predicate {
	return depth(1)
}

// AncestorOf matches the pages stored at a strict prefix of n's path, plus
// n itself when inclusive is set.
func AncestorOf(codec *treepath.Codec, n *domain.Page, inclusive bool) Predicate {
	paths := codec.Ancestors(n.Path)
	if inclusive {
		paths = append(paths, n.Path)
	}
	if len(paths) == 0 {
		return None()
	}
	set := make(map[string]struct{}, len(paths))
	args := make([]any, len(paths))
	for i, path := range paths {
		set[path] = struct{}{}
		args[i] = path
	}
	return Predicate{
		clause: "p.path IN (" + placeholders(len(paths)) + ")",
		args:   args,
		match:  func(pg *domain.Page) bool { _, ok := set[pg.Path]; return ok },
	}
}

// NotAncestorOf is the complement of AncestorOf.
func NotAncestorOf(codec *treepath.Codec, n *domain.Page, inclusive bool) Predicate {
	return Not(AncestorOf(codec, n, inclusive))
}

// ParentOf matches the parent of n. Roots have no parent, so for them it
// matches nothing.
func ParentOf(codec *treepath.Codec, n *domain.Page) Predicate {
	parent, err := codec.Parent(n.Path)
	if err != nil {
		return None()
	}
	return Path(parent)
}

// NotParentOf is the complement of ParentOf.
func NotParentOf(codec *treepath.Codec, n *domain.Page) Predicate {
	return Not(ParentOf(codec, n))
}

// SiblingOf matches pages sharing n's parent path and depth. Top level
// pages are siblings of each other.
func SiblingOf(codec *treepath.Codec, n *domain.Page, inclusive bool) Predicate {
	parent, err := codec.Parent(n.Path)
	if err != nil {
		parent = ""
	}
	p := And(prefix(parent), depth(n.Depth))
	if !inclusive {
		p = And(p, Not(ID(n.ID)))
	}
	return p
}

// NotSiblingOf is the complement of SiblingOf.
func NotSiblingOf(codec *treepath.Codec, n *domain.Page, inclusive bool) Predicate {
	return Not(SiblingOf(codec, n, inclusive))
}

// PathAfter matches pages whose path sorts after path (or equal when
// inclusive). Combined with SiblingOf it selects the next siblings.
func PathAfter(path string, inclusive bool) Predicate {
	if inclusive {
		return Predicate{
			clause: "p.path >= ?",
			args:   []any{path},
			match:  func(pg *domain.Page) bool { return pg.Path >= path },
		}
	}
	return Predicate{
		clause: "p.path > ?",
		args:   []any{path},
		match:  func(pg *domain.Page) bool { return pg.Path > path },
	}
}

// PathBefore matches pages whose path sorts before path (or equal when
// inclusive).
func PathBefore(path string, inclusive bool) Predicate {
	if inclusive {
		return Predicate{
			clause: "p.path <= ?",
			args:   []any{path},
			match:  func(pg *domain.Page) bool { return pg.Path <= path },
		}
	}
	return Predicate{
		clause: "p.path < ?",
		args:   []any{path},
		match:  func(pg *domain.Page) bool { return pg.Path < path },
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
