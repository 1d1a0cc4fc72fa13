package tree

import (
	"strconv"
	"strings"

	"github.com/cmskit/cmskit-server/internal/treepath"
)

// Order is an ORDER BY term over the "p" alias.
type Order string

// Orderings understood by the store.
const (
	ByPath              Order = "p.path ASC"
	ByPathDesc          Order = "p.path DESC"
	ByURLPathLengthDesc Order = "length(p.url_path) DESC"
	ByMenuWeightDesc    Order = "p.menu_weight DESC"
	BySlug              Order = "p.slug ASC"
)

// Query is a filtered, ordered page listing.
type Query struct {
	Where  Predicate
	Order  []Order
	Limit  int
	Offset int
}

// Where starts a query ordered by path.
func Where(p Predicate) Query {
	return Query{Where: p, Order: []Order{ByPath}}
}

// OrderBy replaces the ordering.
func (q Query) OrderBy(orders ...Order) Query {
	q.Order = orders
	return q
}

// Take limits the number of rows.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// SQL renders the WHERE, ORDER BY and LIMIT tail of a SELECT.
func (q Query) SQL() (string, []any) {
	clause, args := q.Where.SQL()
	var b strings.Builder
	b.WriteString(" WHERE ")
	b.WriteString(clause)
	if len(q.Order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.Order {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(string(o))
		}
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
		if q.Offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(strconv.Itoa(q.Offset))
		}
	}
	return b.String(), args
}

// CommonAncestorPath returns the path of the deepest node shared by paths.
// When includeSelf is false the parent paths are compared, so a node is
// never its own common ancestor. ok is false when nothing is shared.
func CommonAncestorPath(codec *treepath.Codec, paths []string, includeSelf bool) (string, bool) {
	if len(paths) == 0 {
		return "", false
	}
	candidates := paths
	if !includeSelf {
		seen := make(map[string]struct{}, len(paths))
		candidates = make([]string, 0, len(paths))
		for _, p := range paths {
			parent, err := codec.Parent(p)
			if err != nil {
				parent = ""
			}
			if _, ok := seen[parent]; ok {
				continue
			}
			seen[parent] = struct{}{}
			candidates = append(candidates, parent)
		}
	}
	prefix := codec.CommonPrefix(candidates)
	return prefix, prefix != ""
}
