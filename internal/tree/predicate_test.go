package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/treepath"
)

var codec = treepath.MustNew(4)

func page(id, path string) *domain.Page {
	return &domain.Page{ID: id, Path: path, Depth: codec.Depth(path), Slug: id}
}

// fixture:
//
//	A 0001
//	├── B 00010001
//	│   └── D 000100010001
//	└── E 00010002
//	C 0002
func fixture() (a, b, c, d, e *domain.Page, all []*domain.Page) {
	a = page("A", "0001")
	b = page("B", "00010001")
	c = page("C", "0002")
	d = page("D", "000100010001")
	e = page("E", "00010002")
	return a, b, c, d, e, []*domain.Page{a, b, d, e, c}
}

func ids(pages []*domain.Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.ID
	}
	return out
}

func TestDescendantOf(t *testing.T) {
	a, b, _, _, _, all := fixture()

	assert.Equal(t, []string{"B", "D", "E"}, ids(DescendantOf(a, false).Filter(all)))
	assert.Equal(t, []string{"A", "B", "D", "E"}, ids(DescendantOf(a, true).Filter(all)))
	assert.Equal(t, []string{"D"}, ids(DescendantOf(b, false).Filter(all)))
	assert.Equal(t, []string{"A", "E", "C"}, ids(NotDescendantOf(b, true).Filter(all)))
}

func TestDescendantOf_ThreeNodeChain(t *testing.T) {
	a := page("A", "0001")
	b := page("B", "00010001")
	c := page("C", "0002")

	got := DescendantOf(a, false).Filter([]*domain.Page{a, b, c})
	assert.Equal(t, []string{"B"}, ids(got))
}

func TestChildOf(t *testing.T) {
	a, _, _, _, _, all := fixture()

	assert.Equal(t, []string{"B", "E"}, ids(ChildOf(a).Filter(all)))
	assert.Equal(t, []string{"A", "D", "C"}, ids(NotChildOf(a).Filter(all)))
}

func TestAncestorOf(t *testing.T) {
	a, _, _, d, _, all := fixture()

	assert.Equal(t, []string{"A", "B"}, ids(AncestorOf(codec, d, false).Filter(all)))
	assert.Equal(t, []string{"A", "B", "D"}, ids(AncestorOf(codec, d, true).Filter(all)))
	assert.Empty(t, AncestorOf(codec, a, false).Filter(all))
}

func TestParentOf(t *testing.T) {
	a, _, _, d, _, all := fixture()

	assert.Equal(t, []string{"B"}, ids(ParentOf(codec, d).Filter(all)))
	assert.Empty(t, ParentOf(codec, a).Filter(all))
	assert.Len(t, NotParentOf(codec, a).Filter(all), len(all))
}

func TestSiblingOf(t *testing.T) {
	a, b, _, _, _, all := fixture()

	assert.Equal(t, []string{"B", "E"}, ids(SiblingOf(codec, b, true).Filter(all)))
	assert.Equal(t, []string{"E"}, ids(SiblingOf(codec, b, false).Filter(all)))
	assert.Equal(t, []string{"C"}, ids(SiblingOf(codec, a, false).Filter(all)))
	assert.Equal(t, []string{"A", "D", "C"}, ids(NotSiblingOf(codec, b, true).Filter(all)))
}

func TestNextAndPrevSiblings(t *testing.T) {
	_, b, _, _, e, all := fixture()

	next := And(SiblingOf(codec, b, false), PathAfter(b.Path, false))
	assert.Equal(t, []string{"E"}, ids(next.Filter(all)))

	prev := And(SiblingOf(codec, e, false), PathBefore(e.Path, false))
	assert.Equal(t, []string{"B"}, ids(prev.Filter(all)))
}

func TestComposition(t *testing.T) {
	a, _, _, _, e, all := fixture()
	e.Active = true

	got := And(DescendantOf(a, false), Active()).Filter(all)
	assert.Equal(t, []string{"E"}, ids(got))

	got = Or(ID("C"), Slug("D")).Filter(all)
	assert.Equal(t, []string{"D", "C"}, ids(got))

	assert.Empty(t, Or().Filter(all))
	assert.Len(t, All().Filter(all), len(all))
	assert.Empty(t, None().Filter(all))
}

func TestTypeInAndURLPathIn(t *testing.T) {
	blog := "blog"
	p := &domain.Page{ID: "x", TypeTag: "pages.gallery", URLPath: &blog}
	hidden := &domain.Page{ID: "y", TypeTag: "pages.page"}

	assert.True(t, TypeIn("pages.gallery", "pages.folder").Match(p))
	assert.False(t, TypeIn().Match(p))
	assert.True(t, URLPathIn("blog", "blog/2024").Match(p))
	assert.False(t, URLPathIn("blog").Match(hidden))
}

func TestPredicateSQL(t *testing.T) {
	a, _, _, _, _, _ := fixture()

	clause, args := ChildOf(a).SQL()
	assert.Equal(t, "(((substr(p.path, 1, ?) = ?) AND (p.depth >= ?)) AND (NOT (p.id = ?))) AND (p.depth = ?)", clause)
	assert.Equal(t, []any{4, "0001", 1, "A", 2}, args)

	clause, args = All().SQL()
	assert.Equal(t, "1 = 1", clause)
	assert.Empty(t, args)
}

func TestQuerySQL(t *testing.T) {
	sql, args := Where(URLPathIn("a", "a/b")).
		OrderBy(ByURLPathLengthDesc, ByMenuWeightDesc).
		Take(5).SQL()

	assert.Equal(t, " WHERE p.url_path IN (?, ?) ORDER BY length(p.url_path) DESC, p.menu_weight DESC LIMIT 5", sql)
	assert.Equal(t, []any{"a", "a/b"}, args)
}

func TestCommonAncestorPath(t *testing.T) {
	path, ok := CommonAncestorPath(codec, []string{"00010002", "00010003"}, false)
	require.True(t, ok)
	assert.Equal(t, "0001", path)

	path, ok = CommonAncestorPath(codec, []string{"00010002"}, true)
	require.True(t, ok)
	assert.Equal(t, "00010002", path)

	_, ok = CommonAncestorPath(codec, []string{"0001", "00010002"}, false)
	assert.False(t, ok, "a root in the set leaves no shared parent")

	_, ok = CommonAncestorPath(codec, nil, true)
	assert.False(t, ok)
}
