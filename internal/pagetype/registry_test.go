package pagetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
)

const base = "pages.page"

type mtiFields struct {
	AltTitle string `json:"altTitle"`
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(base, Type{Tag: base, Name: "Page"}))
	require.NoError(t, r.Register(base, Type{Tag: "pages.mtipage", Name: "MTI page", Fields: JSONFields[mtiFields]()}))
	require.NoError(t, r.Register(base, Type{Tag: "pages.mmtipage", Extends: "pages.mtipage", Fields: JSONFields[mtiFields]()}))
	require.NoError(t, r.Register(base, Type{Tag: "pages.stipage", SubpageTypes: []string{"pages.mtipage"}}))
	require.NoError(t, r.Register(base, Type{Tag: "pages.sstipage", Extends: "pages.stipage"}))
	require.NoError(t, r.Register(base, Type{Tag: "pages.home", MaxCount: 1, ParentTypes: []string{""}}))
	require.NoError(t, r.Register(base, Type{Tag: "pages.hidden", NotCreatable: true}))
	return r
}

func TestRegister_Idempotent(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Register(base, Type{Tag: "pages.stipage", SubpageTypes: []string{"pages.mtipage"}})
	require.NoError(t, err)
	assert.Len(t, r.SubtypesOf(base), 7)

	err = r.Register(base, Type{Tag: "pages.stipage", MaxCount: 3})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrConflict))
}

func TestRegister_RejectedAfterFreeze(t *testing.T) {
	r := newTestRegistry(t)
	r.Freeze()
	assert.True(t, r.Frozen())

	err := r.Register(base, Type{Tag: "pages.late"})
	assert.ErrorIs(t, err, ErrFrozen)

	_, ok := r.Resolve("pages.late")
	assert.False(t, ok)

	// Reads keep working once frozen.
	tp, ok := r.Resolve("pages.mtipage")
	require.True(t, ok)
	assert.Equal(t, base, tp.Base)
	assert.True(t, tp.HasFields())
}

func TestRegister_RequiresTagAndBase(t *testing.T) {
	r := NewRegistry()
	assert.True(t, domainerrors.Is(r.Register("", Type{Tag: "x"}), domainerrors.ErrValidation))
	assert.True(t, domainerrors.Is(r.Register(base, Type{}), domainerrors.ErrValidation))
}

func TestLineageAndSubtypes(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, []string{"pages.mmtipage", "pages.mtipage", base}, r.Lineage("pages.mmtipage"))
	assert.Equal(t, []string{base}, r.Lineage(base))
	assert.Equal(t, []string{"pages.gone"}, r.Lineage("pages.gone"))

	assert.ElementsMatch(t, []string{"pages.mtipage", "pages.mmtipage"}, r.TypeAndSubtypes("pages.mtipage"))
	assert.ElementsMatch(t, []string{"pages.stipage", "pages.sstipage"}, r.TypeAndSubtypes("pages.stipage"))
	assert.Len(t, r.TypeAndSubtypes(base), 7)
}

func TestCapabilities(t *testing.T) {
	r := newTestRegistry(t)

	assert.True(t, r.CanExistUnder("pages.mtipage", "pages.stipage"))
	assert.False(t, r.CanExistUnder(base, "pages.stipage"))
	assert.True(t, r.CanExistUnder(base, "pages.sstipage"), "subpage restriction is not inherited")
	assert.True(t, r.CanExistUnder("pages.home", ""))
	assert.False(t, r.CanExistUnder("pages.home", base))
	assert.False(t, r.CanExistUnder("pages.unknown", base))

	assert.Equal(t, []string{"pages.mtipage"}, r.AllowedSubpageTypes("pages.stipage"))
	assert.NotContains(t, r.AllowedSubpageTypes(base), "pages.home")
	assert.NotContains(t, r.AllowedParentTypes(base), "pages.stipage")
	assert.Empty(t, r.AllowedParentTypes("pages.home"))

	creatable := r.CreatableSubpageTypes(base)
	assert.Contains(t, creatable, "pages.mtipage")
	assert.NotContains(t, creatable, "pages.hidden")

	assert.True(t, r.CanCreateAt("pages.home", "", 0))
	assert.False(t, r.CanCreateAt("pages.home", "", 1))
	assert.False(t, r.CanCreateAt("pages.hidden", base, 0))
}

func TestValidate(t *testing.T) {
	r := newTestRegistry(t)
	assert.NoError(t, r.Validate())

	require.NoError(t, r.Register(base, Type{Tag: "pages.broken", SubpageTypes: []string{"pages.nope"}, Extends: "pages.missing"}))
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pages.nope")
	assert.Contains(t, err.Error(), "pages.missing")
}

func TestTemplates(t *testing.T) {
	r := NewRegistry()
	for _, tpl := range DefaultTemplates {
		require.NoError(t, r.RegisterTemplate(tpl))
	}
	require.NoError(t, r.RegisterTemplate(Template{Name: "index", Path: "index.html"}))

	err := r.RegisterTemplate(Template{Name: "base", Path: "other.html"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrConflict))

	err = r.RegisterTemplate(Template{Name: "nopath"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	tpl, ok := r.Template("index")
	require.True(t, ok)
	assert.Equal(t, "index.html", tpl.Path)

	require.NoError(t, r.UnregisterTemplate("index"))
	assert.Len(t, r.Templates(), 1)
}

func TestJSONFields(t *testing.T) {
	c := JSONFields[mtiFields]()

	zero, ok := c.Zero().(*mtiFields)
	require.True(t, ok)
	assert.Empty(t, zero.AltTitle)

	v, err := c.Decode(nil)
	require.NoError(t, err)
	assert.IsType(t, &mtiFields{}, v)

	data, err := c.Encode(&mtiFields{AltTitle: "Alt"})
	require.NoError(t, err)
	v, err = c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Alt", v.(*mtiFields).AltTitle)

	_, err = c.Encode("wrong")
	assert.Error(t, err)

	_, err = c.Decode([]byte("{"))
	assert.Error(t, err)
}
