package menu

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindicons/internal/controller"
	"mindicons/internal/icons"
	"mindicons/internal/mindmap"
	"mindicons/internal/undo"
)

func newBuilder(t *testing.T, groups ...icons.Group) (*Builder, *icons.Store) {
	t.Helper()
	store, err := icons.NewStore(&icons.Catalog{Groups: groups})
	require.NoError(t, err)
	ctrl := controller.NewIconController(undo.NewEngine(nil), mindmap.NewMapController(nil, nil), store, zap.NewNop())
	return NewBuilder(store, controller.NewActions(ctrl)), store
}

func pathGroup(name string, paths ...string) icons.Group {
	g := icons.Group{Name: name, Description: "Group " + name}
	for _, p := range paths {
		g.Icons = append(g.Icons, icons.Icon{Name: name + ":" + p, Path: p})
	}
	return g
}

// shape renders entries as "name{children}" for compact comparisons.
func shape(entries []*Entry) []string {
	var result []string
	for _, e := range entries {
		switch e.Kind {
		case Submenu:
			result = append(result, e.Name+"{"+strings.Join(shape(e.Children), ",")+"}")
		case Separator:
			result = append(result, "-")
		default:
			result = append(result, e.Label)
		}
	}
	return result
}

func TestBuildStructured_MergesAdjacent(t *testing.T) {
	b, _ := newBuilder(t, pathGroup("g", "a/x", "a/y", "b/z"))

	entries := b.BuildStructured()
	require.Len(t, entries, 1)
	assert.Equal(t, "Group g", entries[0].Label)
	assert.Equal(t, "Group g", entries[0].Tooltip)
	assert.Equal(t, []string{"a{x,y}", "b{z}"}, shape(entries[0].Children))
}

func TestBuildStructured_DoesNotMergeInterrupted(t *testing.T) {
	b, _ := newBuilder(t, pathGroup("g", "a/x", "b/y", "a/z"))

	entries := b.BuildStructured()
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"a{x}", "b{y}", "a{z}"}, shape(entries[0].Children))
}

func TestBuildStructured_Nested(t *testing.T) {
	b, _ := newBuilder(t, pathGroup("g", "top", "a/b/x", "a/b/y", "a/c"))

	entries := b.BuildStructured()
	assert.Equal(t, []string{"top", "a{b{x,y},c}"}, shape(entries[0].Children))
	assert.Equal(t, []string{
		controller.IconActionKey("g:top"),
		controller.IconActionKey("g:a/b/x"),
		controller.IconActionKey("g:a/b/y"),
		controller.IconActionKey("g:a/c"),
	}, entries[0].ActionKeys())
}

func TestBuildStructured_SkipsEmptyGroups(t *testing.T) {
	b, _ := newBuilder(t, icons.Group{Name: "empty"}, pathGroup("g", "x"))

	entries := b.BuildStructured()
	require.Len(t, entries, 1)
	assert.Equal(t, "g", entries[0].Name)
	assert.Equal(t, "images/icons/x.svg", entries[0].Glyph)
}

func TestBuildMenu_MergesByPath(t *testing.T) {
	b, _ := newBuilder(t,
		pathGroup("g", "a/x", "b/y", "a/z"),
		pathGroup("h", "a/w"),
	)

	root := b.BuildMenu()
	require.Len(t, root.Children, 2)
	assert.Equal(t, []string{"a{x,z}", "b{y}"}, shape(root.Children[0].Children))
	assert.Equal(t, []string{"a{w}"}, shape(root.Children[1].Children))
}

func TestBuildToolbar_Flat(t *testing.T) {
	b, store := newBuilder(t, pathGroup("g", "x", "y", "z"))

	y, err := store.Lookup("g:y")
	require.NoError(t, err)
	x, err := store.Lookup("g:x")
	require.NoError(t, err)

	entries := b.BuildToolbar(ToolbarLayout{Icons: []icons.Icon{y, x}})
	require.Len(t, entries, 6)
	assert.Equal(t, controller.RemoveFirstIconKey, entries[0].ActionKey)
	assert.Equal(t, controller.RemoveLastIconKey, entries[1].ActionKey)
	assert.Equal(t, controller.RemoveAllIconsKey, entries[2].ActionKey)
	assert.Equal(t, Separator, entries[3].Kind)
	assert.Equal(t, []string{"y", "x"}, shape(entries[4:]))
}

func TestBuildToolbar_UserIcons(t *testing.T) {
	store, err := icons.NewStore(&icons.Catalog{Groups: []icons.Group{pathGroup("g", "x")}})
	require.NoError(t, err)

	dir := t.TempDir()
	writeIcon(t, dir, "mine.svg")
	require.NoError(t, store.LoadUserIcons(dir))

	ctrl := controller.NewIconController(undo.NewEngine(nil), mindmap.NewMapController(nil, nil), store, nil)
	b := NewBuilder(store, controller.NewActions(ctrl))

	entries := b.BuildToolbar(ToolbarLayout{})
	require.Len(t, entries, 5)
	assert.Equal(t, controller.IconActionKey("mine"), entries[4].ActionKey)
}

func TestBuildToolbar_Structured(t *testing.T) {
	b, _ := newBuilder(t, pathGroup("g", "x"), pathGroup("h", "a/y"))

	entries := b.BuildToolbar(ToolbarLayout{Structured: true})
	assert.Equal(t, []string{"Remove first icon", "Remove last icon", "Remove all icons", "-", "g{x}", "h{a{y}}"}, shape(entries))
}

func TestEntry_Outline(t *testing.T) {
	b, _ := newBuilder(t, pathGroup("g", "a/x", "b"))

	var buf bytes.Buffer
	require.NoError(t, b.BuildMenu().Outline(&buf))
	assert.Equal(t, "Group g/\n  a/\n    x [IconAction.g:a/x]\n  b [IconAction.g:b]\n", buf.String())
}
