package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindicons/internal/icons"
	"mindicons/internal/mindmap"
	"mindicons/internal/undo"
)

type fixture struct {
	ctrl    *IconController
	doc     *mindmap.Map
	node    *mindmap.Node
	changes []mindmap.NodeChangeEvent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := icons.NewDefaultStore()
	require.NoError(t, err)

	f := &fixture{doc: mindmap.NewMap("doc", 0)}
	f.node = f.doc.Root()
	maps := mindmap.NewMapController(nil, zap.NewNop())
	maps.AddNodeChangeListener(mindmap.NodeChangeListenerFunc(func(ev mindmap.NodeChangeEvent) {
		f.changes = append(f.changes, ev)
	}))
	f.ctrl = NewIconController(undo.NewEngine(zap.NewNop()), maps, store, zap.NewNop())
	return f
}

func (f *fixture) icon(t *testing.T, name string) icons.Icon {
	t.Helper()
	icon, err := f.ctrl.Store().Lookup(name)
	require.NoError(t, err)
	return icon
}

func iconNames(n *mindmap.Node) []string {
	result := []string{}
	for _, i := range n.Icons() {
		result = append(result, i.Name)
	}
	return result
}

func TestAddIcon_Undo(t *testing.T) {
	f := newFixture(t)
	f.node.AddIcon(f.icon(t, "idea"))

	f.ctrl.AddIcon(f.node, f.icon(t, "help"))
	assert.Equal(t, []string{"idea", "help"}, iconNames(f.node))

	require.True(t, f.ctrl.Undo(f.doc))
	assert.Equal(t, []string{"idea"}, iconNames(f.node))

	require.Len(t, f.changes, 2)
	assert.Nil(t, f.changes[0].Old)
	assert.Equal(t, "help", f.changes[0].New.(icons.Icon).Name)
	assert.Equal(t, "help", f.changes[1].Old.(icons.Icon).Name)
	assert.Nil(t, f.changes[1].New)

	require.True(t, f.ctrl.Redo(f.doc))
	assert.Equal(t, []string{"idea", "help"}, iconNames(f.node))
}

func TestAddIconAt(t *testing.T) {
	f := newFixture(t)
	f.ctrl.AddIcon(f.node, f.icon(t, "full-1"))
	f.ctrl.AddIcon(f.node, f.icon(t, "full-3"))

	f.ctrl.AddIconAt(f.node, f.icon(t, "full-2"), 1)
	assert.Equal(t, []string{"full-1", "full-2", "full-3"}, iconNames(f.node))

	f.ctrl.Undo(f.doc)
	assert.Equal(t, []string{"full-1", "full-3"}, iconNames(f.node))

	f.ctrl.AddIconAt(f.node, f.icon(t, "full-4"), 42)
	assert.Equal(t, []string{"full-1", "full-3", "full-4"}, iconNames(f.node))
	f.ctrl.Undo(f.doc)
	assert.Equal(t, []string{"full-1", "full-3"}, iconNames(f.node))
}

func TestRemoveIcon(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"full-1", "full-2", "full-3"} {
		f.ctrl.AddIcon(f.node, f.icon(t, name))
	}

	assert.Equal(t, 2, f.ctrl.RemoveIcon(f.node, 1))
	assert.Equal(t, []string{"full-1", "full-3"}, iconNames(f.node))

	f.ctrl.Undo(f.doc)
	assert.Equal(t, []string{"full-1", "full-2", "full-3"}, iconNames(f.node))

	assert.Equal(t, 2, f.ctrl.RemoveIcon(f.node, -3))
	assert.Equal(t, []string{"full-2", "full-3"}, iconNames(f.node))
}

func TestRemoveIcon_OutOfRange(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"full-1", "full-2"} {
		f.ctrl.AddIcon(f.node, f.icon(t, name))
	}
	before := f.doc.History().Len()

	for _, position := range []int{2, 7, -3, -10} {
		assert.Equal(t, 2, f.ctrl.RemoveIcon(f.node, position), "position %d", position)
	}
	assert.Equal(t, []string{"full-1", "full-2"}, iconNames(f.node))
	assert.Equal(t, before, f.doc.History().Len())

	empty, err := f.doc.AddNode("empty")
	require.NoError(t, err)
	assert.Equal(t, 0, f.ctrl.RemoveLastIcon(empty))
}

func TestRemoveAllIcons(t *testing.T) {
	f := newFixture(t)
	names := []string{"full-1", "idea", "flag-red", "help"}
	for _, name := range names {
		f.node.AddIcon(f.icon(t, name))
	}

	f.ctrl.RemoveAllIcons(f.node)
	assert.Equal(t, 0, f.node.IconCount())
	assert.Equal(t, len(names), f.doc.History().Len())

	for i := 0; i < len(names); i++ {
		require.True(t, f.ctrl.Undo(f.doc))
	}
	assert.Equal(t, names, iconNames(f.node))
	assert.False(t, f.ctrl.Undo(f.doc))
}

func TestChangeIconSize(t *testing.T) {
	f := newFixture(t)

	big := &mindmap.Quantity{Value: 24, Unit: mindmap.Pt}
	f.ctrl.ChangeIconSize(f.node, big)
	assert.Equal(t, big, f.node.IconSize())

	small := &mindmap.Quantity{Value: 8, Unit: mindmap.Px}
	f.ctrl.ChangeIconSize(f.node, small)
	assert.Equal(t, small, f.node.IconSize())

	f.ctrl.Undo(f.doc)
	assert.Equal(t, big, f.node.IconSize())
	f.ctrl.Undo(f.doc)
	assert.Nil(t, f.node.IconSize())

	last := f.changes[len(f.changes)-1]
	assert.Equal(t, mindmap.NodeIconSize, last.Property)
	assert.Equal(t, big, last.Old)
	assert.True(t, last.New == nil, "unset size must be an untyped nil, got %#v", last.New)
}

func TestChangeIconSize_UnsetIsUntypedNil(t *testing.T) {
	f := newFixture(t)

	size := &mindmap.Quantity{Value: 12, Unit: mindmap.Pt}
	f.ctrl.ChangeIconSize(f.node, size)
	require.Len(t, f.changes, 1)
	assert.True(t, f.changes[0].Old == nil, "previous size must be an untyped nil, got %#v", f.changes[0].Old)
	assert.Equal(t, size, f.changes[0].New)

	f.ctrl.ChangeIconSize(f.node, nil)
	require.Len(t, f.changes, 2)
	assert.Equal(t, size, f.changes[1].Old)
	assert.True(t, f.changes[1].New == nil, "cleared size must be an untyped nil, got %#v", f.changes[1].New)
}

func TestCopyIcons(t *testing.T) {
	f := newFixture(t)
	target, err := f.doc.AddNode("target")
	require.NoError(t, err)

	for _, name := range []string{"idea", "help", "yes"} {
		f.node.AddIcon(f.icon(t, name))
	}
	target.AddIcon(f.icon(t, "help"))

	f.ctrl.CopyIcons(f.node, target)
	assert.Equal(t, []string{"help", "idea", "yes"}, iconNames(target))

	f.ctrl.Undo(f.doc)
	f.ctrl.Undo(f.doc)
	assert.Equal(t, []string{"help"}, iconNames(target))
}

func TestClearIcons(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"idea", "help"} {
		f.node.AddIcon(f.icon(t, name))
	}
	f.ctrl.ClearIcons(f.node)
	assert.Equal(t, 0, f.node.IconCount())
	assert.Equal(t, 2, f.doc.History().Len())
}

func TestRemoveIconsOf(t *testing.T) {
	f := newFixture(t)
	which, err := f.doc.AddNode("which")
	require.NoError(t, err)

	for _, name := range []string{"idea", "help", "yes", "idea"} {
		f.node.AddIcon(f.icon(t, name))
	}
	which.AddIcon(f.icon(t, "idea"))

	f.ctrl.RemoveIconsOf(f.node, which)
	assert.Equal(t, []string{"help", "yes"}, iconNames(f.node))

	f.ctrl.Undo(f.doc)
	f.ctrl.Undo(f.doc)
	assert.Equal(t, []string{"idea", "help", "yes", "idea"}, iconNames(f.node))
}

func TestListStandardIconKeys(t *testing.T) {
	f := newFixture(t)
	keys := f.ctrl.ListStandardIconKeys()
	require.NotEmpty(t, keys)
	assert.Equal(t, "full-1", keys[0])
	assert.Contains(t, keys, "flag-red")
	assert.Len(t, keys, len(f.ctrl.Store().Icons()))
}
