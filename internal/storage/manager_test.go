package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"mindicons/internal/icons"
	"mindicons/internal/mindmap"
)

func setup(t *testing.T) (*Manager, *icons.Store) {
	t.Helper()
	manager, err := NewManager(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	store, err := icons.NewDefaultStore()
	require.NoError(t, err)
	return manager, store
}

func lookup(t *testing.T, store *icons.Store, name string) icons.Icon {
	t.Helper()
	icon, err := store.Lookup(name)
	require.NoError(t, err)
	return icon
}

func TestManager_SaveLoadMap(t *testing.T) {
	manager, store := setup(t)

	doc := mindmap.NewMap("plan", 10)
	doc.Root().AddIcon(lookup(t, store, "idea"))
	doc.Root().AddIcon(lookup(t, store, "full-1"))
	child, err := doc.AddNode("child")
	require.NoError(t, err)
	child.SetIconSize(&mindmap.Quantity{Value: 16, Unit: mindmap.Px})

	rules := []RuleRecord{
		{Condition: "icon_contained", Icon: "idea", Style: "bright"},
		{Node: "child", Condition: "icon_exists", Negate: true, Style: "plain"},
	}
	require.NoError(t, manager.SaveMap(doc, rules))

	loaded, loadedRules, err := manager.LoadMap("plan", store, 10)
	require.NoError(t, err)
	assert.Equal(t, rules, loadedRules)
	assert.Equal(t, "plan", loaded.ID())
	assert.Equal(t, doc.Root().Icons(), loaded.Root().Icons())

	loadedChild, err := loaded.Node("child")
	require.NoError(t, err)
	assert.Equal(t, &mindmap.Quantity{Value: 16, Unit: mindmap.Px}, loadedChild.IconSize())
	assert.Nil(t, loaded.Root().IconSize())
	assert.Equal(t, 0, loaded.History().Len())
}

func TestManager_LoadSkipsUnknownIcons(t *testing.T) {
	manager, store := setup(t)

	require.NoError(t, manager.db.SaveMap(&MapRecord{
		ID: "legacy",
		Nodes: []*NodeRecord{
			{ID: mindmap.RootID, Icons: []string{"idea", "no-such-icon", "help"}, IconSize: "huge"},
		},
	}))

	loaded, rules, err := manager.LoadMap("legacy", store, 0)
	assert.Empty(t, rules)
	require.NoError(t, err)
	var names []string
	for _, icon := range loaded.Root().Icons() {
		names = append(names, icon.Name)
	}
	assert.Equal(t, []string{"idea", "help"}, names)
	assert.Nil(t, loaded.Root().IconSize())
}

func TestManager_ListAndDelete(t *testing.T) {
	manager, _ := setup(t)

	require.NoError(t, manager.SaveMap(mindmap.NewMap("b", 0), nil))
	require.NoError(t, manager.SaveMap(mindmap.NewMap("a", 0), nil))

	ids, err := manager.ListMaps()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, manager.DeleteMap("a"))
	err = manager.DeleteMap("a")
	assert.ErrorIs(t, err, ErrMapNotFound)

	_, _, err = manager.LoadMap("a", nil, 0)
	assert.ErrorIs(t, err, ErrMapNotFound)
}

func TestBoltDB_KeepsCreated(t *testing.T) {
	manager, _ := setup(t)
	db := manager.db

	require.NoError(t, db.SaveMap(&MapRecord{ID: "m"}))
	first, err := db.GetMap("m")
	require.NoError(t, err)

	require.NoError(t, db.SaveMap(&MapRecord{ID: "m"}))
	second, err := db.GetMap("m")
	require.NoError(t, err)
	assert.True(t, first.Created.Equal(second.Created))
	assert.False(t, second.Updated.Before(first.Updated))
}

func TestBoltDB_Schema(t *testing.T) {
	dir := t.TempDir()
	db, err := NewBoltDB(dir, zap.NewNop().Sugar())
	require.NoError(t, err)

	version, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint64(CurrentSchemaVersion), version)

	require.NoError(t, db.db.Update(func(tx *bbolt.Tx) error {
		buf := []byte{0, 0, 0, 0, 0, 0, 0, 99}
		return tx.Bucket([]byte(MetaBucket)).Put([]byte(SchemaVersionKey), buf)
	}))
	require.NoError(t, db.Close())

	_, err = NewBoltDB(dir, zap.NewNop().Sugar())
	assert.ErrorContains(t, err, "newer than supported")
}
