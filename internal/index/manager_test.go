package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindicons/internal/icons"
)

func newManager(t *testing.T) (*Manager, *icons.Store) {
	t.Helper()
	store, err := icons.NewDefaultStore()
	require.NoError(t, err)
	m, err := NewManager(store, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, store
}

func resultNames(results []Result) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Icon.Name)
	}
	return out
}

func TestManager_DocumentCount(t *testing.T) {
	m, store := newManager(t)
	count, err := m.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(store.Icons())), count)
}

func TestManager_SearchByName(t *testing.T) {
	m, _ := newManager(t)
	results, err := m.Search("flag", 10)
	require.NoError(t, err)
	assert.Len(t, results, 5)
	for _, r := range results {
		assert.Contains(t, r.Icon.Name, "flag")
	}
}

func TestManager_SearchByPrefixAndDescription(t *testing.T) {
	m, _ := newManager(t)

	results, err := m.Search("smiley", 10)
	require.NoError(t, err)
	assert.Contains(t, resultNames(results), "emoji-1F600")

	results, err = m.Search("priority", 10)
	require.NoError(t, err)
	assert.Contains(t, resultNames(results), "full-1")
}

func TestManager_SearchLimitAndEmpty(t *testing.T) {
	m, _ := newManager(t)

	results, err := m.Search("", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = m.Search("zzzznotthere", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestManager_Rebuild(t *testing.T) {
	m, store := newManager(t)

	dir := t.TempDir()
	require.NoError(t, writeFile(dir, "rocket.svg"))
	require.NoError(t, store.LoadUserIcons(dir))
	require.NoError(t, m.Rebuild(store))

	results, err := m.Search("rocket", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "rocket", results[0].Icon.Name)
}
