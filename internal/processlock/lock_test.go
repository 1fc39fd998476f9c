package processlock

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAcquireRelease(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	lock := New(dir, zap.NewNop())

	require.NoError(t, lock.Acquire())
	data, err := os.ReadFile(lock.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))

	// Reacquiring from the same process is fine
	require.NoError(t, lock.Acquire())

	require.NoError(t, lock.Release())
	_, err = os.Stat(lock.Path())
	assert.True(t, os.IsNotExist(err))

	// Releasing twice is a no-op
	require.NoError(t, lock.Release())
}

func TestAcquireReplacesGarbage(t *testing.T) {
	dir := t.TempDir()
	lock := New(dir, zap.NewNop())
	require.NoError(t, os.WriteFile(lock.Path(), []byte("not-a-pid"), 0600))

	require.NoError(t, lock.Acquire())
	data, err := os.ReadFile(lock.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	dir := t.TempDir()
	lock := New(dir, zap.NewNop())
	require.NoError(t, os.WriteFile(lock.Path(), []byte(strconv.Itoa(os.Getpid()+1)), 0600))

	require.NoError(t, lock.Release())
	_, err := os.Stat(lock.Path())
	assert.NoError(t, err)
}
