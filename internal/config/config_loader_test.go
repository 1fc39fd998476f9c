package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, path string, cfg *Config) {
	t.Helper()
	data, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestNewLoader(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, configPath, DefaultConfig())

	loader, err := NewLoader(configPath, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, configPath, loader.Path())
	assert.NotNil(t, loader.watcher)

	assert.NoError(t, loader.Stop())
}

func TestLoader_Load(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	testConfig := DefaultConfig()
	testConfig.Listen = ":9999"
	testConfig.StructuredIconToolbar = true
	testConfig.IconsList = "idea; flag-red;;help"
	testConfig.ShutdownTimeout = Duration(3 * time.Second)
	writeConfig(t, configPath, testConfig)

	loader, err := NewLoader(configPath, zap.NewNop())
	require.NoError(t, err)
	defer loader.Stop()

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Listen)
	assert.True(t, cfg.StructuredIconToolbar)
	assert.Equal(t, []string{"idea", "flag-red", "help"}, cfg.ToolbarIcons())
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout.Duration())
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().IconsList, cfg.IconsList)
	assert.Equal(t, defaultUndoLevels, cfg.UndoLevels)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, configPath, DefaultConfig())
	t.Setenv("MINDICONS_STRUCTURED_ICON_TOOLBAR", "true")
	t.Setenv("MINDICONS_UNDO_LEVELS", "7")

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.True(t, cfg.StructuredIconToolbar)
	assert.Equal(t, 7, cfg.UndoLevels)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"undo_levels": -1}`), 0644))

	_, err := LoadFromFile(configPath)
	assert.Error(t, err)
}

func TestLoader_Update(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.json")

	loader, err := NewLoader(configPath, zap.NewNop())
	require.NoError(t, err)
	defer loader.Stop()

	next, err := loader.Update(func(cfg *Config) error {
		cfg.StructuredIconToolbar = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, next.StructuredIconToolbar)
	assert.True(t, loader.Current().StructuredIconToolbar)

	fileCfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.True(t, fileCfg.StructuredIconToolbar)

	entries, err := os.ReadDir(filepath.Dir(configPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")
}

func TestLoader_UpdateRejected(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, configPath, DefaultConfig())

	loader, err := NewLoader(configPath, zap.NewNop())
	require.NoError(t, err)
	defer loader.Stop()
	_, err = loader.Load()
	require.NoError(t, err)

	_, err = loader.Update(func(cfg *Config) error {
		cfg.UndoLevels = -5
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Equal(t, defaultUndoLevels, loader.Current().UndoLevels)

	_, err = loader.Update(func(cfg *Config) error { return assert.AnError })
	require.ErrorIs(t, err, assert.AnError)
}

func TestLoader_UpdateKeepsEnvOverridesOutOfFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, configPath, DefaultConfig())
	t.Setenv("MINDICONS_UNDO_LEVELS", "7")

	loader, err := NewLoader(configPath, zap.NewNop())
	require.NoError(t, err)
	defer loader.Stop()
	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, 7, cfg.UndoLevels)

	next, err := loader.Update(func(cfg *Config) error {
		cfg.StructuredIconToolbar = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, next.UndoLevels)
	assert.Equal(t, 7, loader.Current().UndoLevels)
	assert.True(t, loader.Current().StructuredIconToolbar)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	var stored Config
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, defaultUndoLevels, stored.UndoLevels)
	assert.True(t, stored.StructuredIconToolbar)
}

func TestLoader_CurrentIsACopy(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	loader, err := NewLoader(configPath, zap.NewNop())
	require.NoError(t, err)
	defer loader.Stop()

	assert.Nil(t, loader.Current())
	_, err = loader.Load()
	require.NoError(t, err)

	cfg := loader.Current()
	cfg.IconsList = "changed"
	assert.NotEqual(t, "changed", loader.Current().IconsList)
}

func TestChanges(t *testing.T) {
	old := DefaultConfig()
	next := DefaultConfig()
	assert.Empty(t, Changes(old, next))

	next.StructuredIconToolbar = true
	next.IconsList = "idea"
	next.Logging.Level = "debug"
	assert.Equal(t, []string{"structured_icon_toolbar", "icons_list", "logging"}, Changes(old, next))

	assert.Empty(t, Changes(nil, DefaultConfig()))
}

func TestLoader_FileWatching(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, configPath, DefaultConfig())

	loader, err := NewLoader(configPath, zap.NewNop())
	require.NoError(t, err)
	defer loader.Stop()
	loader.SetReloadDelay(10 * time.Millisecond)

	_, err = loader.Load()
	require.NoError(t, err)

	var mu sync.Mutex
	var applied []*Config
	require.NoError(t, loader.StartWatching(func(cfg *Config) error {
		mu.Lock()
		applied = append(applied, cfg)
		mu.Unlock()
		return nil
	}))

	modified := DefaultConfig()
	modified.StructuredIconToolbar = true
	writeConfig(t, configPath, modified)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) > 0 && applied[len(applied)-1].StructuredIconToolbar
	}, 2*time.Second, 20*time.Millisecond, "onChange should have been called")
	assert.Eventually(t, func() bool {
		return loader.Current().StructuredIconToolbar
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLoader_RejectedChangeKeepsCurrent(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, configPath, DefaultConfig())

	loader, err := NewLoader(configPath, zap.NewNop())
	require.NoError(t, err)
	defer loader.Stop()
	loader.SetReloadDelay(10 * time.Millisecond)
	_, err = loader.Load()
	require.NoError(t, err)

	var mu sync.Mutex
	calls := 0
	require.NoError(t, loader.StartWatching(func(cfg *Config) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return assert.AnError
	}))

	modified := DefaultConfig()
	modified.IconsList = "idea"
	writeConfig(t, configPath, modified)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, DefaultConfig().IconsList, loader.Current().IconsList)
}

func TestLoader_OwnWritesAreNotReloaded(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, configPath, DefaultConfig())

	loader, err := NewLoader(configPath, zap.NewNop())
	require.NoError(t, err)
	defer loader.Stop()
	loader.SetReloadDelay(10 * time.Millisecond)

	_, err = loader.Load()
	require.NoError(t, err)

	changeCount := 0
	var mu sync.Mutex
	require.NoError(t, loader.StartWatching(func(cfg *Config) error {
		mu.Lock()
		changeCount++
		mu.Unlock()
		return nil
	}))
	time.Sleep(100 * time.Millisecond)

	_, err = loader.Update(func(cfg *Config) error {
		cfg.IconsList = "idea"
		return nil
	})
	require.NoError(t, err)

	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	count := changeCount
	mu.Unlock()
	assert.Equal(t, 0, count, "onChange should not be called for our own writes")
	assert.Equal(t, []string{"idea"}, loader.Current().ToolbarIcons())
}

func TestLoader_StopTwice(t *testing.T) {
	loader, err := NewLoader(filepath.Join(t.TempDir(), "config.json"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, loader.Stop())
	require.NoError(t, loader.Stop())
}
