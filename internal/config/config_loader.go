package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultReloadDelay collapses the burst of events editors emit on save.
const DefaultReloadDelay = 100 * time.Millisecond

// Loader owns the configuration file: it loads it, writes updates to it and
// reloads it when another program edits it.
type Loader struct {
	path   string
	logger *zap.Logger
	delay  time.Duration

	mu       sync.Mutex
	current  *Config
	written  []byte // last content written by Update
	onChange func(*Config) error
	timer    *time.Timer

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stop     chan struct{}
}

// NewLoader creates a loader for path. Watching starts with StartWatching.
func NewLoader(path string, logger *zap.Logger) (*Loader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Loader{
		path:    path,
		logger:  logger.Named("config"),
		delay:   DefaultReloadDelay,
		watcher: watcher,
		stop:    make(chan struct{}),
	}, nil
}

// Path returns the configuration file location
func (l *Loader) Path() string { return l.path }

// SetReloadDelay changes the debounce window. Zero reloads on every event.
func (l *Loader) SetReloadDelay(d time.Duration) {
	l.mu.Lock()
	l.delay = d
	l.mu.Unlock()
}

// Load reads the file and makes it the current configuration.
func (l *Loader) Load() (*Config, error) {
	cfg, err := LoadFromFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Current returns a copy of the current configuration, nil before Load.
func (l *Loader) Current() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return nil
	}
	cfg, err := cloneConfig(l.current)
	if err != nil {
		l.logger.Error("Failed to copy configuration", zap.Error(err))
		return nil
	}
	return cfg
}

// StartWatching calls onChange after every external edit of the file that
// loads and validates. The directory is watched since atomic saves replace
// the file.
func (l *Loader) StartWatching(onChange func(*Config) error) error {
	l.mu.Lock()
	l.onChange = onChange
	l.mu.Unlock()

	if err := l.watcher.Add(filepath.Dir(l.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(l.path), err)
	}
	go l.watchLoop()

	l.logger.Info("Watching configuration file", zap.String("path", l.path))
	return nil
}

func (l *Loader) watchLoop() {
	target := filepath.Clean(l.path)
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				l.scheduleReload()
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("File watcher error", zap.Error(err))
		case <-l.stop:
			return
		}
	}
}

func (l *Loader) scheduleReload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.delay <= 0 {
		go l.reload()
		return
	}
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(l.delay, l.reload)
}

// reload applies the file unless it holds exactly what Update wrote. A
// rejected change leaves the previous configuration current.
func (l *Loader) reload() {
	select {
	case <-l.stop:
		return
	default:
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		l.logger.Warn("Configuration file unreadable", zap.String("path", l.path), zap.Error(err))
		return
	}

	l.mu.Lock()
	own := l.written != nil && bytes.Equal(data, l.written)
	l.mu.Unlock()
	if own {
		l.logger.Debug("Skipping reload of our own write")
		return
	}

	cfg, err := LoadFromFile(l.path)
	if err != nil {
		l.logger.Error("Failed to reload configuration", zap.String("path", l.path), zap.Error(err))
		return
	}

	l.mu.Lock()
	old := l.current
	onChange := l.onChange
	l.mu.Unlock()

	changed := Changes(old, cfg)
	if len(changed) == 0 {
		l.logger.Debug("Configuration file touched without changes")
		return
	}
	l.logger.Info("Configuration file changed", zap.Strings("keys", changed))

	if onChange != nil {
		if err := onChange(cfg); err != nil {
			l.logger.Error("Failed to apply configuration changes", zap.Error(err))
			return
		}
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
}

// Update edits the settings stored in the file with fn, validates them and
// replaces the file atomically. Environment overrides are applied to the
// returned configuration but never written. The watcher does not report
// this write back.
func (l *Loader) Update(fn func(*Config) error) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next, err := loadFileOnly(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config for update: %w", err)
	}
	if err := fn(next); err != nil {
		return nil, fmt.Errorf("update rejected: %w", err)
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(l.path, data); err != nil {
		return nil, err
	}
	l.written = data

	effective, err := LoadFromFile(l.path)
	if err != nil {
		l.logger.Warn("Environment overrides rejected after update", zap.Error(err))
		effective = next
	}
	l.current = effective
	l.logger.Info("Configuration saved", zap.String("path", l.path))
	return effective, nil
}

// Stop ends watching. It is safe to call more than once.
func (l *Loader) Stop() error {
	var err error
	l.stopOnce.Do(func() {
		close(l.stop)
		l.mu.Lock()
		if l.timer != nil {
			l.timer.Stop()
		}
		l.mu.Unlock()
		if cerr := l.watcher.Close(); cerr != nil {
			err = fmt.Errorf("failed to close watcher: %w", cerr)
		}
		l.logger.Debug("Stopped configuration watcher")
	})
	return err
}

// Changes lists the keys whose values differ between old and next.
func Changes(old, next *Config) []string {
	if old == nil {
		old = DefaultConfig()
	}
	var keys []string
	add := func(key string, differs bool) {
		if differs {
			keys = append(keys, key)
		}
	}
	add("data_dir", old.DataDir != next.DataDir)
	add("listen", old.Listen != next.Listen)
	add("structured_icon_toolbar", old.StructuredIconToolbar != next.StructuredIconToolbar)
	add("icons_list", old.IconsList != next.IconsList)
	add("catalog_path", old.CatalogPath != next.CatalogPath)
	add("user_icons_dir", old.UserIconsDir != next.UserIconsDir)
	add("undo_levels", old.UndoLevels != next.UndoLevels)
	add("shutdown_timeout", old.ShutdownTimeout != next.ShutdownTimeout)
	oldLog, nextLog := old.Logging, next.Logging
	add("logging", (oldLog == nil) != (nextLog == nil) || (oldLog != nil && nextLog != nil && *oldLog != *nextLog))
	return keys
}

func cloneConfig(cfg *Config) (*Config, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var out Config
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &out, nil
}

// writeFileAtomic writes to a temporary sibling and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0600)
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
