// Package app wires the icon store, command engine, menus, storage and
// event bus into one object that every front end drives.
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/zap"

	"mindicons/internal/config"
	"mindicons/internal/controller"
	"mindicons/internal/events"
	"mindicons/internal/icons"
	"mindicons/internal/index"
	"mindicons/internal/menu"
	"mindicons/internal/mindmap"
	"mindicons/internal/storage"
	"mindicons/internal/styles"
	"mindicons/internal/undo"
)

// App owns the open maps. Every edit runs under one mutex, so front ends
// running on their own goroutines see a single logical UI thread.
type App struct {
	mu     sync.Mutex
	cfg    *config.Config
	logger *zap.Logger

	store   *icons.Store
	bus     *events.Bus
	engine  *undo.Engine
	maps    *mindmap.MapController
	icons   *controller.IconController
	actions *controller.Actions
	builder *menu.Builder
	styles  *styles.ConditionalStyles
	search  *index.Manager
	storage *storage.Manager
	docs    map[string]*mindmap.Map
	toolbar []*menu.Entry
	closed  bool
}

// New builds the application from cfg. The data directory defaults to
// ~/.mindicons.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DataDir == "" {
		dir, err := config.DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	store, err := loadStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		bus:    events.NewBus(),
		engine: undo.NewEngine(logger.Named("undo")),
		docs:   make(map[string]*mindmap.Map),
	}
	a.maps = mindmap.NewMapController(a.bus, logger)
	a.icons = controller.NewIconController(a.engine, a.maps, store, logger)
	a.actions = controller.NewActions(a.icons)
	a.builder = menu.NewBuilder(store, a.actions)
	a.styles = styles.NewConditionalStyles()
	styles.NewRefresher(a.styles, a.maps, logger)

	a.search, err = index.NewManager(store, logger.Named("index"))
	if err != nil {
		return nil, fmt.Errorf("failed to build icon index: %w", err)
	}
	a.storage, err = storage.NewManager(cfg.DataDir, logger.Sugar())
	if err != nil {
		a.search.Close()
		return nil, err
	}

	a.toolbar = a.builder.BuildToolbar(a.toolbarLayout(cfg))
	logger.Info("Application initialized",
		zap.Int("icons", len(store.Icons())),
		zap.Int("user_icons", len(store.UserIcons())),
		zap.Bool("structured_toolbar", cfg.StructuredIconToolbar))
	return a, nil
}

func loadStore(cfg *config.Config, logger *zap.Logger) (*icons.Store, error) {
	var (
		store *icons.Store
		err   error
	)
	if cfg.CatalogPath != "" {
		catalog, cerr := icons.LoadCatalog(cfg.CatalogPath)
		if cerr != nil {
			return nil, cerr
		}
		store, err = icons.NewStore(catalog)
	} else {
		store, err = icons.NewDefaultStore()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build icon store: %w", err)
	}

	dir := cfg.UserIconsPath()
	if dir == "" {
		return store, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("No user icon directory", zap.String("path", dir))
		return store, nil
	}
	if err := store.LoadUserIcons(dir); err != nil {
		return nil, err
	}
	return store, nil
}

// toolbarLayout resolves the configured icon list. Unknown names are
// dropped with a warning.
func (a *App) toolbarLayout(cfg *config.Config) menu.ToolbarLayout {
	layout := menu.ToolbarLayout{Structured: cfg.StructuredIconToolbar}
	for _, name := range cfg.ToolbarIcons() {
		icon, err := a.store.Lookup(name)
		if err != nil {
			a.logger.Warn("Skipping unknown toolbar icon", zap.String("icon", name))
			continue
		}
		layout.Icons = append(layout.Icons, icon)
	}
	return layout
}

// Bus returns the event bus
func (a *App) Bus() *events.Bus { return a.bus }

// Store returns the icon store
func (a *App) Store() *icons.Store {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store
}

// Actions returns the action registry
func (a *App) Actions() *controller.Actions {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.actions
}

// Config returns the active configuration
func (a *App) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// restartKeys are only read at startup.
var restartKeys = map[string]bool{
	"data_dir":         true,
	"listen":           true,
	"logging":          true,
	"shutdown_timeout": true,
}

// ApplyConfig switches to cfg and rebuilds the toolbar. A changed catalog
// or user icon directory reloads the icon store, its actions and the search
// index first; a store that fails to load rejects cfg. Used as the config
// watcher callback.
func (a *App) ApplyConfig(cfg *config.Config) error {
	a.mu.Lock()
	if cfg.DataDir == "" {
		cfg.DataDir = a.cfg.DataDir
	}
	changed := config.Changes(a.cfg, cfg)
	if containsAny(changed, "catalog_path", "user_icons_dir") {
		if err := a.reloadStoreLocked(cfg); err != nil {
			a.mu.Unlock()
			return err
		}
	}
	a.cfg = cfg
	a.toolbar = a.builder.BuildToolbar(a.toolbarLayout(cfg))
	entries := len(a.toolbar)
	a.mu.Unlock()

	for _, key := range changed {
		switch {
		case key == "undo_levels":
			a.logger.Info("New undo levels apply to maps opened from now on",
				zap.Int("undo_levels", cfg.UndoLevels))
		case restartKeys[key]:
			a.logger.Warn("Configuration change needs a restart", zap.String("key", key))
		}
	}

	a.bus.Publish(events.Event{Type: events.ConfigChanged, Data: map[string]interface{}{"keys": changed}})
	a.bus.Publish(events.Event{
		Type: events.ToolbarRebuilt,
		Data: map[string]interface{}{
			"structured": cfg.StructuredIconToolbar,
			"entries":    entries,
		},
	})
	a.logger.Info("Toolbar rebuilt after configuration change",
		zap.Bool("structured", cfg.StructuredIconToolbar),
		zap.Int("entries", entries))
	return nil
}

// reloadStoreLocked loads the icon store of cfg and rewires everything that
// holds the old one. Nothing changes when loading fails.
func (a *App) reloadStoreLocked(cfg *config.Config) error {
	store, err := loadStore(cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to reload icons: %w", err)
	}
	if err := a.search.Rebuild(store); err != nil {
		return fmt.Errorf("failed to rebuild icon index: %w", err)
	}
	a.store = store
	a.icons = controller.NewIconController(a.engine, a.maps, store, a.logger)
	a.actions = controller.NewActions(a.icons)
	a.builder = menu.NewBuilder(store, a.actions)
	a.logger.Info("Icon store reloaded",
		zap.Int("icons", len(store.Icons())),
		zap.Int("user_icons", len(store.UserIcons())))
	return nil
}

func containsAny(keys []string, wanted ...string) bool {
	for _, k := range keys {
		for _, w := range wanted {
			if k == w {
				return true
			}
		}
	}
	return false
}

// Toolbar returns the current icon toolbar entries.
func (a *App) Toolbar() []*menu.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*menu.Entry(nil), a.toolbar...)
}

// Menu returns the main icon menu.
func (a *App) Menu() *menu.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.builder.BuildMenu()
}

// Search finds icons for the icon chooser.
func (a *App) Search(query string, limit int) ([]index.Result, error) {
	return a.search.Search(query, limit)
}

// Close closes every open map, saving it, then releases storage, index
// and bus.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	var errs []error
	if err := a.closeAll(); err != nil {
		errs = append(errs, err)
	}
	if err := a.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}
	if err := a.search.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close index: %w", err))
	}
	a.bus.Close()
	return errors.Join(errs...)
}
