//go:build !nogui && !headless && !linux

package tray

import (
	"context"
	_ "embed"
	"runtime"
	"sync"

	"fyne.io/systray"
	"go.uber.org/zap"

	"mindicons/internal/app"
	"mindicons/internal/events"
)

//go:embed icon.png
var iconData []byte

// Tray renders the icon toolbar as tray menus.
type Tray struct {
	app      *app.App
	clicks   *clickHandler
	logger   *zap.SugaredLogger
	shutdown func()

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	// ends the click loops of the previous render
	renderCancel context.CancelFunc
}

// New creates a tray bound to target. shutdown is called on Quit.
func New(a *app.App, target Target, logger *zap.SugaredLogger, shutdown func()) *Tray {
	return &Tray{
		app:      a,
		clicks:   &clickHandler{performer: a, target: target, logger: logger},
		logger:   logger,
		shutdown: shutdown,
	}
}

// Run blocks in the platform event loop until ctx is cancelled or Quit is
// clicked. Must be called from the main goroutine.
func (t *Tray) Run(ctx context.Context) error {
	t.ctx, t.cancel = context.WithCancel(ctx)
	defer t.cancel()

	go func() {
		<-t.ctx.Done()
		systray.Quit()
	}()

	systray.Run(t.onReady, t.onExit)
	return ctx.Err()
}

// Stop leaves the event loop
func (t *Tray) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
}

func (t *Tray) onReady() {
	systray.SetIcon(iconData)
	if runtime.GOOS == "darwin" {
		systray.SetTemplateIcon(iconData, iconData)
	}
	systray.SetTooltip("mindicons: " + t.clicks.target.MapID + "/" + t.clicks.target.NodeID)

	t.render()

	rebuilt := t.app.Bus().Subscribe(events.ToolbarRebuilt)
	go func() {
		defer rebuilt.Close()
		for {
			select {
			case _, ok := <-rebuilt.C:
				if !ok {
					return
				}
				t.logger.Debug("Toolbar rebuilt, refreshing tray menu")
				t.render()
			case <-t.ctx.Done():
				return
			}
		}
	}()
	t.logger.Info("System tray is ready")
}

func (t *Tray) onExit() {
	t.logger.Info("System tray exited")
}

// render replaces the whole menu with the current toolbar.
func (t *Tray) render() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.renderCancel != nil {
		t.renderCancel()
	}
	ctx, cancel := context.WithCancel(t.ctx)
	t.renderCancel = cancel

	systray.ResetMenu()

	for _, item := range Items(t.app.Toolbar()) {
		if item.Separator {
			systray.AddSeparator()
			continue
		}
		mi := systray.AddMenuItem(item.Title, item.Tooltip)
		t.bind(ctx, mi, item)
	}

	systray.AddSeparator()
	undo := systray.AddMenuItem("Undo", "Undo the last icon change")
	redo := systray.AddMenuItem("Redo", "Redo the last undone icon change")
	quit := systray.AddMenuItem("Quit", "Quit mindicons")

	mapID := t.clicks.target.MapID
	go func() {
		for {
			select {
			case <-undo.ClickedCh:
				if _, err := t.app.Undo(mapID); err != nil {
					t.logger.Warnf("Undo failed: %v", err)
				}
			case <-redo.ClickedCh:
				if _, err := t.app.Redo(mapID); err != nil {
					t.logger.Warnf("Redo failed: %v", err)
				}
			case <-quit.ClickedCh:
				t.logger.Info("Quit item clicked, shutting down")
				if t.shutdown != nil {
					go t.shutdown()
				}
				t.cancel()
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// bind creates the children of item below mi and forwards clicks.
func (t *Tray) bind(ctx context.Context, mi *systray.MenuItem, item Item) {
	for _, child := range item.Children {
		if child.Separator {
			continue
		}
		t.bind(ctx, mi.AddSubMenuItem(child.Title, child.Tooltip), child)
	}
	if item.ActionKey == "" {
		return
	}
	key := item.ActionKey
	go func() {
		for {
			select {
			case _, ok := <-mi.ClickedCh:
				if !ok {
					return
				}
				t.clicks.click(key)
			case <-ctx.Done():
				return
			}
		}
	}()
}
