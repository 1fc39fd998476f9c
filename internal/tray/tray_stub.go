//go:build nogui || headless || linux

package tray

import (
	"context"

	"go.uber.org/zap"

	"mindicons/internal/app"
)

// Tray is a no-op on builds without a system tray.
type Tray struct {
	logger *zap.SugaredLogger
	cancel context.CancelFunc
}

// New creates a tray stub
func New(_ *app.App, _ Target, logger *zap.SugaredLogger, _ func()) *Tray {
	return &Tray{logger: logger}
}

// Run waits for ctx to be cancelled.
func (t *Tray) Run(ctx context.Context) error {
	t.logger.Info("System tray not available in this build")
	ctx, t.cancel = context.WithCancel(ctx)
	<-ctx.Done()
	return ctx.Err()
}

// Stop ends Run
func (t *Tray) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
}
