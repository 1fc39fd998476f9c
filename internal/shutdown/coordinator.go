// Package shutdown runs the teardown of a serving process in ordered phases.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"mindicons/internal/config"
)

// Phase orders shutdown handlers. Lower phases run first.
type Phase int

const (
	// PhaseConnections stops accepting new HTTP connections
	PhaseConnections Phase = iota
	// PhaseWebSockets closes websocket clients
	PhaseWebSockets
	// PhaseWatchers stops the config watcher, tray and event bus
	PhaseWatchers
	// PhaseStorage saves open maps and closes the database and index
	PhaseStorage
	// PhaseCleanup flushes logs
	PhaseCleanup
)

var phases = []Phase{PhaseConnections, PhaseWebSockets, PhaseWatchers, PhaseStorage, PhaseCleanup}

func (p Phase) String() string {
	switch p {
	case PhaseConnections:
		return "Connections"
	case PhaseWebSockets:
		return "WebSockets"
	case PhaseWatchers:
		return "Watchers"
	case PhaseStorage:
		return "Storage"
	case PhaseCleanup:
		return "Cleanup"
	default:
		return "Unknown"
	}
}

// Func performs shutdown work within ctx.
type Func func(ctx context.Context) error

// Handler is a registered shutdown step.
type Handler struct {
	Name     string
	Phase    Phase
	Priority int // higher runs first within a phase
	Fn       Func
	Timeout  time.Duration // 0 uses the coordinator default
}

// Coordinator runs registered handlers phase by phase, once.
type Coordinator struct {
	mu       sync.RWMutex
	handlers map[Phase][]*Handler
	logger   *zap.Logger

	once     sync.Once
	done     chan struct{}
	err      error
	stopping atomic.Bool

	defaultTimeout time.Duration
	totalTimeout   time.Duration
}

// NewCoordinator creates a new shutdown coordinator
func NewCoordinator(logger *zap.Logger) *Coordinator {
	return &Coordinator{
		handlers:       make(map[Phase][]*Handler),
		logger:         logger.Named("shutdown"),
		done:           make(chan struct{}),
		defaultTimeout: config.ShutdownHandlerTimeout,
		totalTimeout:   config.ShutdownTotalTimeout,
	}
}

// Register adds a shutdown handler
func (c *Coordinator) Register(h *Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h.Timeout == 0 {
		h.Timeout = c.defaultTimeout
	}
	list := append(c.handlers[h.Phase], h)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Priority > list[j].Priority
	})
	c.handlers[h.Phase] = list

	c.logger.Debug("Registered shutdown handler",
		zap.String("name", h.Name),
		zap.String("phase", h.Phase.String()))
}

// RegisterFunc registers fn with default priority and timeout.
func (c *Coordinator) RegisterFunc(name string, phase Phase, fn Func) {
	c.Register(&Handler{Name: name, Phase: phase, Fn: fn})
}

// IsShuttingDown returns true if shutdown is in progress
func (c *Coordinator) IsShuttingDown() bool {
	return c.stopping.Load()
}

// Done is closed when shutdown completed
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Shutdown runs every phase. Only the first call does work; later calls
// return its result.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		c.stopping.Store(true)
		c.err = c.run(ctx)
		close(c.done)
	})
	return c.err
}

func (c *Coordinator) run(ctx context.Context) error {
	start := time.Now()
	c.mu.RLock()
	total := c.totalTimeout
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, total)
	defer cancel()

	var errs []error
	for _, phase := range phases {
		if err := c.runPhase(ctx, phase); err != nil {
			errs = append(errs, fmt.Errorf("phase %s: %w", phase, err))
		}
		if ctx.Err() != nil {
			c.logger.Warn("Shutdown timeout reached, skipping remaining phases",
				zap.Duration("elapsed", time.Since(start)))
			errs = append(errs, fmt.Errorf("shutdown timeout: %w", ctx.Err()))
			break
		}
	}

	if len(errs) > 0 {
		c.logger.Warn("Shutdown completed with errors",
			zap.Duration("duration", time.Since(start)),
			zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}
	c.logger.Info("Shutdown completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func (c *Coordinator) runPhase(ctx context.Context, phase Phase) error {
	c.mu.RLock()
	handlers := append([]*Handler(nil), c.handlers[phase]...)
	c.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := c.runHandler(ctx, h); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Coordinator) runHandler(ctx context.Context, h *Handler) error {
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Fn(ctx)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = fmt.Errorf("handler timeout after %v", h.Timeout)
	}
	if err != nil {
		c.logger.Warn("Shutdown handler failed", zap.String("name", h.Name), zap.Error(err))
		return err
	}
	c.logger.Debug("Shutdown handler completed", zap.String("name", h.Name))
	return nil
}

// SetTotalTimeout bounds the whole sequence
func (c *Coordinator) SetTotalTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalTimeout = d
}

// HandlerCount returns the number of registered handlers
func (c *Coordinator) HandlerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := 0
	for _, handlers := range c.handlers {
		count += len(handlers)
	}
	return count
}

// PhaseHandlers returns the handler names of a phase in execution order
func (c *Coordinator) PhaseHandlers(phase Phase) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var names []string
	for _, h := range c.handlers[phase] {
		names = append(names, h.Name)
	}
	return names
}
