package shutdown

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func noop(context.Context) error { return nil }

func TestNewCoordinator(t *testing.T) {
	c := NewCoordinator(zap.NewNop())

	if c.HandlerCount() != 0 {
		t.Errorf("Expected 0 handlers, got %d", c.HandlerCount())
	}
	if c.IsShuttingDown() {
		t.Error("Expected IsShuttingDown to be false initially")
	}
}

func TestRegisterPriority(t *testing.T) {
	c := NewCoordinator(zap.NewNop())

	c.Register(&Handler{Name: "low", Phase: PhaseStorage, Priority: 1, Fn: noop})
	c.Register(&Handler{Name: "high", Phase: PhaseStorage, Priority: 10, Fn: noop})
	c.Register(&Handler{Name: "mid", Phase: PhaseStorage, Priority: 5, Fn: noop})

	handlers := c.PhaseHandlers(PhaseStorage)
	want := []string{"high", "mid", "low"}
	if len(handlers) != len(want) {
		t.Fatalf("Expected %d handlers, got %v", len(want), handlers)
	}
	for i := range want {
		if handlers[i] != want[i] {
			t.Errorf("Handler %d: expected %s, got %s", i, want[i], handlers[i])
		}
	}
}

func TestShutdownPhasesInOrder(t *testing.T) {
	c := NewCoordinator(zap.NewNop())

	var mu sync.Mutex
	var order []Phase
	record := func(p Phase) Func {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, p)
			return nil
		}
	}

	// registered out of order on purpose
	c.RegisterFunc("cleanup", PhaseCleanup, record(PhaseCleanup))
	c.RegisterFunc("storage", PhaseStorage, record(PhaseStorage))
	c.RegisterFunc("watchers", PhaseWatchers, record(PhaseWatchers))
	c.RegisterFunc("websockets", PhaseWebSockets, record(PhaseWebSockets))
	c.RegisterFunc("connections", PhaseConnections, record(PhaseConnections))

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	expected := []Phase{PhaseConnections, PhaseWebSockets, PhaseWatchers, PhaseStorage, PhaseCleanup}
	if len(order) != len(expected) {
		t.Fatalf("Expected %d phases, got %d", len(expected), len(order))
	}
	for i, p := range expected {
		if order[i] != p {
			t.Errorf("Phase %d: expected %s, got %s", i, p, order[i])
		}
	}
	if !c.IsShuttingDown() {
		t.Error("Expected IsShuttingDown to be true after shutdown")
	}
}

func TestShutdownHandlerError(t *testing.T) {
	c := NewCoordinator(zap.NewNop())
	expectedErr := errors.New("save failed")

	var ranAfter atomic.Bool
	c.RegisterFunc("failing", PhaseStorage, func(context.Context) error { return expectedErr })
	c.RegisterFunc("after", PhaseCleanup, func(context.Context) error {
		ranAfter.Store(true)
		return nil
	})

	err := c.Shutdown(context.Background())
	if !errors.Is(err, expectedErr) {
		t.Errorf("Expected error to contain %v, got %v", expectedErr, err)
	}
	if !ranAfter.Load() {
		t.Error("Expected later phases to run after a failure")
	}
}

func TestShutdownTimeout(t *testing.T) {
	c := NewCoordinator(zap.NewNop())
	c.SetTotalTimeout(100 * time.Millisecond)

	c.RegisterFunc("slow", PhaseConnections, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	start := time.Now()
	err := c.Shutdown(context.Background())
	if err == nil {
		t.Error("Expected timeout error")
	}
	if d := time.Since(start); d > 500*time.Millisecond {
		t.Errorf("Shutdown took too long: %v", d)
	}
}

func TestShutdownOnlyOnce(t *testing.T) {
	c := NewCoordinator(zap.NewNop())

	var count atomic.Int32
	c.RegisterFunc("counter", PhaseConnections, func(context.Context) error {
		count.Add(1)
		return nil
	})

	for i := 0; i < 3; i++ {
		_ = c.Shutdown(context.Background())
	}
	if count.Load() != 1 {
		t.Errorf("Expected handler to run once, ran %d times", count.Load())
	}

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Error("Timeout waiting for done channel")
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseConnections, "Connections"},
		{PhaseWebSockets, "WebSockets"},
		{PhaseWatchers, "Watchers"},
		{PhaseStorage, "Storage"},
		{PhaseCleanup, "Cleanup"},
		{Phase(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.expected {
			t.Errorf("Phase(%d).String() = %s, want %s", tt.phase, got, tt.expected)
		}
	}
}
