package events

import (
	"testing"
	"time"
)

func receive(t *testing.T, s *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-s.C:
		if !ok {
			t.Fatal("subscription closed")
		}
		return ev
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(NodeChanged)
	bus.Publish(Event{
		Type:     NodeChanged,
		MapID:    "map-1",
		NodeID:   "root",
		Property: "node_icon",
		NewValue: "flag-red",
	})

	received := receive(t, sub)
	if received.NodeID != "root" || received.NewValue != "flag-red" {
		t.Errorf("unexpected event %+v", received)
	}
	if received.Timestamp.IsZero() {
		t.Error("timestamp should be set automatically")
	}
	if received.Seq != 1 {
		t.Errorf("expected seq 1, got %d", received.Seq)
	}
}

func TestSubscribeFiltersTypes(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	nodes := bus.Subscribe(NodeChanged, NodeRefresh)
	all := bus.Subscribe()

	bus.Publish(Event{Type: ToolbarRebuilt})
	bus.Publish(Event{Type: NodeRefresh, NodeID: "n1"})

	if ev := receive(t, nodes); ev.Type != NodeRefresh || ev.Seq != 2 {
		t.Errorf("expected node_refresh with seq 2, got %s/%d", ev.Type, ev.Seq)
	}
	if ev := receive(t, all); ev.Type != ToolbarRebuilt {
		t.Errorf("expected toolbar_rebuilt first, got %s", ev.Type)
	}
	if ev := receive(t, all); ev.Type != NodeRefresh {
		t.Errorf("expected node_refresh second, got %s", ev.Type)
	}
	if n := bus.TotalSubscribers(); n != 2 {
		t.Errorf("expected 2 subscribers, got %d", n)
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	subs := []*Subscription{bus.Subscribe(NodeChanged), bus.Subscribe(NodeChanged)}
	bus.Publish(Event{Type: NodeChanged, NodeID: "n1"})

	for i, s := range subs {
		if ev := receive(t, s); ev.NodeID != "n1" {
			t.Errorf("subscriber %d: expected node n1, got %s", i, ev.NodeID)
		}
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.SubscribeBuffered(2, NodeChanged)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			bus.Publish(Event{Type: NodeChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publishing blocked on a full subscription")
	}
	if got := sub.Dropped(); got != 498 {
		t.Errorf("expected 498 dropped events, got %d", got)
	}
	if ev := receive(t, sub); ev.Seq != 1 {
		t.Errorf("expected the oldest event to survive, got seq %d", ev.Seq)
	}
	if bus.Seq() != 500 {
		t.Errorf("expected seq 500, got %d", bus.Seq())
	}
}

func TestSubscriptionClose(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(NodeRefresh)
	if n := bus.TotalSubscribers(); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}

	sub.Close()
	sub.Close()
	if n := bus.TotalSubscribers(); n != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", n)
	}
	if _, ok := <-sub.C; ok {
		t.Error("channel should be closed")
	}

	bus.Publish(Event{Type: NodeRefresh})
}

func TestClose(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(ToolbarRebuilt)

	bus.Close()

	if _, ok := <-sub.C; ok {
		t.Error("channel should be closed after bus.Close()")
	}
	if n := bus.TotalSubscribers(); n != 0 {
		t.Errorf("expected no subscribers after Close(), got %d", n)
	}

	bus.Publish(Event{Type: ToolbarRebuilt})
	sub.Close()

	late := bus.Subscribe(ConfigChanged)
	if _, ok := <-late.C; ok {
		t.Error("subscribing after close should return a closed subscription")
	}
}

func BenchmarkPublish(b *testing.B) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(NodeChanged)
	go func() {
		for range sub.C {
		}
	}()
	event := Event{Type: NodeChanged, NodeID: "bench"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Publish(event)
	}
}
