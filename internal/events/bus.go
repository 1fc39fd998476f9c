// Package events carries node and toolbar notifications to views outside the
// command engine, such as websocket clients and the tray.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"mindicons/internal/config"
)

// EventType names what happened
type EventType string

const (
	// NodeChanged is fired after every icon command act/undo
	NodeChanged EventType = "node_changed"
	// NodeRefresh asks views to re-evaluate a node (conditional styles)
	NodeRefresh EventType = "node_refresh"
	// ToolbarRebuilt is fired when the icon toolbar was rebuilt
	ToolbarRebuilt EventType = "toolbar_rebuilt"
	// ConfigChanged is fired after the configuration file was reloaded
	ConfigChanged EventType = "config_changed"
)

// AllTypes lists every event type
var AllTypes = []EventType{NodeChanged, NodeRefresh, ToolbarRebuilt, ConfigChanged}

// Event is one notification. Seq increases by one per published event so
// consumers can spot drops.
type Event struct {
	Seq       uint64      `json:"seq"`
	Type      EventType   `json:"type"`
	MapID     string      `json:"map_id,omitempty"`
	NodeID    string      `json:"node_id,omitempty"`
	Property  string      `json:"property,omitempty"`
	OldValue  interface{} `json:"old_value,omitempty"`
	NewValue  interface{} `json:"new_value,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Subscription receives the events of one or more types on C, in publish
// order. C is closed by Close or when the bus closes.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	types   map[EventType]bool
	bus     *Bus
	dropped atomic.Uint64
	once    sync.Once
}

// Close detaches the subscription and closes C.
func (s *Subscription) Close() {
	s.bus.remove(s)
}

// Dropped counts events lost because C was full
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscription) wants(t EventType) bool {
	return s.types == nil || s.types[t]
}

func (s *Subscription) closeChan() {
	s.once.Do(func() { close(s.ch) })
}

// Bus delivers published events to subscriptions without ever blocking the
// publisher: a full subscription drops the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	seq    uint64
	closed bool
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe listens for the given types, or for every type when none are
// given. On a closed bus the returned subscription is already closed.
func (b *Bus) Subscribe(types ...EventType) *Subscription {
	return b.SubscribeBuffered(config.EventChannelBufferSize, types...)
}

// SubscribeBuffered is Subscribe with an explicit channel buffer.
func (b *Bus) SubscribeBuffered(buffer int, types ...EventType) *Subscription {
	ch := make(chan Event, buffer)
	s := &Subscription{C: ch, ch: ch, bus: b}
	if len(types) > 0 {
		s.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.closeChan()
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
	s.closeChan()
}

// Publish stamps the event with the next sequence number and the current
// time, unless set, and hands it to every interested subscription.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.seq++
	event.Seq = b.seq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for s := range b.subs {
		if !s.wants(event.Type) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			s.dropped.Add(1)
		}
	}
}

// Seq returns the sequence number of the last published event
func (b *Bus) Seq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}

// Close closes every subscription. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.closeChan()
	}
	b.subs = make(map[*Subscription]struct{})
}

// TotalSubscribers returns the number of open subscriptions
func (b *Bus) TotalSubscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
