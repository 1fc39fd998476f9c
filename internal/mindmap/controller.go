package mindmap

import (
	"sync"

	"go.uber.org/zap"

	"mindicons/internal/events"
	"mindicons/internal/icons"
)

// NodeChangeEvent describes a property change on a node. Old and New hold
// icons.Icon, *Quantity or nil depending on Property.
type NodeChangeEvent struct {
	Node     *Node
	Property Property
	Old      interface{}
	New      interface{}
}

// NodeChangeListener is notified synchronously about node changes.
type NodeChangeListener interface {
	NodeChanged(ev NodeChangeEvent)
}

// NodeChangeListenerFunc adapts a function to NodeChangeListener.
type NodeChangeListenerFunc func(ev NodeChangeEvent)

// NodeChanged implements NodeChangeListener
func (f NodeChangeListenerFunc) NodeChanged(ev NodeChangeEvent) { f(ev) }

// Publisher receives change events for out-of-process consumers.
type Publisher interface {
	Publish(event events.Event)
}

// MapController broadcasts node changes to registered listeners and, when a
// publisher is configured, to the event bus.
type MapController struct {
	mu        sync.RWMutex
	listeners []NodeChangeListener
	publisher Publisher
	logger    *zap.Logger
}

// NewMapController creates a controller. publisher may be nil.
func NewMapController(publisher Publisher, logger *zap.Logger) *MapController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapController{publisher: publisher, logger: logger}
}

// AddNodeChangeListener registers l for every subsequent change.
func (c *MapController) AddNodeChangeListener(l NodeChangeListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// NodeChanged notifies listeners that property changed from old to new.
func (c *MapController) NodeChanged(node *Node, property Property, old, new interface{}) {
	ev := NodeChangeEvent{Node: node, Property: property, Old: old, New: new}

	c.mu.RLock()
	listeners := make([]NodeChangeListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.RUnlock()

	for _, l := range listeners {
		l.NodeChanged(ev)
	}
	c.publish(events.NodeChanged, ev)
}

// DelayedRefresh asks views to re-evaluate node without a model change.
// Listeners are not called; the request only goes to the publisher.
func (c *MapController) DelayedRefresh(node *Node, property Property, old, new interface{}) {
	c.logger.Debug("Node refresh requested",
		zap.String("node", node.ID()),
		zap.String("property", string(property)))
	c.publish(events.NodeRefresh, NodeChangeEvent{Node: node, Property: property, Old: old, New: new})
}

func (c *MapController) publish(t events.EventType, ev NodeChangeEvent) {
	if c.publisher == nil {
		return
	}
	out := events.Event{
		Type:     t,
		NodeID:   ev.Node.ID(),
		Property: string(ev.Property),
		OldValue: eventValue(ev.Old),
		NewValue: eventValue(ev.New),
	}
	if m := ev.Node.Map(); m != nil {
		out.MapID = m.ID()
	}
	c.publisher.Publish(out)
}

// eventValue flattens change values into something JSON friendly.
func eventValue(v interface{}) interface{} {
	switch val := v.(type) {
	case icons.Icon:
		return val.Name
	case *icons.Icon:
		if val == nil {
			return nil
		}
		return val.Name
	case *Quantity:
		if val == nil {
			return nil
		}
		return val.String()
	case Quantity:
		return val.String()
	default:
		return v
	}
}
