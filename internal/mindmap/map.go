package mindmap

import (
	"errors"
	"fmt"

	"mindicons/internal/undo"
)

// RootID is the identifier of every map's root node.
const RootID = "root"

var (
	// ErrNodeNotFound is returned for unknown node identifiers
	ErrNodeNotFound = errors.New("node not found")
	// ErrDuplicateNode is returned when adding a node whose ID exists
	ErrDuplicateNode = errors.New("duplicate node")
)

// Map is an open mind map document. It owns its nodes and the undo history
// of commands executed against them.
type Map struct {
	id      string
	nodes   map[string]*Node
	order   []*Node
	history *undo.History
}

// NewMap creates a document with a root node. undoLevels bounds the history;
// zero keeps everything.
func NewMap(id string, undoLevels int) *Map {
	m := &Map{
		id:      id,
		nodes:   make(map[string]*Node),
		history: undo.NewHistory(undoLevels),
	}
	m.addNode(RootID)
	return m
}

// ID returns the document identifier
func (m *Map) ID() string { return m.id }

// Root returns the root node
func (m *Map) Root() *Node { return m.nodes[RootID] }

// History implements undo.Scope
func (m *Map) History() *undo.History { return m.history }

// AddNode creates a node with the given ID.
func (m *Map) AddNode(id string) (*Node, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNodeNotFound)
	}
	if _, exists := m.nodes[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	return m.addNode(id), nil
}

func (m *Map) addNode(id string) *Node {
	n := &Node{id: id, owner: m}
	m.nodes[id] = n
	m.order = append(m.order, n)
	return n
}

// Node looks up a node by ID.
func (m *Map) Node(id string) (*Node, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, nil
}

// NodeOrCreate returns the node, creating it when missing.
func (m *Map) NodeOrCreate(id string) *Node {
	if n, ok := m.nodes[id]; ok {
		return n
	}
	return m.addNode(id)
}

// Nodes returns the nodes in creation order.
func (m *Map) Nodes() []*Node {
	result := make([]*Node, len(m.order))
	copy(result, m.order)
	return result
}

// Close ends the document lifecycle and drops its history.
func (m *Map) Close() {
	m.history.Clear()
}
