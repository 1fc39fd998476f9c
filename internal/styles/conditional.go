package styles

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"mindicons/internal/mindmap"
)

// Rule applies Style when Condition matches.
type Rule struct {
	Condition Condition
	Style     string
}

type nodeKey struct {
	mapID  string
	nodeID string
}

// ConditionalStyles holds the map-wide and per-node conditional style rules.
type ConditionalStyles struct {
	mu        sync.RWMutex
	mapRules  map[string][]Rule
	nodeRules map[nodeKey][]Rule
}

// NewConditionalStyles creates an empty registry
func NewConditionalStyles() *ConditionalStyles {
	return &ConditionalStyles{
		mapRules:  make(map[string][]Rule),
		nodeRules: make(map[nodeKey][]Rule),
	}
}

// AddMapRule adds a rule evaluated for every node of the map.
func (s *ConditionalStyles) AddMapRule(mapID string, rule Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapRules[mapID] = append(s.mapRules[mapID], rule)
}

// AddNodeRule adds a rule evaluated for node only.
func (s *ConditionalStyles) AddNodeRule(node *mindmap.Node, rule Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyOf(node)
	s.nodeRules[key] = append(s.nodeRules[key], rule)
}

// Rules returns the map rules followed by the node's own rules.
func (s *ConditionalStyles) Rules(node *mindmap.Node) []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var mapID string
	if m := node.Map(); m != nil {
		mapID = m.ID()
	}
	var result []Rule
	result = append(result, s.mapRules[mapID]...)
	result = append(result, s.nodeRules[keyOf(node)]...)
	return result
}

// Scoped is a rule with the node it is attached to. Node is empty for map
// rules.
type Scoped struct {
	Node string
	Rule Rule
}

// RulesOf lists the map rules of mapID followed by its node rules, grouped
// by node ID in ascending order.
func (s *ConditionalStyles) RulesOf(mapID string) []Scoped {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Scoped
	for _, r := range s.mapRules[mapID] {
		result = append(result, Scoped{Rule: r})
	}
	var nodes []string
	for key := range s.nodeRules {
		if key.mapID == mapID {
			nodes = append(nodes, key.nodeID)
		}
	}
	sort.Strings(nodes)
	for _, id := range nodes {
		for _, r := range s.nodeRules[nodeKey{mapID: mapID, nodeID: id}] {
			result = append(result, Scoped{Node: id, Rule: r})
		}
	}
	return result
}

// DependOnCondition reports whether any rule affecting node has a condition
// satisfying pred.
func (s *ConditionalStyles) DependOnCondition(node *mindmap.Node, pred func(Condition) bool) bool {
	for _, r := range s.Rules(node) {
		if pred(r.Condition) {
			return true
		}
	}
	return false
}

// ActiveStyles returns the styles whose condition currently matches node.
func (s *ConditionalStyles) ActiveStyles(node *mindmap.Node) []string {
	var result []string
	for _, r := range s.Rules(node) {
		if r.Condition.Matches(node) {
			result = append(result, r.Style)
		}
	}
	return result
}

// Forget drops every rule of the map, used when the document closes.
func (s *ConditionalStyles) Forget(mapID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mapRules, mapID)
	for key := range s.nodeRules {
		if key.mapID == mapID {
			delete(s.nodeRules, key)
		}
	}
}

func keyOf(node *mindmap.Node) nodeKey {
	key := nodeKey{nodeID: node.ID()}
	if m := node.Map(); m != nil {
		key.mapID = m.ID()
	}
	return key
}

func dependsOnIcon(c Condition) bool {
	return c.DependsOnIcons()
}

// Refresher requests a node refresh when an icon change may alter the
// conditional styles of the node.
type Refresher struct {
	styles *ConditionalStyles
	maps   *mindmap.MapController
	logger *zap.Logger
}

// NewRefresher creates the listener and registers it with maps.
func NewRefresher(styles *ConditionalStyles, maps *mindmap.MapController, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Refresher{styles: styles, maps: maps, logger: logger}
	maps.AddNodeChangeListener(r)
	return r
}

// NodeChanged implements mindmap.NodeChangeListener
func (r *Refresher) NodeChanged(ev mindmap.NodeChangeEvent) {
	if ev.Property != mindmap.NodeIcon {
		return
	}
	if !r.styles.DependOnCondition(ev.Node, dependsOnIcon) {
		return
	}
	r.logger.Debug("Refreshing node with icon dependent styles", zap.String("node", ev.Node.ID()))
	r.maps.DelayedRefresh(ev.Node, mindmap.Unknown, nil, nil)
}
