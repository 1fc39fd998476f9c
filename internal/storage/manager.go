// Package storage persists mind maps in a bbolt database.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mindicons/internal/icons"
	"mindicons/internal/mindmap"
)

// ErrMapNotFound is returned for unknown map identifiers
var ErrMapNotFound = errors.New("map not found")

// Manager converts between open maps and their stored records.
type Manager struct {
	db     *BoltDB
	mu     sync.RWMutex
	logger *zap.SugaredLogger
}

// NewManager creates a new storage manager
func NewManager(dataDir string, logger *zap.SugaredLogger) (*Manager, error) {
	db, err := NewBoltDB(dataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create bolt database: %w", err)
	}
	version, err := db.SchemaVersion()
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Debugf("Map database schema version %d", version)
	return &Manager{db: db, logger: logger}, nil
}

// Close closes the storage manager
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		err := m.db.Close()
		m.db = nil
		return err
	}
	return nil
}

// SaveMap stores the current state of doc and its style rules. The undo
// history is not saved.
func (m *Manager) SaveMap(doc *mindmap.Map, rules []RuleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := &MapRecord{ID: doc.ID(), Rules: rules}
	for _, node := range doc.Nodes() {
		nr := &NodeRecord{ID: node.ID()}
		for _, icon := range node.Icons() {
			nr.Icons = append(nr.Icons, icon.Name)
		}
		if size := node.IconSize(); size != nil {
			nr.IconSize = size.String()
		}
		record.Nodes = append(record.Nodes, nr)
	}

	if err := m.db.SaveMap(record); err != nil {
		return fmt.Errorf("failed to save map %s: %w", doc.ID(), err)
	}
	m.logger.Debugf("Saved map %s with %d nodes", doc.ID(), len(record.Nodes))
	return nil
}

// LoadMap restores a map and its style rules, resolving icon names through
// store. Unknown icon names and unparsable sizes are skipped with a warning.
func (m *Manager) LoadMap(id string, store *icons.Store, undoLevels int) (*mindmap.Map, []RuleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, err := m.db.GetMap(id)
	if err != nil {
		return nil, nil, err
	}

	doc := mindmap.NewMap(record.ID, undoLevels)
	for _, nr := range record.Nodes {
		node := doc.NodeOrCreate(nr.ID)
		for _, name := range nr.Icons {
			icon, err := store.Lookup(name)
			if err != nil {
				m.logger.Warnf("Skipping icon %q on node %s of map %s: %v", name, nr.ID, id, err)
				continue
			}
			node.AddIcon(icon)
		}
		if nr.IconSize != "" {
			size, err := mindmap.ParseQuantity(nr.IconSize)
			if err != nil {
				m.logger.Warnf("Ignoring icon size of node %s: %v", nr.ID, err)
				continue
			}
			node.SetIconSize(&size)
		}
	}
	return doc, record.Rules, nil
}

// ListMaps returns the identifiers of all stored maps.
func (m *Manager) ListMaps() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, err := m.db.ListMaps()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// DeleteMap removes a stored map.
func (m *Manager) DeleteMap(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.DeleteMap(id)
}
