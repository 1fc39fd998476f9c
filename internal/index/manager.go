// Package index provides full-text search over the icon store, used by the
// icon chooser.
package index

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mindicons/internal/icons"
)

const defaultLimit = 20

// Result is an icon matching a search.
type Result struct {
	Icon  icons.Icon `json:"icon"`
	Score float64    `json:"score"`
}

// Manager keeps the search index in sync with an icon store.
type Manager struct {
	mu     sync.RWMutex
	bleve  *BleveIndex
	store  *icons.Store
	logger *zap.Logger
}

// NewManager builds an index over every icon of store.
func NewManager(store *icons.Store, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b, err := NewBleveIndex(logger)
	if err != nil {
		return nil, err
	}
	if err := b.BatchIndex(store.Groups()); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to index icons: %w", err)
	}
	return &Manager{bleve: b, store: store, logger: logger}, nil
}

// Search returns up to limit icons matching text, best first.
func (m *Manager) Search(text string, limit int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = defaultLimit
	}
	hits, err := m.bleve.Search(text, limit)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		icon, err := m.store.Lookup(h.Name)
		if err != nil {
			m.logger.Warn("Indexed icon missing from store", zap.String("icon", h.Name))
			continue
		}
		results = append(results, Result{Icon: icon, Score: h.Score})
	}
	m.logger.Debug("Icon search completed",
		zap.String("query", text),
		zap.Int("results", len(results)))
	return results, nil
}

// Rebuild indexes store from scratch and searches it from then on. The
// previous index stays in use when indexing fails.
func (m *Manager) Rebuild(store *icons.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := NewBleveIndex(m.logger)
	if err != nil {
		return err
	}
	if err := b.BatchIndex(store.Groups()); err != nil {
		b.Close()
		return err
	}
	old := m.bleve
	m.bleve = b
	m.store = store
	return old.Close()
}

// DocumentCount returns the number of indexed icons
func (m *Manager) DocumentCount() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bleve.DocCount()
}

// Close closes the index
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bleve.Close()
}
