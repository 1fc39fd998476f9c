package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mindicons/internal/mindmap"
	"mindicons/internal/storage"
)

var (
	// ErrMapNotFound is returned for maps that are neither open nor stored
	ErrMapNotFound = storage.ErrMapNotFound
	// ErrInvalidRule is returned for style rules that cannot be built
	ErrInvalidRule = errors.New("invalid style rule")
)

// openLocked returns the open map, loading it from storage or creating it
// when create is set. Callers hold a.mu.
func (a *App) openLocked(id string, create bool) (*mindmap.Map, error) {
	if doc, ok := a.docs[id]; ok {
		return doc, nil
	}
	doc, rules, err := a.storage.LoadMap(id, a.store, a.cfg.UndoLevels)
	switch {
	case err == nil:
		a.restoreRules(doc, rules)
	case errors.Is(err, storage.ErrMapNotFound) && create:
		doc = mindmap.NewMap(id, a.cfg.UndoLevels)
		a.logger.Info("Created map", zap.String("map", id))
	default:
		return nil, err
	}
	a.docs[id] = doc
	return doc, nil
}

func (a *App) nodeLocked(mapID, nodeID string) (*mindmap.Node, error) {
	doc, err := a.openLocked(mapID, false)
	if err != nil {
		return nil, err
	}
	return doc.Node(nodeID)
}

// OpenMap opens a stored map, or creates an empty one.
func (a *App) OpenMap(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.openLocked(id, true)
	return err
}

// EnsureNode makes sure the node exists in the (possibly new) map.
func (a *App) EnsureNode(mapID, nodeID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	doc, err := a.openLocked(mapID, true)
	if err != nil {
		return err
	}
	doc.NodeOrCreate(nodeID)
	return nil
}

// Perform runs the action registered under key on a node.
func (a *App) Perform(mapID, nodeID, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	node, err := a.nodeLocked(mapID, nodeID)
	if err != nil {
		return err
	}
	return a.actions.Perform(key, node)
}

// AddIconAt inserts the named icon at position.
func (a *App) AddIconAt(mapID, nodeID, name string, position int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	node, err := a.nodeLocked(mapID, nodeID)
	if err != nil {
		return err
	}
	icon, err := a.store.Lookup(name)
	if err != nil {
		return err
	}
	a.icons.AddIconAt(node, icon, position)
	return nil
}

// RemoveIcon removes the icon at position and returns the remaining count.
func (a *App) RemoveIcon(mapID, nodeID string, position int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	node, err := a.nodeLocked(mapID, nodeID)
	if err != nil {
		return 0, err
	}
	return a.icons.RemoveIcon(node, position), nil
}

// ChangeIconSize sets the node icon size from text like "12 pt". An empty
// size unsets it.
func (a *App) ChangeIconSize(mapID, nodeID, size string) error {
	var q *mindmap.Quantity
	if size != "" {
		parsed, err := mindmap.ParseQuantity(size)
		if err != nil {
			return err
		}
		q = &parsed
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	node, err := a.nodeLocked(mapID, nodeID)
	if err != nil {
		return err
	}
	a.icons.ChangeIconSize(node, q)
	return nil
}

// ClearIcons removes every icon of a node, one undoable step per icon.
func (a *App) ClearIcons(mapID, nodeID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	node, err := a.nodeLocked(mapID, nodeID)
	if err != nil {
		return err
	}
	a.icons.ClearIcons(node)
	return nil
}

// RemoveIconsOf removes from one node the icons another node carries.
func (a *App) RemoveIconsOf(mapID, fromID, whichID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	from, err := a.nodeLocked(mapID, fromID)
	if err != nil {
		return err
	}
	which, err := a.nodeLocked(mapID, whichID)
	if err != nil {
		return err
	}
	a.icons.RemoveIconsOf(from, which)
	return nil
}

// StandardIconKeys returns the catalog icon names in catalog order.
func (a *App) StandardIconKeys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.icons.ListStandardIconKeys()
}

// CopyIcons copies the icons of one node that another lacks.
func (a *App) CopyIcons(mapID, fromID, toID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	from, err := a.nodeLocked(mapID, fromID)
	if err != nil {
		return err
	}
	to, err := a.nodeLocked(mapID, toID)
	if err != nil {
		return err
	}
	a.icons.CopyIcons(from, to)
	return nil
}

// Undo reverts the newest command of the map.
func (a *App) Undo(mapID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	doc, err := a.openLocked(mapID, false)
	if err != nil {
		return false, err
	}
	return a.icons.Undo(doc), nil
}

// Redo re-applies the newest undone command of the map.
func (a *App) Redo(mapID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	doc, err := a.openLocked(mapID, false)
	if err != nil {
		return false, err
	}
	return a.icons.Redo(doc), nil
}

// NodeView is the read model of a node.
type NodeView struct {
	ID       string   `json:"id"`
	Icons    []string `json:"icons"`
	IconSize string   `json:"icon_size,omitempty"`
	Styles   []string `json:"styles,omitempty"`
}

// MapView is the read model of a map.
type MapView struct {
	ID      string     `json:"id"`
	Nodes   []NodeView `json:"nodes"`
	CanUndo bool       `json:"can_undo"`
	CanRedo bool       `json:"can_redo"`
}

// Snapshot returns the current state of a map.
func (a *App) Snapshot(mapID string) (*MapView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	doc, err := a.openLocked(mapID, false)
	if err != nil {
		return nil, err
	}

	view := &MapView{
		ID:      doc.ID(),
		CanUndo: doc.History().CanUndo(),
		CanRedo: doc.History().CanRedo(),
	}
	for _, node := range doc.Nodes() {
		nv := NodeView{ID: node.ID(), Icons: []string{}}
		for _, icon := range node.Icons() {
			nv.Icons = append(nv.Icons, icon.Name)
		}
		if size := node.IconSize(); size != nil {
			nv.IconSize = size.String()
		}
		nv.Styles = a.styles.ActiveStyles(node)
		view.Nodes = append(view.Nodes, nv)
	}
	return view, nil
}

// SaveMap persists an open map with its style rules.
func (a *App) SaveMap(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	doc, ok := a.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s is not open", ErrMapNotFound, id)
	}
	return a.storage.SaveMap(doc, a.ruleRecords(id))
}

// CloseMap saves the map and ends its lifecycle, dropping its history.
func (a *App) CloseMap(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closeLocked(id)
}

// closeLocked saves and closes one open map. The map stays open when
// saving fails.
func (a *App) closeLocked(id string) error {
	doc, ok := a.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s is not open", ErrMapNotFound, id)
	}
	if err := a.storage.SaveMap(doc, a.ruleRecords(id)); err != nil {
		return err
	}
	doc.Close()
	a.styles.Forget(id)
	delete(a.docs, id)
	a.logger.Info("Closed map", zap.String("map", id))
	return nil
}

// closeAll closes every open map and reports the maps that failed.
func (a *App) closeAll() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var errs []error
	for id := range a.docs {
		if err := a.closeLocked(id); err != nil {
			errs = append(errs, fmt.Errorf("failed to close map %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// DeleteMap discards a map, open or stored, without saving it.
func (a *App) DeleteMap(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	doc, open := a.docs[id]
	if open {
		doc.Close()
		a.styles.Forget(id)
		delete(a.docs, id)
	}
	err := a.storage.DeleteMap(id)
	if errors.Is(err, storage.ErrMapNotFound) && open {
		err = nil
	}
	if err != nil {
		return err
	}
	a.logger.Info("Deleted map", zap.String("map", id))
	return nil
}

// ListMaps returns the stored map identifiers.
func (a *App) ListMaps() ([]string, error) {
	return a.storage.ListMaps()
}
