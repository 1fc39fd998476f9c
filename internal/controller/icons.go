// Package controller turns icon edits into undoable commands and exposes them
// as named actions for menus and toolbars.
package controller

import (
	"go.uber.org/zap"

	"mindicons/internal/icons"
	"mindicons/internal/mindmap"
	"mindicons/internal/undo"
)

// IconController builds the icon commands and executes them through the
// undo engine against the node's map.
type IconController struct {
	engine *undo.Engine
	maps   *mindmap.MapController
	store  *icons.Store
	logger *zap.Logger
}

// NewIconController creates an icon controller
func NewIconController(engine *undo.Engine, maps *mindmap.MapController, store *icons.Store, logger *zap.Logger) *IconController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IconController{
		engine: engine,
		maps:   maps,
		store:  store,
		logger: logger,
	}
}

// Store returns the icon store the controller resolves names with
func (c *IconController) Store() *icons.Store { return c.store }

// AddIcon appends icon to node.
func (c *IconController) AddIcon(node *mindmap.Node, icon icons.Icon) {
	c.engine.Execute(&undo.Funcs{
		Name: "addIcon",
		ActFn: func() {
			node.AddIcon(icon)
			c.maps.NodeChanged(node, mindmap.NodeIcon, nil, icon)
		},
		UndoFn: func() {
			node.RemoveLastIcon()
			c.maps.NodeChanged(node, mindmap.NodeIcon, icon, nil)
		},
	}, node.Map())
}

// AddIconAt inserts icon at position. Positions outside the list append.
func (c *IconController) AddIconAt(node *mindmap.Node, icon icons.Icon, position int) {
	index := position
	c.engine.Execute(&undo.Funcs{
		Name: "addIcon",
		ActFn: func() {
			index = node.InsertIcon(icon, position)
			c.maps.NodeChanged(node, mindmap.NodeIcon, nil, icon)
		},
		UndoFn: func() {
			node.RemoveIcon(index)
			c.maps.NodeChanged(node, mindmap.NodeIcon, icon, nil)
		},
	}, node.Map())
}

// RemoveIcon removes the icon at position; negative positions count from the
// end. Positions outside [-k, k) do nothing. Returns the resulting icon count.
func (c *IconController) RemoveIcon(node *mindmap.Node, position int) int {
	size := node.IconCount()
	index := position
	if position < 0 {
		index = size + position
	}
	if index < 0 || index >= size {
		return size
	}

	icon, _ := node.Icon(index)
	c.engine.Execute(&undo.Funcs{
		Name: "removeIcon",
		ActFn: func() {
			node.RemoveIcon(index)
			c.maps.NodeChanged(node, mindmap.NodeIcon, icon, nil)
		},
		UndoFn: func() {
			node.InsertIcon(icon, index)
			c.maps.NodeChanged(node, mindmap.NodeIcon, nil, icon)
		},
	}, node.Map())
	return node.IconCount()
}

// RemoveLastIcon removes the last icon and returns the resulting count.
func (c *IconController) RemoveLastIcon(node *mindmap.Node) int {
	return c.RemoveIcon(node, -1)
}

// RemoveAllIcons removes every icon, one undoable step per icon.
func (c *IconController) RemoveAllIcons(node *mindmap.Node) {
	size := node.IconCount()
	for i := 0; i < size; i++ {
		c.RemoveIcon(node, 0)
	}
}

// ChangeIconSize sets the node icon size; nil unsets it.
func (c *IconController) ChangeIconSize(node *mindmap.Node, size *mindmap.Quantity) {
	var previous *mindmap.Quantity
	c.engine.Execute(&undo.Funcs{
		Name: "changeIconSize",
		ActFn: func() {
			previous = node.IconSize()
			node.SetIconSize(size)
			c.maps.NodeChanged(node, mindmap.NodeIconSize, sizeValue(previous), sizeValue(size))
		},
		UndoFn: func() {
			current := node.IconSize()
			node.SetIconSize(previous)
			c.maps.NodeChanged(node, mindmap.NodeIconSize, sizeValue(current), sizeValue(previous))
		},
	}, node.Map())
}

// sizeValue keeps an unset size a plain nil in change events.
func sizeValue(q *mindmap.Quantity) interface{} {
	if q == nil {
		return nil
	}
	return q
}

// CopyIcons adds the icons of from that to does not carry yet.
func (c *IconController) CopyIcons(from, to *mindmap.Node) {
	for _, icon := range from.Icons() {
		if to.HasIcon(icon.Name) {
			continue
		}
		c.AddIcon(to, icon)
	}
}

// ClearIcons removes icons from the end until node has none.
func (c *IconController) ClearIcons(node *mindmap.Node) {
	for node.IconCount() > 0 {
		c.RemoveLastIcon(node)
	}
}

// RemoveIconsOf removes the icons of from that which also carries.
func (c *IconController) RemoveIconsOf(from, which *mindmap.Node) {
	for i := from.IconCount() - 1; i >= 0; i-- {
		icon, _ := from.Icon(i)
		if which.HasIcon(icon.Name) {
			c.RemoveIcon(from, i)
		}
	}
}

// ListStandardIconKeys lists the names of all icons available for
// selection, user icons included, in store order.
func (c *IconController) ListStandardIconKeys() []string {
	all := c.store.Icons()
	result := make([]string, 0, len(all))
	for _, icon := range all {
		result = append(result, icon.Name)
	}
	return result
}

// Undo reverts the newest command executed against m.
func (c *IconController) Undo(m *mindmap.Map) bool {
	return c.engine.Undo(m)
}

// Redo re-applies the newest undone command of m.
func (c *IconController) Redo(m *mindmap.Map) bool {
	return c.engine.Redo(m)
}
