package mindmap

import (
	"mindicons/internal/icons"
)

// Property names the node attribute a change notification is about.
type Property string

const (
	NodeIcon     Property = "node_icon"
	NodeIconSize Property = "node_icon_size"
	Unknown      Property = "unknown"
)

// Node is a mind map node carrying an ordered list of icons and an optional
// icon size. The mutators are the raw operations used by undoable commands;
// UI code goes through controller.IconController instead.
type Node struct {
	id       string
	owner    *Map
	icons    []icons.Icon
	iconSize *Quantity
}

// ID returns the node identifier
func (n *Node) ID() string { return n.id }

// Map returns the document owning the node
func (n *Node) Map() *Map { return n.owner }

// Icons returns a copy of the attached icons in order.
func (n *Node) Icons() []icons.Icon {
	result := make([]icons.Icon, len(n.icons))
	copy(result, n.icons)
	return result
}

// IconCount returns the number of attached icons
func (n *Node) IconCount() int { return len(n.icons) }

// Icon returns the icon at index.
func (n *Node) Icon(index int) (icons.Icon, bool) {
	if index < 0 || index >= len(n.icons) {
		return icons.Icon{}, false
	}
	return n.icons[index], true
}

// HasIcon reports whether an icon with that name is attached.
func (n *Node) HasIcon(name string) bool {
	return n.IconIndex(name) >= 0
}

// IconIndex returns the first position of the named icon, or -1.
func (n *Node) IconIndex(name string) int {
	for i, icon := range n.icons {
		if icon.Name == name {
			return i
		}
	}
	return -1
}

// AddIcon appends an icon.
func (n *Node) AddIcon(icon icons.Icon) {
	n.icons = append(n.icons, icon)
}

// InsertIcon inserts at position and returns the index actually used.
// Positions outside [0, count] append.
func (n *Node) InsertIcon(icon icons.Icon, position int) int {
	if position < 0 || position >= len(n.icons) {
		n.icons = append(n.icons, icon)
		return len(n.icons) - 1
	}
	n.icons = append(n.icons, icons.Icon{})
	copy(n.icons[position+1:], n.icons[position:])
	n.icons[position] = icon
	return position
}

// RemoveIcon removes the icon at index, keeping the order of the rest.
func (n *Node) RemoveIcon(index int) (icons.Icon, bool) {
	icon, ok := n.Icon(index)
	if !ok {
		return icons.Icon{}, false
	}
	n.icons = append(n.icons[:index], n.icons[index+1:]...)
	return icon, true
}

// RemoveLastIcon removes the last icon.
func (n *Node) RemoveLastIcon() (icons.Icon, bool) {
	return n.RemoveIcon(len(n.icons) - 1)
}

// IconSize returns the icon size, nil when unset (map default applies).
func (n *Node) IconSize() *Quantity {
	if n.iconSize == nil {
		return nil
	}
	q := *n.iconSize
	return &q
}

// SetIconSize sets or, with nil, unsets the icon size.
func (n *Node) SetIconSize(q *Quantity) {
	if q == nil {
		n.iconSize = nil
		return
	}
	v := *q
	n.iconSize = &v
}
