// Package menu arranges icon actions into the hierarchical entries shown by
// the icon toolbar, its popup submenus and the main icon menu.
package menu

import (
	"fmt"
	"io"
	"strings"

	"mindicons/internal/controller"
)

// Kind distinguishes entry variants.
type Kind int

const (
	Leaf Kind = iota
	Submenu
	Separator
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Submenu:
		return "submenu"
	case Separator:
		return "separator"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entry is a node of a menu tree: a leaf bound to one action, a named
// submenu with ordered children, or a separator.
type Entry struct {
	Kind      Kind     `json:"kind"`
	Name      string   `json:"name,omitempty"`
	Label     string   `json:"label,omitempty"`
	Tooltip   string   `json:"tooltip,omitempty"`
	Glyph     string   `json:"glyph,omitempty"`
	ActionKey string   `json:"action,omitempty"`
	Children  []*Entry `json:"children,omitempty"`
}

// NewRoot returns an unnamed container entry.
func NewRoot() *Entry {
	return &Entry{Kind: Submenu}
}

// NewSubmenu returns a named submenu.
func NewSubmenu(name string) *Entry {
	return &Entry{Kind: Submenu, Name: name, Label: name}
}

// NewLeaf returns an entry invoking action.
func NewLeaf(action *controller.Action) *Entry {
	return &Entry{
		Kind:      Leaf,
		Name:      action.Key,
		Label:     action.Label,
		Tooltip:   action.Tooltip,
		Glyph:     action.Glyph,
		ActionKey: action.Key,
	}
}

// NewSeparator returns a separator entry
func NewSeparator() *Entry {
	return &Entry{Kind: Separator}
}

// Add appends child.
func (e *Entry) Add(child *Entry) {
	e.Children = append(e.Children, child)
}

// Last returns the last child, or nil.
func (e *Entry) Last() *Entry {
	if len(e.Children) == 0 {
		return nil
	}
	return e.Children[len(e.Children)-1]
}

// Walk visits e's descendants depth first in order.
func (e *Entry) Walk(fn func(entry *Entry, depth int)) {
	e.walk(fn, 0)
}

func (e *Entry) walk(fn func(*Entry, int), depth int) {
	for _, child := range e.Children {
		fn(child, depth)
		child.walk(fn, depth+1)
	}
}

// ActionKeys lists the action keys of all leaves in order.
func (e *Entry) ActionKeys() []string {
	var keys []string
	e.Walk(func(entry *Entry, _ int) {
		if entry.Kind == Leaf {
			keys = append(keys, entry.ActionKey)
		}
	})
	return keys
}

// Outline writes an indented text rendering of the tree.
func (e *Entry) Outline(w io.Writer) error {
	var err error
	e.Walk(func(entry *Entry, depth int) {
		if err != nil {
			return
		}
		indent := strings.Repeat("  ", depth)
		switch entry.Kind {
		case Separator:
			_, err = fmt.Fprintf(w, "%s----\n", indent)
		case Submenu:
			_, err = fmt.Fprintf(w, "%s%s/\n", indent, entry.Label)
		default:
			_, err = fmt.Fprintf(w, "%s%s [%s]\n", indent, entry.Label, entry.ActionKey)
		}
	})
	return err
}
