package menu

import (
	"strings"

	"mindicons/internal/controller"
	"mindicons/internal/icons"
)

// AddAdjacent attaches action under parent following path. Each path level
// is merged only with the last child of the current parent, so an
// interrupted run of a prefix opens a second submenu of the same name.
func AddAdjacent(parent *Entry, action *controller.Action, path string) {
	head, rest, nested := strings.Cut(path, icons.PathSeparator)
	if !nested {
		parent.Add(NewLeaf(action))
		return
	}
	if last := parent.Last(); last != nil && last.Kind == Submenu && last.Name == head {
		AddAdjacent(last, action, rest)
		return
	}
	submenu := NewSubmenu(head)
	parent.Add(submenu)
	AddAdjacent(submenu, action, rest)
}

// addKeyed attaches action under parent merging submenus by their full path
// prefix, wherever they were created. keys is scoped to one group.
func addKeyed(parent *Entry, keys map[string]*Entry, prefix string, action *controller.Action, path string) {
	head, rest, nested := strings.Cut(path, icons.PathSeparator)
	if !nested {
		parent.Add(NewLeaf(action))
		return
	}
	key := prefix + icons.PathSeparator + head
	submenu, ok := keys[key]
	if !ok {
		submenu = NewSubmenu(head)
		keys[key] = submenu
		parent.Add(submenu)
	}
	addKeyed(submenu, keys, key, action, rest)
}

// Builder turns the icon store into menu trees using one action registry.
type Builder struct {
	store   *icons.Store
	actions *controller.Actions
}

// NewBuilder creates a menu builder
func NewBuilder(store *icons.Store, actions *controller.Actions) *Builder {
	return &Builder{store: store, actions: actions}
}

func (b *Builder) groupEntry(g icons.Group) *Entry {
	entry := NewSubmenu(g.Name)
	entry.Label = g.Description
	if entry.Label == "" {
		entry.Label = g.Name
	}
	entry.Tooltip = g.Description
	if glyph, ok := b.store.GroupIcon(g); ok {
		entry.Glyph = glyph.Glyph
	}
	return entry
}

// BuildStructured returns one submenu per non-empty group, icons arranged
// with AddAdjacent.
func (b *Builder) BuildStructured() []*Entry {
	var result []*Entry
	for _, g := range b.store.Groups() {
		if len(g.Icons) == 0 {
			continue
		}
		entry := b.groupEntry(g)
		for _, icon := range g.Icons {
			action, ok := b.actions.ForIcon(icon.Name)
			if !ok {
				continue
			}
			AddAdjacent(entry, action, icon.GroupPath())
		}
		result = append(result, entry)
	}
	return result
}

// BuildMenu returns the main icon menu: one entry per non-empty group whose
// submenus are merged by path prefix within the group.
func (b *Builder) BuildMenu() *Entry {
	root := NewRoot()
	for _, g := range b.store.Groups() {
		if len(g.Icons) == 0 {
			continue
		}
		entry := b.groupEntry(g)
		keys := make(map[string]*Entry)
		for _, icon := range g.Icons {
			action, ok := b.actions.ForIcon(icon.Name)
			if !ok {
				continue
			}
			addKeyed(entry, keys, "", action, icon.GroupPath())
		}
		root.Add(entry)
	}
	return root
}

// ToolbarLayout selects what the flat icon toolbar shows after the remove
// actions.
type ToolbarLayout struct {
	Structured bool
	Icons      []icons.Icon // configured icon list, used when not structured
}

// BuildToolbar returns the toolbar entries: the remove actions, a separator,
// then the structured groups or the configured icons followed by user icons.
func (b *Builder) BuildToolbar(layout ToolbarLayout) []*Entry {
	var result []*Entry
	for _, action := range b.actions.RemoveActions() {
		result = append(result, NewLeaf(action))
	}
	result = append(result, NewSeparator())

	if layout.Structured {
		return append(result, b.BuildStructured()...)
	}
	for _, icon := range layout.Icons {
		if action, ok := b.actions.ForIcon(icon.Name); ok {
			result = append(result, NewLeaf(action))
		}
	}
	for _, icon := range b.store.UserIcons() {
		if action, ok := b.actions.ForIcon(icon.Name); ok {
			result = append(result, NewLeaf(action))
		}
	}
	return result
}
