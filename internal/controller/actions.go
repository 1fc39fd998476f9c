package controller

import (
	"errors"
	"fmt"

	"mindicons/internal/icons"
	"mindicons/internal/mindmap"
)

// Action keys of the fixed remove actions.
const (
	RemoveFirstIconKey = "RemoveIcon_0_Action"
	RemoveLastIconKey  = "RemoveIconAction"
	RemoveAllIconsKey  = "RemoveAllIconsAction"

	iconActionPrefix = "IconAction."
)

// ErrUnknownAction is returned by Perform for unregistered keys
var ErrUnknownAction = errors.New("unknown action")

// IconActionKey returns the action key of the named icon.
func IconActionKey(name string) string {
	return iconActionPrefix + name
}

// Action is a named, clickable operation on a node.
type Action struct {
	Key      string
	Label    string
	Tooltip  string
	Glyph    string
	Shortcut string
	Icon     icons.Icon // zero for the remove actions

	perform func(node *mindmap.Node)
}

// Perform runs the action on node.
func (a *Action) Perform(node *mindmap.Node) {
	a.perform(node)
}

// Shortcut binds an action key to its keystroke.
type Shortcut struct {
	Key       string `json:"key"`
	Keystroke string `json:"keystroke"`
}

// Actions is the registry of icon and remove actions, one per icon in
// store order after the three remove actions.
type Actions struct {
	byKey  map[string]*Action
	byIcon map[string]*Action
	order  []*Action
}

// NewActions registers the remove actions and one action per icon of the
// controller's store.
func NewActions(c *IconController) *Actions {
	a := &Actions{
		byKey:  make(map[string]*Action),
		byIcon: make(map[string]*Action),
	}

	a.add(&Action{
		Key:     RemoveFirstIconKey,
		Label:   "Remove first icon",
		Glyph:   "images/remove_first_icon.svg",
		perform: func(n *mindmap.Node) { c.RemoveIcon(n, 0) },
	})
	a.add(&Action{
		Key:     RemoveLastIconKey,
		Label:   "Remove last icon",
		Glyph:   "images/remove_icon.svg",
		perform: func(n *mindmap.Node) { c.RemoveLastIcon(n) },
	})
	a.add(&Action{
		Key:     RemoveAllIconsKey,
		Label:   "Remove all icons",
		Glyph:   "images/remove_all_icons.svg",
		perform: func(n *mindmap.Node) { c.RemoveAllIcons(n) },
	})

	for _, icon := range c.store.Icons() {
		icon := icon
		action := &Action{
			Key:      IconActionKey(icon.Name),
			Label:    icon.Label(),
			Tooltip:  icon.Description,
			Glyph:    icon.Glyph,
			Shortcut: icon.Shortcut,
			Icon:     icon,
			perform:  func(n *mindmap.Node) { c.AddIcon(n, icon) },
		}
		a.add(action)
		a.byIcon[icon.Name] = action
	}
	return a
}

func (a *Actions) add(action *Action) {
	a.byKey[action.Key] = action
	a.order = append(a.order, action)
}

// Get returns the action registered under key.
func (a *Actions) Get(key string) (*Action, bool) {
	action, ok := a.byKey[key]
	return action, ok
}

// ForIcon returns the action adding the named icon.
func (a *Actions) ForIcon(name string) (*Action, bool) {
	action, ok := a.byIcon[name]
	return action, ok
}

// RemoveActions returns remove-first, remove-last and remove-all in that order.
func (a *Actions) RemoveActions() []*Action {
	return []*Action{
		a.byKey[RemoveFirstIconKey],
		a.byKey[RemoveLastIconKey],
		a.byKey[RemoveAllIconsKey],
	}
}

// All returns every action in registration order.
func (a *Actions) All() []*Action {
	result := make([]*Action, len(a.order))
	copy(result, a.order)
	return result
}

// Perform dispatches a click on the action registered under key.
func (a *Actions) Perform(key string, node *mindmap.Node) error {
	action, ok := a.byKey[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, key)
	}
	action.Perform(node)
	return nil
}

// Shortcuts lists the actions that have a keystroke assigned.
func (a *Actions) Shortcuts() []Shortcut {
	var result []Shortcut
	for _, action := range a.order {
		if action.Shortcut == "" {
			continue
		}
		result = append(result, Shortcut{Key: action.Key, Keystroke: action.Shortcut})
	}
	return result
}
