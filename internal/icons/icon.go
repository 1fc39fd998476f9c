// Package icons holds the icon taxonomy: immutable icons, the groups they are
// presented in and the store that looks them up by name.
package icons

import (
	"path"
	"strings"
)

// PathSeparator separates hierarchy levels in an icon path.
const PathSeparator = "/"

// Icon is an immutable glyph that can be attached to a node.
type Icon struct {
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"` // slash-delimited grouping path, defaults to Name
	Description string `json:"description,omitempty"`
	Glyph       string `json:"glyph,omitempty"` // renderable resource reference
	Shortcut    string `json:"shortcut,omitempty"`
}

// Label is the last path segment, used as the menu item text.
func (i Icon) Label() string {
	return path.Base(i.GroupPath())
}

// GroupPath returns the path used for menu grouping.
func (i Icon) GroupPath() string {
	if i.Path != "" {
		return i.Path
	}
	return i.Name
}

// Segments splits the grouping path into its hierarchy levels.
func (i Icon) Segments() []string {
	return strings.Split(i.GroupPath(), PathSeparator)
}

// IsZero reports whether the icon is unset
func (i Icon) IsZero() bool {
	return i.Name == ""
}

// Group is a flat bucket of icons presented together in toolbars and menus.
type Group struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Glyph       string `json:"glyph,omitempty"` // name of the icon representing the group
	Icons       []Icon `json:"icons"`
}
