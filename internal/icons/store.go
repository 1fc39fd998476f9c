package icons

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// UserGroup is the name of the group holding icons loaded from the user
// icon directory.
const UserGroup = "user"

// ErrUnknownIcon is returned when a name does not resolve to a known icon.
var ErrUnknownIcon = errors.New("unknown icon")

var userIconExtensions = map[string]bool{
	".svg": true,
	".png": true,
}

// Store is the ordered set of known icons. It is built once and read-only
// afterwards.
type Store struct {
	groups []Group
	byName map[string]Icon
	icons  []Icon
	user   []Icon
}

// NewStore builds a store from a catalog. Icon names must be unique.
func NewStore(c *Catalog) (*Store, error) {
	s := &Store{byName: make(map[string]Icon)}
	if c == nil {
		return s, nil
	}
	for _, g := range c.Groups {
		group := Group{Name: g.Name, Description: g.Description, Glyph: g.Glyph}
		for _, icon := range g.Icons {
			if err := s.add(icon); err != nil {
				return nil, fmt.Errorf("group %q: %w", g.Name, err)
			}
			group.Icons = append(group.Icons, s.byName[icon.Name])
		}
		s.groups = append(s.groups, group)
	}
	return s, nil
}

// NewDefaultStore builds a store from the built-in catalog.
func NewDefaultStore() (*Store, error) {
	c, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return NewStore(c)
}

func (s *Store) add(icon Icon) error {
	if strings.TrimSpace(icon.Name) == "" {
		return errors.New("icon without name")
	}
	if _, dup := s.byName[icon.Name]; dup {
		return fmt.Errorf("duplicate icon %q", icon.Name)
	}
	if icon.Glyph == "" {
		icon.Glyph = "images/icons/" + icon.GroupPath() + ".svg"
	}
	s.byName[icon.Name] = icon
	s.icons = append(s.icons, icon)
	return nil
}

// LoadUserIcons adds every .svg/.png file below dir as a user icon. The path
// relative to dir, without extension, is both name and grouping path.
func (s *Store) LoadUserIcons(dir string) error {
	group := Group{Name: UserGroup, Description: "User icons"}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !userIconExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		icon := Icon{Name: name, Description: filepath.Base(name), Glyph: p}
		if err := s.add(icon); err != nil {
			return err
		}
		group.Icons = append(group.Icons, icon)
		s.user = append(s.user, icon)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load user icons from %s: %w", dir, err)
	}
	if len(group.Icons) > 0 {
		group.Glyph = group.Icons[0].Name
		s.groups = append(s.groups, group)
	}
	return nil
}

// Groups returns the icon groups in catalog order.
func (s *Store) Groups() []Group {
	result := make([]Group, len(s.groups))
	copy(result, s.groups)
	return result
}

// IconsInGroup returns the icons of the named group, or nil.
func (s *Store) IconsInGroup(group string) []Icon {
	for _, g := range s.groups {
		if g.Name == group {
			result := make([]Icon, len(g.Icons))
			copy(result, g.Icons)
			return result
		}
	}
	return nil
}

// GroupIcon returns the icon representing a group.
func (s *Store) GroupIcon(g Group) (Icon, bool) {
	if icon, ok := s.byName[g.Glyph]; ok {
		return icon, true
	}
	if len(g.Icons) > 0 {
		return g.Icons[0], true
	}
	return Icon{}, false
}

// Lookup finds an icon by name.
func (s *Store) Lookup(name string) (Icon, error) {
	icon, ok := s.byName[name]
	if !ok {
		return Icon{}, fmt.Errorf("%w: %s", ErrUnknownIcon, name)
	}
	return icon, nil
}

// Icons returns every known icon in store order, user icons last.
func (s *Store) Icons() []Icon {
	result := make([]Icon, len(s.icons))
	copy(result, s.icons)
	return result
}

// UserIcons returns the icons loaded from the user icon directory.
func (s *Store) UserIcons() []Icon {
	result := make([]Icon, len(s.user))
	copy(result, s.user)
	return result
}
