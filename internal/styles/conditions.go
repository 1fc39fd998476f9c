// Package styles evaluates conditional node styles and keeps views fresh
// when the icons they depend on change.
package styles

import (
	"errors"
	"fmt"

	"mindicons/internal/mindmap"
)

// Condition decides whether a conditional style applies to a node.
type Condition interface {
	Matches(node *mindmap.Node) bool
	// DependsOnIcons reports whether icon changes can flip the result.
	DependsOnIcons() bool
	String() string
}

// IconContained matches nodes carrying the named icon.
type IconContained struct {
	Name string
}

// Matches implements Condition
func (c IconContained) Matches(node *mindmap.Node) bool { return node.HasIcon(c.Name) }

// DependsOnIcons implements Condition
func (c IconContained) DependsOnIcons() bool { return true }

func (c IconContained) String() string { return fmt.Sprintf("icon contains %q", c.Name) }

// IconExists matches nodes carrying at least one icon.
type IconExists struct{}

// Matches implements Condition
func (IconExists) Matches(node *mindmap.Node) bool { return node.IconCount() > 0 }

// DependsOnIcons implements Condition
func (IconExists) DependsOnIcons() bool { return true }

func (IconExists) String() string { return "icon exists" }

// Always matches every node.
type Always struct{}

// Matches implements Condition
func (Always) Matches(*mindmap.Node) bool { return true }

// DependsOnIcons implements Condition
func (Always) DependsOnIcons() bool { return false }

func (Always) String() string { return "always" }

// Not negates a condition.
type Not struct {
	Condition Condition
}

// Matches implements Condition
func (n Not) Matches(node *mindmap.Node) bool { return !n.Condition.Matches(node) }

// DependsOnIcons implements Condition
func (n Not) DependsOnIcons() bool { return n.Condition.DependsOnIcons() }

func (n Not) String() string { return "not " + n.Condition.String() }

// Condition kinds as stored with a rule
const (
	KindIconContained = "icon_contained"
	KindIconExists    = "icon_exists"
	KindAlways        = "always"
)

// ErrUnknownCondition is returned for condition kinds NewCondition does not
// know.
var ErrUnknownCondition = errors.New("unknown condition")

// NewCondition builds a condition of kind. icon names the icon of an
// icon_contained condition.
func NewCondition(kind, icon string, negate bool) (Condition, error) {
	var c Condition
	switch kind {
	case KindIconContained:
		if icon == "" {
			return nil, fmt.Errorf("%s needs an icon name", kind)
		}
		c = IconContained{Name: icon}
	case KindIconExists:
		c = IconExists{}
	case KindAlways:
		c = Always{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCondition, kind)
	}
	if negate {
		c = Not{Condition: c}
	}
	return c, nil
}

// Describe is the inverse of NewCondition.
func Describe(c Condition) (kind, icon string, negate bool, err error) {
	switch c := c.(type) {
	case Not:
		kind, icon, negate, err = Describe(c.Condition)
		return kind, icon, !negate, err
	case IconContained:
		return KindIconContained, c.Name, false, nil
	case IconExists:
		return KindIconExists, "", false, nil
	case Always:
		return KindAlways, "", false, nil
	}
	return "", "", false, fmt.Errorf("%w: %T", ErrUnknownCondition, c)
}
