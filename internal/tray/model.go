// Package tray shows the icon toolbar in the system tray. Clicking an entry
// performs its action on the target node.
package tray

import (
	"go.uber.org/zap"

	"mindicons/internal/menu"
)

// Target is the node tray clicks apply to.
type Target struct {
	MapID  string
	NodeID string
}

// Item is a platform independent tray menu item.
type Item struct {
	Title     string
	Tooltip   string
	ActionKey string
	Separator bool
	Children  []Item
}

// Items converts toolbar entries into tray items. Submenus without leaves
// are dropped since an empty tray submenu cannot be opened.
func Items(entries []*menu.Entry) []Item {
	var items []Item
	for _, e := range entries {
		switch e.Kind {
		case menu.Separator:
			if len(items) > 0 && !items[len(items)-1].Separator {
				items = append(items, Item{Separator: true})
			}
		case menu.Submenu:
			children := Items(e.Children)
			if len(children) == 0 {
				continue
			}
			items = append(items, Item{Title: e.Label, Tooltip: e.Tooltip, Children: children})
		default:
			items = append(items, Item{Title: e.Label, Tooltip: e.Tooltip, ActionKey: e.ActionKey})
		}
	}
	return items
}

// Performer runs an action on a node.
type Performer interface {
	Perform(mapID, nodeID, key string) error
}

// clickHandler applies clicked actions to target, logging failures.
type clickHandler struct {
	performer Performer
	target    Target
	logger    *zap.SugaredLogger
}

func (h *clickHandler) click(key string) {
	if err := h.performer.Perform(h.target.MapID, h.target.NodeID, key); err != nil {
		h.logger.Warnf("Tray action %s failed: %v", key, err)
		return
	}
	h.logger.Debugf("Tray action %s applied to %s/%s", key, h.target.MapID, h.target.NodeID)
}
