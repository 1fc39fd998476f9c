package app

import (
	"fmt"

	"go.uber.org/zap"

	"mindicons/internal/mindmap"
	"mindicons/internal/storage"
	"mindicons/internal/styles"
)

// StyleRule is a conditional style rule as stored with its map. An empty
// Node applies the rule to every node of the map.
type StyleRule = storage.RuleRecord

// AddStyleRule attaches a conditional style rule to a map, or to one node
// when rule.Node is set, and asks views to re-evaluate the nodes it covers.
func (a *App) AddStyleRule(mapID string, rule StyleRule) error {
	if rule.Style == "" {
		return fmt.Errorf("%w: style rule needs a style", ErrInvalidRule)
	}
	cond, err := styles.NewCondition(rule.Condition, rule.Icon, rule.Negate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	doc, err := a.openLocked(mapID, true)
	if err != nil {
		return err
	}

	affected := doc.Nodes()
	if rule.Node != "" {
		node, err := doc.Node(rule.Node)
		if err != nil {
			return err
		}
		a.styles.AddNodeRule(node, styles.Rule{Condition: cond, Style: rule.Style})
		affected = []*mindmap.Node{node}
	} else {
		a.styles.AddMapRule(mapID, styles.Rule{Condition: cond, Style: rule.Style})
	}
	for _, node := range affected {
		a.maps.DelayedRefresh(node, mindmap.Unknown, nil, nil)
	}
	a.logger.Info("Added style rule",
		zap.String("map", mapID),
		zap.String("node", rule.Node),
		zap.String("condition", rule.Condition),
		zap.String("style", rule.Style))
	return nil
}

// StyleRules lists the rules of a map, map-wide rules first.
func (a *App) StyleRules(mapID string) ([]StyleRule, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.openLocked(mapID, false); err != nil {
		return nil, err
	}
	rules := a.ruleRecords(mapID)
	if rules == nil {
		rules = []StyleRule{}
	}
	return rules, nil
}

// ruleRecords converts the registered rules of a map for storage.
func (a *App) ruleRecords(mapID string) []storage.RuleRecord {
	var records []storage.RuleRecord
	for _, scoped := range a.styles.RulesOf(mapID) {
		kind, icon, negate, err := styles.Describe(scoped.Rule.Condition)
		if err != nil {
			a.logger.Warn("Not saving style rule", zap.String("map", mapID), zap.Error(err))
			continue
		}
		records = append(records, storage.RuleRecord{
			Node:      scoped.Node,
			Condition: kind,
			Icon:      icon,
			Negate:    negate,
			Style:     scoped.Rule.Style,
		})
	}
	return records
}

// restoreRules registers the stored rules of a freshly loaded map. Broken
// rules are skipped.
func (a *App) restoreRules(doc *mindmap.Map, records []storage.RuleRecord) {
	for _, rec := range records {
		cond, err := styles.NewCondition(rec.Condition, rec.Icon, rec.Negate)
		if err != nil {
			a.logger.Warn("Skipping stored style rule", zap.String("map", doc.ID()), zap.Error(err))
			continue
		}
		rule := styles.Rule{Condition: cond, Style: rec.Style}
		if rec.Node == "" {
			a.styles.AddMapRule(doc.ID(), rule)
			continue
		}
		node, err := doc.Node(rec.Node)
		if err != nil {
			a.logger.Warn("Skipping style rule of missing node",
				zap.String("map", doc.ID()), zap.String("node", rec.Node))
			continue
		}
		a.styles.AddNodeRule(node, rule)
	}
}
