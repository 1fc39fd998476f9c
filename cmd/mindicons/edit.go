package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mindicons/internal/app"
	"mindicons/internal/controller"
	"mindicons/internal/styles"
)

var (
	editMap  string
	editNode string
)

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change node icons of a stored map",
	}
	cmd.PersistentFlags().StringVarP(&editMap, "map", "m", "default", "Map id")
	cmd.PersistentFlags().StringVarP(&editNode, "node", "n", "root", "Node id")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <icon> [position]",
			Short: "Add an icon, appended or at position",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editNodeWith(cmd, func(a *app.App) error {
					if len(args) == 1 {
						return a.Perform(editMap, editNode, controller.IconActionKey(args[0]))
					}
					pos, err := strconv.Atoi(args[1])
					if err != nil {
						return fmt.Errorf("invalid position %q: %w", args[1], err)
					}
					return a.AddIconAt(editMap, editNode, args[0], pos)
				})
			},
		},
		&cobra.Command{
			Use:   "remove [position|first|last|all]",
			Short: "Remove icons; negative positions count from the end",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				which := "last"
				if len(args) > 0 {
					which = args[0]
				}
				return editNodeWith(cmd, func(a *app.App) error {
					return removeIcons(a, which)
				})
			},
		},
		&cobra.Command{
			Use:   "size [size]",
			Short: "Set the icon size, e.g. \"16 pt\"; no argument unsets it",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				size := ""
				if len(args) > 0 {
					size = args[0]
				}
				return editNodeWith(cmd, func(a *app.App) error {
					return a.ChangeIconSize(editMap, editNode, size)
				})
			},
		},
		&cobra.Command{
			Use:   "copy <from-node>",
			Short: "Copy the icons of another node onto --node",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editNodeWith(cmd, func(a *app.App) error {
					return a.CopyIcons(editMap, args[0], editNode)
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every icon of --node",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return editNodeWith(cmd, func(a *app.App) error {
					return a.ClearIcons(editMap, editNode)
				})
			},
		},
		&cobra.Command{
			Use:   "remove-from <node>",
			Short: "Remove from <node> the icons --node carries",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editNodeWith(cmd, func(a *app.App) error {
					return a.RemoveIconsOf(editMap, args[0], editNode)
				})
			},
		},
		newStyleCmd(),
		historyCmd("undo", "Undo the last change", (*app.App).Undo),
		historyCmd("redo", "Redo the last undone change", (*app.App).Redo),
	)
	return cmd
}

func newStyleCmd() *cobra.Command {
	var (
		rule    app.StyleRule
		mapWide bool
	)
	cmd := &cobra.Command{
		Use:   "style <style>",
		Short: "Apply a style to --node, or to the whole map, while a condition holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule.Style = args[0]
			if !mapWide {
				rule.Node = editNode
			}
			return editNodeWith(cmd, func(a *app.App) error {
				return a.AddStyleRule(editMap, rule)
			})
		},
	}
	cmd.Flags().StringVar(&rule.Condition, "when", styles.KindIconExists,
		"Condition: icon_contained, icon_exists or always")
	cmd.Flags().StringVar(&rule.Icon, "icon", "", "Icon name for icon_contained")
	cmd.Flags().BoolVar(&rule.Negate, "not", false, "Apply while the condition does not hold")
	cmd.Flags().BoolVar(&mapWide, "map-wide", false, "Attach the rule to the map instead of --node")
	return cmd
}

func removeIcons(a *app.App, which string) error {
	switch which {
	case "first":
		return a.Perform(editMap, editNode, controller.RemoveFirstIconKey)
	case "last":
		return a.Perform(editMap, editNode, controller.RemoveLastIconKey)
	case "all":
		return a.Perform(editMap, editNode, controller.RemoveAllIconsKey)
	}
	pos, err := strconv.Atoi(which)
	if err != nil {
		return fmt.Errorf("invalid position %q: %w", which, err)
	}
	_, err = a.RemoveIcon(editMap, editNode, pos)
	return err
}

// editNodeWith ensures the node exists, applies fn and prints the result.
func editNodeWith(cmd *cobra.Command, fn func(a *app.App) error) error {
	return withApp(cmd, func(a *app.App) error {
		if err := a.EnsureNode(editMap, editNode); err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
		return showMap(a, editMap)
	})
}

// Undo history is kept in memory, so undo and redo only see changes made by
// the same process; across invocations they report that nothing was done.
func historyCmd(use, short string, step func(*app.App, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				done, err := step(a, editMap)
				if err != nil {
					return err
				}
				if !done {
					fmt.Printf("nothing to %s\n", use)
				}
				return nil
			})
		},
	}
}
