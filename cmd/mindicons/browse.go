package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mindicons/internal/app"
	"mindicons/internal/icons"
	"mindicons/internal/menu"
)

var jsonOutput bool

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newIconsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icons",
		Short: "List standard icons and their actions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				store := a.Store()
				all := make([]icons.Icon, 0)
				for _, key := range a.StandardIconKeys() {
					icon, err := store.Lookup(key)
					if err != nil {
						return err
					}
					all = append(all, icon)
				}
				if jsonOutput {
					return printJSON(all)
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tGROUP\tSHORTCUT\tDESCRIPTION")
				for _, icon := range all {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", icon.Name, icon.GroupPath(), icon.Shortcut, icon.Description)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	return cmd
}

func newMenuCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Print the icon menu tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				root := a.Menu()
				if jsonOutput {
					return printJSON(root)
				}
				return root.Outline(os.Stdout)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	return cmd
}

func newToolbarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolbar",
		Short: "Print the icon toolbar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				entries := a.Toolbar()
				if jsonOutput {
					return printJSON(entries)
				}
				root := menu.NewRoot()
				for _, e := range entries {
					root.Add(e)
				}
				return root.Outline(os.Stdout)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search icons by name, group or description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return withApp(cmd, func(a *app.App) error {
				results, err := a.Search(query, limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(results)
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
				fmt.Fprintln(w, "SCORE\tNAME\tGROUP")
				for _, r := range results {
					fmt.Fprintf(w, "%.3f\t%s\t%s\n", r.Score, r.Icon.Name, r.Icon.GroupPath())
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [map]",
		Short: "Show a map's node icons, or list stored maps",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				if len(args) == 0 {
					ids, err := a.ListMaps()
					if err != nil {
						return err
					}
					if jsonOutput {
						return printJSON(ids)
					}
					for _, id := range ids {
						fmt.Println(id)
					}
					return nil
				}
				return showMap(a, args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <map>",
		Short: "Delete a stored map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				return a.DeleteMap(args[0])
			})
		},
	}
}

func showMap(a *app.App, mapID string) error {
	view, err := a.Snapshot(mapID)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(view)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tICONS\tSIZE\tSTYLES")
	for _, n := range view.Nodes {
		fmt.Fprintf(w, "%s\t%v\t%s\t%v\n", n.ID, n.Icons, n.IconSize, n.Styles)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("undo: %t  redo: %t\n", view.CanUndo, view.CanRedo)
	return nil
}
