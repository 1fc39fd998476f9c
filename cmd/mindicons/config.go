package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindicons/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	})

	var (
		icons  []string
		undo   int
		layout string
	)
	toolbar := &cobra.Command{
		Use:   "toolbar",
		Short: "Change the icon toolbar layout; a running server picks it up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if layout != "" && layout != "flat" && layout != "structured" {
				return fmt.Errorf("unknown layout %q, want flat or structured", layout)
			}
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			loader, err := config.NewLoader(path, zap.NewNop())
			if err != nil {
				return err
			}
			defer func() { _ = loader.Stop() }()
			if _, err := loader.Load(); err != nil {
				return err
			}

			next, err := loader.Update(func(cfg *config.Config) error {
				if layout != "" {
					cfg.StructuredIconToolbar = layout == "structured"
				}
				if cmd.Flags().Changed("icons") {
					cfg.IconsList = strings.Join(icons, config.IconListSeparator)
				}
				if cmd.Flags().Changed("undo-levels") {
					cfg.UndoLevels = undo
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Printf("saved %s (structured=%t, icons=%q)\n", loader.Path(), next.StructuredIconToolbar, next.IconsList)
			return nil
		},
	}
	toolbar.Flags().StringVar(&layout, "layout", "", "Toolbar layout: flat (configured icons) or structured (group submenus)")
	toolbar.Flags().StringSliceVar(&icons, "icons", nil, "Icon names for the flat toolbar, in order")
	toolbar.Flags().IntVar(&undo, "undo-levels", 0, "Undo history size per map")
	cmd.AddCommand(toolbar)
	return cmd
}
