// Command mindicons edits mind map node icons and serves the icon toolbar.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindicons/internal/app"
	"mindicons/internal/config"
	"mindicons/internal/logs"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	structured bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mindicons",
		Short:         "Mind map node icon editor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (default ~/.mindicons/config.json)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory for maps and user icons")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&structured, "structured", false, "Use the structured icon toolbar")

	rootCmd.AddCommand(
		newIconsCmd(),
		newMenuCmd(),
		newToolbarCmd(),
		newSearchCmd(),
		newEditCmd(),
		newShowCmd(),
		newDeleteCmd(),
		newServeCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfigPath returns the --config value or the default location.
func resolveConfigPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	dir := dataDir
	if dir == "" {
		var err error
		if dir, err = config.DefaultDataDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "config.json"), nil
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("structured") {
		cfg.StructuredIconToolbar = structured
	}
}

// setup loads configuration and builds the application. Short lived
// commands log warnings and errors only unless --log-level is given.
func setup(cmd *cobra.Command) (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if logLevel == "" {
		cfg.Logging.Level = logs.LogLevelWarn
	}
	logger, err := logs.SetupLogger(cfg.Logging, cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, logger, nil
}

// withApp runs fn against a freshly built application and closes it after.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runErr := fn(a)
	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
