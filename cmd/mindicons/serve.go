package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindicons/internal/app"
	"mindicons/internal/config"
	"mindicons/internal/logs"
	"mindicons/internal/processlock"
	"mindicons/internal/server"
	"mindicons/internal/shutdown"
	"mindicons/internal/tray"
)

func newServeCmd() *cobra.Command {
	var (
		listen     string
		enableTray bool
		trayMap    string
		trayNode   string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the system tray toolbar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return runServe(cfg, enableTray, tray.Target{MapID: trayMap, NodeID: trayNode})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, 127.0.0.1:8765)")
	cmd.Flags().BoolVar(&enableTray, "tray", true, "Show the system tray toolbar")
	cmd.Flags().StringVar(&trayMap, "tray-map", "default", "Map the tray toolbar edits")
	cmd.Flags().StringVar(&trayNode, "tray-node", "root", "Node the tray toolbar edits")
	return cmd
}

func runServe(cfg *config.Config, enableTray bool, target tray.Target) error {
	if cfg.DataDir == "" {
		dir, err := config.DefaultDataDir()
		if err != nil {
			return err
		}
		cfg.DataDir = dir
	}
	logger, err := logs.SetupLogger(cfg.Logging, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting mindicons",
		zap.String("listen", cfg.Listen),
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("structured_icon_toolbar", cfg.StructuredIconToolbar))

	lock := processlock.New(cfg.DataDir, logger)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if err := a.EnsureNode(target.MapID, target.NodeID); err != nil {
		_ = a.Close()
		return err
	}

	coordinator := shutdown.NewCoordinator(logger)
	coordinator.SetTotalTimeout(cfg.ShutdownTimeout.Duration())

	srv := server.New(a, logger)
	if err := srv.Start(cfg.Listen); err != nil {
		_ = a.Close()
		return err
	}
	coordinator.RegisterFunc("http-server", shutdown.PhaseConnections, srv.Shutdown)
	coordinator.RegisterFunc("websockets", shutdown.PhaseWebSockets, func(context.Context) error {
		srv.WebSockets().Stop()
		return nil
	})

	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}
	loader, err := config.NewLoader(configPath, logger)
	if err != nil {
		logger.Warn("Config watching disabled", zap.Error(err))
	} else if _, err := loader.Load(); err != nil {
		logger.Warn("Config watching disabled", zap.Error(err))
		_ = loader.Stop()
	} else if err := loader.StartWatching(func(next *config.Config) error {
		next.DataDir = cfg.DataDir
		next.Listen = cfg.Listen
		return a.ApplyConfig(next)
	}); err != nil {
		logger.Warn("Config watching disabled", zap.Error(err))
		_ = loader.Stop()
	} else {
		coordinator.RegisterFunc("config-watcher", shutdown.PhaseWatchers, func(context.Context) error {
			return loader.Stop()
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := tray.New(a, target, logger.Sugar(), cancel)
	coordinator.RegisterFunc("tray", shutdown.PhaseWatchers, func(context.Context) error {
		t.Stop()
		return nil
	})
	coordinator.RegisterFunc("app", shutdown.PhaseStorage, func(context.Context) error {
		return a.Close()
	})
	coordinator.RegisterFunc("logger", shutdown.PhaseCleanup, func(context.Context) error {
		_ = logger.Sync()
		return nil
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	if enableTray {
		if err := t.Run(ctx); err != nil && err != context.Canceled {
			logger.Warn("Tray stopped", zap.Error(err))
		}
	} else {
		<-ctx.Done()
	}
	cancel()

	if err := coordinator.Shutdown(context.Background()); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
