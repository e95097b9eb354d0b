package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oceanridge/ordinator/internal/apiserver"
	"github.com/oceanridge/ordinator/internal/config"
	"github.com/oceanridge/ordinator/internal/events"
	"github.com/oceanridge/ordinator/internal/ingest"
	"github.com/oceanridge/ordinator/internal/orchestrator"
	"github.com/oceanridge/ordinator/pkg/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler daemon, spawning actors for every configured asset",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("config-dir", "./config", "Directory holding the system configuration files")
	serveCmd.Flags().String("data-dir", "./data", "Directory holding per-asset work_orders.csv/technicians.csv and the archive database")
	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	addr, _ := cmd.Flags().GetString("addr")

	watcher, err := config.NewWatcher(configDir)
	if err != nil {
		return err
	}
	defer watcher.Close()
	cfg := watcher.Current()

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	orch := orchestrator.New(cfg, dataDir, broker)

	for asset := range cfg.ActorSpecifications {
		env, err := ingest.AssetEnvironment(cfg, dataDir, asset)
		if err != nil {
			log.WithAsset(asset).Error().Err(err).Msg("failed to build environment, skipping asset")
			continue
		}
		if err := orch.SpawnAsset(context.Background(), asset, env); err != nil {
			log.WithAsset(asset).Error().Err(err).Msg("failed to spawn asset")
			continue
		}
		log.WithAsset(asset).Info().Msg("asset spawned")
	}

	srv := apiserver.New(addr, orch)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Logger.Info().Msg("shutting down")
	}

	for asset := range cfg.ActorSpecifications {
		if err := orch.DespawnAsset(asset); err != nil {
			log.WithAsset(asset).Warn().Err(err).Msg("despawn on shutdown failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
