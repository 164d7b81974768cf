package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	enginecfg "weusd/config"
	"weusd/core"
	"weusd/core/state"
	"weusd/native/crosschain"
	"weusd/native/reserve"
	"weusd/observability/logging"
	"weusd/observability/otel"
	"weusd/services/reserved/config"
	"weusd/services/reserved/server"
	"weusd/services/reserved/storage"
	coredb "weusd/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "reserved.yaml", "path to the daemon configuration file")
	flag.Parse()

	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "reserved: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.Setup("reserved", cfg.Environment, logging.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := otel.Init(ctx, otel.Config{
		ServiceName: "reserved",
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Traces:      true,
		Metrics:     cfg.Telemetry.Endpoint != "",
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "err", err)
		}
	}()

	ecfg, err := enginecfg.Load(cfg.EngineConfig)
	if err != nil {
		return fmt.Errorf("load engine config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := coredb.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()
	manager := state.NewManager(db)

	coreCfg, err := ecfg.EngineConfig()
	if err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	engine, err := core.NewEngine(coreCfg, core.NewMemoryToken(), core.NewMemoryToken())
	if err != nil {
		return fmt.Errorf("construct engine: %w", err)
	}
	if err := engine.AttachStores(reserve.NewStore(manager), crosschain.NewStore(manager)); err != nil {
		return fmt.Errorf("attach persistence: %w", err)
	}

	var archive *storage.Storage
	if cfg.ArchiveDatabase != "" {
		archive, err = storage.Open(cfg.ArchiveDatabase)
		if err != nil {
			return fmt.Errorf("open archive database: %w", err)
		}
		defer archive.Close()
		engine.SetArchiver(archive)
	}

	logger.Info("starting reserved",
		"listen", cfg.ListenAddress,
		"data_dir", cfg.DataDir,
		"chain_id", ecfg.LocalChainID,
		"archive", cfg.ArchiveDatabase != "")

	srv := server.New(*cfg, engine, archive, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("reserved stopped")
	return nil
}
