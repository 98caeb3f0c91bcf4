package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"vaultgame/config"
	"vaultgame/core/events"
	"vaultgame/core/state"
	"vaultgame/native/vault"
	"vaultgame/observability/logging"
	"vaultgame/observability/metrics"
	"vaultgame/rpc"
	"vaultgame/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the service configuration file")
	useMemory := flag.Bool("memory", false, "run against an in-memory database (state is lost on exit)")
	flag.Parse()

	logger := logging.Setup("vaultgamed", os.Getenv("VAULTGAME_ENV"))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := openDatabase(cfg, *useMemory)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	engine := vault.NewEngine()
	engine.SetState(manager)
	engine.SetEmitter(events.MultiEmitter{metrics.NewEmitter()})

	if err := bootstrapGlobal(engine, manager, cfg); err != nil {
		logger.Error("failed to bootstrap global registry", "err", err)
		os.Exit(1)
	}

	server := rpc.NewServer(engine, manager, logger)
	if cfg.RPCRateLimit > 0 {
		server.SetRateLimit(cfg.RPCRateLimit, cfg.RPCRateBurst)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.RPCAddress)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("rpc server stopped", "err", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "err", err)
		}
	}
}

func openDatabase(cfg *config.Config, useMemory bool) (storage.Database, error) {
	if useMemory {
		return storage.NewMemDB(), nil
	}
	switch cfg.Backend {
	case "bolt":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "state.db"))
	default:
		return storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	}
}

// bootstrapGlobal initialises the global registry on first start when the
// config carries an admin address. Later starts find the record and leave
// it untouched.
func bootstrapGlobal(engine *vault.Engine, manager *state.Manager, cfg *config.Config) error {
	if _, ok, err := manager.GlobalGet(); err != nil {
		return err
	} else if ok {
		return nil
	}
	adminHex := strings.TrimSpace(cfg.AdminAddress)
	if adminHex == "" {
		return nil
	}
	decoded, err := hex.DecodeString(strings.TrimPrefix(adminHex, "0x"))
	if err != nil || len(decoded) != 20 {
		return fmt.Errorf("invalid AdminAddress %q", cfg.AdminAddress)
	}
	var admin [20]byte
	copy(admin[:], decoded)
	if _, err := engine.InitializeGlobal(admin, cfg.FeeMint); err != nil && !errors.Is(err, vault.ErrAlreadyInitialized) {
		return err
	}
	return nil
}
