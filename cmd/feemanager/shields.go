package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feeManager/internal/config"
	"feeManager/internal/ingest"
)

func runShields(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadShields(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	contracts, err := ingest.ParseAddresses(cfg.Contracts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opened, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer opened.Close()

	stateStore := newStateStore(cfg.StateFile, opened, "shields:"+cfg.Input)
	if stateStore != nil && !opened.Durable() {
		return fmt.Errorf("checkpoints require a durable store (jsonl or postgres), got %s", opened.Kind)
	}

	watcher, err := ingest.NewShieldWatcher(ingest.ShieldConfig{
		Contracts:  contracts,
		BatchLimit: cfg.BatchLimit,
		StateStore: stateStore,
	}, opened.Shields, logger)
	if err != nil {
		return err
	}

	logger.Info("shields start",
		zap.String("input", cfg.Input),
		zap.String("store", opened.Kind),
		zap.String("pg_dsn", redactDSN(cfg.Store.PGDSN)),
		zap.Int("contracts", len(contracts)),
		zap.Int("batch_limit", cfg.BatchLimit),
		zap.Bool("checkpoint_enabled", stateStore != nil),
	)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	_, err = watcher.Run(ctx, cfg.Input, func(batch ingest.RemovalBatch) error {
		return encoder.Encode(batch)
	})
	return err
}
