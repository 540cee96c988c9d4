package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feeManager/internal/config"
	"feeManager/internal/feemanager"
	"feeManager/internal/ingest"
)

func runApply(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadApply(cfgFile, cmd.Flags())
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

	pools, err := ingest.ParseAddresses(cfg.Pools)
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

	stateStore := newStateStore(cfg.StateFile, opened, "apply:"+cfg.Input)
	if stateStore != nil && !opened.Durable() {
		return fmt.Errorf("checkpoints require a durable store (jsonl or postgres), got %s", opened.Kind)
	}

	manager := feemanager.NewManager(opened.Ticks, logger)
	applier, err := ingest.NewApplier(ingest.Config{
		TickSpacing: cfg.TickSpacing,
		FeeInit:     cfg.FeeInit,
		FeeMax:      cfg.FeeMax,
		Pools:       pools,
		StateStore:  stateStore,
	}, manager, logger)
	if err != nil {
		return err
	}

	logger.Info("apply start",
		zap.String("input", cfg.Input),
		zap.String("store", opened.Kind),
		zap.String("pg_dsn", redactDSN(cfg.Store.PGDSN)),
		zap.Int("pools", len(pools)),
		zap.Uint32("tick_spacing", cfg.TickSpacing),
		zap.Uint32("fee_init", cfg.FeeInit),
		zap.Uint32("fee_max", cfg.FeeMax),
		zap.Bool("checkpoint_enabled", stateStore != nil),
	)

	_, err = applier.Run(ctx, cfg.Input)
	return err
}
