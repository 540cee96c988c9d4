package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"feeManager/internal/config"
	"feeManager/internal/dex"
	"feeManager/internal/feemanager"
)

func runGet(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadGet(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Pool == "" {
		return fmt.Errorf("pool is required")
	}
	poolID, err := dex.ParsePoolID(cfg.Pool)
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

	if cfg.All {
		records, err := opened.Ticks.ListTicks(ctx, poolID)
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		for _, record := range records {
			if err := encoder.Encode(record); err != nil {
				return fmt.Errorf("encode tick record: %w", err)
			}
		}
		return nil
	}

	manager := feemanager.NewManager(opened.Ticks, logger)
	fee, err := manager.GetFee(ctx, poolID, cfg.Tick)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), fee)
	return nil
}
