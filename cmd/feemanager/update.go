package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feeManager/internal/config"
	"feeManager/internal/dex"
	"feeManager/internal/feemanager"
)

func runUpdate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadUpdate(cfgFile, cmd.Flags())
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
	liquidity, err := uint256.FromDecimal(cfg.Liquidity)
	if err != nil {
		return fmt.Errorf("invalid liquidity %q: %w", cfg.Liquidity, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opened, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer opened.Close()

	manager := feemanager.NewManager(opened.Ticks, logger)
	res, err := manager.UpdateFeePerTick(ctx, poolID, liquidity, cfg.TickLower, cfg.TickUpper, cfg.TickSpacing, cfg.FeeInit, cfg.FeeMax)
	if err != nil {
		logger.Error("update failed",
			zap.Error(err),
			zap.String("pool_id", poolID.Hex()),
			zap.Int("ticks_written", res.Visited),
		)
		return err
	}

	logger.Info("update complete",
		zap.String("pool_id", poolID.Hex()),
		zap.Int32("tick_lower", cfg.TickLower),
		zap.Int32("tick_upper", cfg.TickUpper),
		zap.Uint32("tick_spacing", cfg.TickSpacing),
		zap.Int("ticks_written", res.Visited),
		zap.String("liq_per_tick", res.LiqPerTick.Dec()),
	)
	return nil
}
