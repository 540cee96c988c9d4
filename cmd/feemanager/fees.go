package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feeManager/internal/config"
	"feeManager/internal/feeschedule"
)

func runFees(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFees(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	fees, err := feeschedule.Compute(cfg.NumTicks, cfg.FeeInit, cfg.FeeMax)
	if err != nil {
		return err
	}
	logger.Debug("fee schedule computed",
		zap.Uint32("num_ticks", cfg.NumTicks),
		zap.Uint32("fee_init", cfg.FeeInit),
		zap.Uint32("fee_max", cfg.FeeMax),
	)

	out, err := json.Marshal(fees)
	if err != nil {
		return fmt.Errorf("marshal fees: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
