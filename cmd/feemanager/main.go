package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "feemanager",
		Short:        "Per-tick fee schedules for concentrated-liquidity pools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	feesCmd := &cobra.Command{
		Use:   "fees",
		Short: "Print the fee schedule for a tick count",
		RunE:  runFees,
	}

	feesCmd.Flags().Uint32("num-ticks", 0, "number of ticks in the schedule")
	feesCmd.Flags().Uint32("fee-init", 0, "fee at the centre tick")
	feesCmd.Flags().Uint32("fee-max", 0, "fee at the edge ticks")
	feesCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(feesCmd)

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the stored fee of a tick",
		RunE:  runGet,
	}

	addStoreFlags(getCmd)
	getCmd.Flags().String("pool", "", "pool id (32 bytes) or pool address")
	getCmd.Flags().Int32("tick", 0, "tick index")
	getCmd.Flags().Bool("all", false, "print every stored tick record of the pool")
	getCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(getCmd)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Spread liquidity over a tick range and recompute its fees",
		RunE:  runUpdate,
	}

	addStoreFlags(updateCmd)
	updateCmd.Flags().String("pool", "", "pool id (32 bytes) or pool address")
	updateCmd.Flags().String("liquidity", "0", "liquidity to add (uint128, decimal)")
	updateCmd.Flags().Int32("tick-lower", 0, "lowest tick (inclusive)")
	updateCmd.Flags().Int32("tick-upper", 0, "highest tick (inclusive)")
	updateCmd.Flags().Uint32("tick-spacing", 1, "step between visited ticks")
	updateCmd.Flags().Uint32("fee-init", 0, "fee at the centre tick")
	updateCmd.Flags().Uint32("fee-max", 0, "fee at the edge ticks")
	updateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(updateCmd)

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply Mint logs from an indexer JSONL file",
		RunE:  runApply,
	}

	addStoreFlags(applyCmd)
	applyCmd.Flags().String("in", "", "input raw logs JSONL")
	applyCmd.Flags().StringSlice("pool", nil, "only apply mints of these pool addresses (comma-separated)")
	applyCmd.Flags().Uint32("tick-spacing", 1, "step between visited ticks")
	applyCmd.Flags().Uint32("fee-init", 0, "fee at the centre tick")
	applyCmd.Flags().Uint32("fee-max", 0, "fee at the edge ticks")
	applyCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	applyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(applyCmd)

	shieldsCmd := &cobra.Command{
		Use:   "shields",
		Short: "Register shields and print removal batches from hook logs",
		RunE:  runShields,
	}

	addStoreFlags(shieldsCmd)
	shieldsCmd.Flags().String("in", "", "input raw logs JSONL")
	shieldsCmd.Flags().StringSlice("contract", nil, "only read logs of these hook contracts (comma-separated)")
	shieldsCmd.Flags().Int("batch-limit", 500, "max positions per removal batch")
	shieldsCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	shieldsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(shieldsCmd)

	return root
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "jsonl", "store backend (jsonl, postgres, memory)")
	cmd.Flags().String("store-path", "./data/ticks.jsonl", "JSONL tick journal path")
	cmd.Flags().String("shield-path", "./data/shields.jsonl", "JSONL shield journal path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
