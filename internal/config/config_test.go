package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"
)

func updateFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("update", pflag.ContinueOnError)
	flags.String("store", "jsonl", "")
	flags.String("pool", "", "")
	flags.String("liquidity", "0", "")
	flags.Int32("tick-lower", 0, "")
	flags.Int32("tick-upper", 0, "")
	flags.Uint32("tick-spacing", 1, "")
	flags.Uint32("fee-init", 0, "")
	flags.Uint32("fee-max", 0, "")
	return flags
}

func TestLoadUpdateFlagsAndEnv(t *testing.T) {
	t.Setenv("FEEMANAGER_FEE_MAX", "777")

	flags := updateFlags()
	if err := flags.Parse([]string{"--pool", "0x01", "--tick-lower=-60", "--tick-upper", "60", "--liquidity", "1000"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadUpdate("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Pool != "0x01" || cfg.Liquidity != "1000" {
		t.Fatalf("flag values mismatch: %+v", cfg)
	}
	if cfg.TickLower != -60 || cfg.TickUpper != 60 || cfg.TickSpacing != 1 {
		t.Fatalf("tick values mismatch: %+v", cfg)
	}
	if cfg.FeeMax != 777 {
		t.Fatalf("env should set fee max, got %d", cfg.FeeMax)
	}
	if cfg.Store.Kind != "jsonl" || cfg.Store.Path != "./data/ticks.jsonl" || cfg.LogLevel != "info" {
		t.Fatalf("defaults mismatch: %+v", cfg)
	}
}

func TestLoadApplyConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feemanager.yaml")
	content := []byte(`
store: jsonl
store-path: /tmp/ticks.jsonl
in: ./data/logs.jsonl
pool:
  - "0x1111111111111111111111111111111111111111"
  - " "
tick-spacing: 60
fee-init: 500
fee-max: 3000
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadApply(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Store.Kind != "jsonl" || cfg.Store.Path != "/tmp/ticks.jsonl" {
		t.Fatalf("store mismatch: %+v", cfg.Store)
	}
	if !reflect.DeepEqual(cfg.Pools, []string{"0x1111111111111111111111111111111111111111"}) {
		t.Fatalf("pools mismatch: %+v", cfg.Pools)
	}
	if cfg.TickSpacing != 60 || cfg.FeeInit != 500 || cfg.FeeMax != 3000 {
		t.Fatalf("fee config mismatch: %+v", cfg)
	}
}

func TestLoadShieldsDefaults(t *testing.T) {
	t.Setenv("FEEMANAGER_CONTRACT", "0x1111111111111111111111111111111111111111, 0x2222222222222222222222222222222222222222")

	cfg, err := LoadShields("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Kind != "jsonl" || cfg.Store.ShieldPath != "./data/shields.jsonl" {
		t.Fatalf("store defaults mismatch: %+v", cfg.Store)
	}
	if cfg.BatchLimit != 500 {
		t.Fatalf("batch limit default = %d", cfg.BatchLimit)
	}
	if len(cfg.Contracts) != 2 {
		t.Fatalf("contracts from env mismatch: %+v", cfg.Contracts)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := LoadFees(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestSplitAndClean(t *testing.T) {
	got := splitAndClean(" a, ,b ,")
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("split mismatch: %+v", got)
	}
}
