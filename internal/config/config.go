package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// StoreConfig selects the tick storage backend.
type StoreConfig struct {
	Kind       string
	Path       string
	ShieldPath string
	PGDSN      string
}

// FeesConfig holds configuration for the fees command.
type FeesConfig struct {
	NumTicks uint32
	FeeInit  uint32
	FeeMax   uint32
	LogLevel string
}

// GetConfig holds configuration for the get command.
type GetConfig struct {
	Store    StoreConfig
	Pool     string
	Tick     int32
	All      bool
	LogLevel string
}

// UpdateConfig holds configuration for the update command.
type UpdateConfig struct {
	Store       StoreConfig
	Pool        string
	Liquidity   string
	TickLower   int32
	TickUpper   int32
	TickSpacing uint32
	FeeInit     uint32
	FeeMax      uint32
	LogLevel    string
}

// ApplyConfig holds configuration for the apply command.
type ApplyConfig struct {
	Store       StoreConfig
	Input       string
	Pools       []string
	TickSpacing uint32
	FeeInit     uint32
	FeeMax      uint32
	StateFile   string
	LogLevel    string
}

// ShieldsConfig holds configuration for the shields command.
type ShieldsConfig struct {
	Store      StoreConfig
	Input      string
	Contracts  []string
	BatchLimit int
	StateFile  string
	LogLevel   string
}

// LoadFees merges config file, environment variables, and flags into FeesConfig.
func LoadFees(cfgFile string, flags *pflag.FlagSet) (FeesConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return FeesConfig{}, err
	}
	return FeesConfig{
		NumTicks: v.GetUint32("num-ticks"),
		FeeInit:  v.GetUint32("fee-init"),
		FeeMax:   v.GetUint32("fee-max"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// LoadGet merges config file, environment variables, and flags into GetConfig.
func LoadGet(cfgFile string, flags *pflag.FlagSet) (GetConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return GetConfig{}, err
	}
	return GetConfig{
		Store:    loadStore(v),
		Pool:     v.GetString("pool"),
		Tick:     v.GetInt32("tick"),
		All:      v.GetBool("all"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// LoadUpdate merges config file, environment variables, and flags into UpdateConfig.
func LoadUpdate(cfgFile string, flags *pflag.FlagSet) (UpdateConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return UpdateConfig{}, err
	}
	return UpdateConfig{
		Store:       loadStore(v),
		Pool:        v.GetString("pool"),
		Liquidity:   v.GetString("liquidity"),
		TickLower:   v.GetInt32("tick-lower"),
		TickUpper:   v.GetInt32("tick-upper"),
		TickSpacing: v.GetUint32("tick-spacing"),
		FeeInit:     v.GetUint32("fee-init"),
		FeeMax:      v.GetUint32("fee-max"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}

// LoadApply merges config file, environment variables, and flags into ApplyConfig.
func LoadApply(cfgFile string, flags *pflag.FlagSet) (ApplyConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ApplyConfig{}, err
	}
	return ApplyConfig{
		Store:       loadStore(v),
		Input:       v.GetString("in"),
		Pools:       getStringSlice(v, "pool"),
		TickSpacing: v.GetUint32("tick-spacing"),
		FeeInit:     v.GetUint32("fee-init"),
		FeeMax:      v.GetUint32("fee-max"),
		StateFile:   v.GetString("state-file"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}

// LoadShields merges config file, environment variables, and flags into ShieldsConfig.
func LoadShields(cfgFile string, flags *pflag.FlagSet) (ShieldsConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ShieldsConfig{}, err
	}
	return ShieldsConfig{
		Store:      loadStore(v),
		Input:      v.GetString("in"),
		Contracts:  getStringSlice(v, "contract"),
		BatchLimit: v.GetInt("batch-limit"),
		StateFile:  v.GetString("state-file"),
		LogLevel:   v.GetString("log-level"),
	}, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("FEEMANAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", "jsonl")
	v.SetDefault("store-path", "./data/ticks.jsonl")
	v.SetDefault("shield-path", "./data/shields.jsonl")
	v.SetDefault("tick-spacing", uint32(1))
	v.SetDefault("batch-limit", 500)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func loadStore(v *viper.Viper) StoreConfig {
	return StoreConfig{
		Kind:       v.GetString("store"),
		Path:       v.GetString("store-path"),
		ShieldPath: v.GetString("shield-path"),
		PGDSN:      v.GetString("pg-dsn"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
