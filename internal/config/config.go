// Package config handles configuration loading for the trading simulator.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Broker     BrokerConfig     `mapstructure:"broker"     yaml:"broker"`
	MarketData MarketDataConfig `mapstructure:"marketdata" yaml:"marketdata"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Refresh    RefreshConfig    `mapstructure:"refresh"    yaml:"refresh"`
}

// BrokerConfig holds the tunable parameters of the simulation core.
// It is immutable for the lifetime of a broker instance.
type BrokerConfig struct {
	Seed              int64 `mapstructure:"seed"                yaml:"seed"`
	ExecutionDelayMs  int   `mapstructure:"execution_delay_ms"  yaml:"execution_delay_ms"`
	EnforceMarketHours bool `mapstructure:"enforce_market_hours" yaml:"enforce_market_hours"`
	MarketOpenHour    int   `mapstructure:"market_open_hour"    yaml:"market_open_hour"`
	MarketOpenMinute  int   `mapstructure:"market_open_minute"  yaml:"market_open_minute"`
	MarketCloseHour   int   `mapstructure:"market_close_hour"   yaml:"market_close_hour"`
	MarketCloseMinute int   `mapstructure:"market_close_minute" yaml:"market_close_minute"`

	CommissionPerTrade float64 `mapstructure:"commission_per_trade" yaml:"commission_per_trade"`
	FeeRateBps         float64 `mapstructure:"fee_rate_bps"         yaml:"fee_rate_bps"`

	BaseSlippageBps   float64 `mapstructure:"base_slippage_bps"   yaml:"base_slippage_bps"`
	SizeImpactBps     float64 `mapstructure:"size_impact_bps"     yaml:"size_impact_bps"`
	RandomSlippageBps float64 `mapstructure:"random_slippage_bps" yaml:"random_slippage_bps"`
	BaseSpreadBps     float64 `mapstructure:"base_spread_bps"     yaml:"base_spread_bps"`

	InitialMarginLong      float64 `mapstructure:"initial_margin_long"      yaml:"initial_margin_long"`
	InitialMarginShort     float64 `mapstructure:"initial_margin_short"     yaml:"initial_margin_short"`
	MaintenanceMarginLong  float64 `mapstructure:"maintenance_margin_long"  yaml:"maintenance_margin_long"`
	MaintenanceMarginShort float64 `mapstructure:"maintenance_margin_short" yaml:"maintenance_margin_short"`

	SettlementDaysEquities  int     `mapstructure:"settlement_days_equities"  yaml:"settlement_days_equities"`
	ShortBorrowDailyRate    float64 `mapstructure:"short_borrow_daily_rate"   yaml:"short_borrow_daily_rate"`
	ForceLiquidationEnabled bool    `mapstructure:"force_liquidation_enabled" yaml:"force_liquidation_enabled"`
}

// MarketDataConfig selects and parameterizes the market data provider.
type MarketDataConfig struct {
	Mode        string `mapstructure:"mode"         yaml:"mode"` // "replay" or "live"
	EnableLive  bool   `mapstructure:"enable_live"  yaml:"enable_live"`
	DatasetFile string `mapstructure:"dataset_file" yaml:"dataset_file"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// RefreshConfig controls the background maintenance sweep.
type RefreshConfig struct {
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"` // 0 disables the sweep
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.tradingsim/config.yaml (home directory)
//  3. /etc/tradingsim/config.yaml (system)
//
// Environment variables override config file values.
// Format: TRADINGSIM_<SECTION>_<KEY>, e.g., TRADINGSIM_API_PORT.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".tradingsim"))
	v.AddConfigPath("/etc/tradingsim")

	v.SetEnvPrefix("TRADINGSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("TRADINGSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Default returns the built-in configuration without touching files or the
// environment. Used by tests and the CLI quote command.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not unmarshal: %v", err))
	}
	return &cfg
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Broker defaults
	v.SetDefault("broker.seed", 42)
	v.SetDefault("broker.execution_delay_ms", 0)
	v.SetDefault("broker.enforce_market_hours", false)
	v.SetDefault("broker.market_open_hour", 9)
	v.SetDefault("broker.market_open_minute", 30)
	v.SetDefault("broker.market_close_hour", 16)
	v.SetDefault("broker.market_close_minute", 0)
	v.SetDefault("broker.commission_per_trade", 0.0)
	v.SetDefault("broker.fee_rate_bps", 1.0)
	v.SetDefault("broker.base_slippage_bps", 1.0)
	v.SetDefault("broker.size_impact_bps", 2.0)
	v.SetDefault("broker.random_slippage_bps", 2.0)
	v.SetDefault("broker.base_spread_bps", 10.0)
	v.SetDefault("broker.initial_margin_long", 0.5)
	v.SetDefault("broker.initial_margin_short", 1.5)
	v.SetDefault("broker.maintenance_margin_long", 0.25)
	v.SetDefault("broker.maintenance_margin_short", 0.3)
	v.SetDefault("broker.settlement_days_equities", 2)
	v.SetDefault("broker.short_borrow_daily_rate", 0.0003)
	v.SetDefault("broker.force_liquidation_enabled", true)

	// Market data defaults
	v.SetDefault("marketdata.mode", "replay")
	v.SetDefault("marketdata.enable_live", false)
	v.SetDefault("marketdata.dataset_file", "")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Refresh defaults
	v.SetDefault("refresh.interval_sec", 0)
}

// overrideFromEnv reads the well-known plain environment variables that the
// deployment contract promises, independent of the TRADINGSIM_ prefix.
func overrideFromEnv(cfg *Config) {
	if mode := os.Getenv("MARKET_DATA_MODE"); mode != "" {
		cfg.MarketData.Mode = strings.ToLower(mode)
	}
	if os.Getenv("ENABLE_LIVE_MARKET_DATA") == "true" {
		cfg.MarketData.EnableLive = true
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
