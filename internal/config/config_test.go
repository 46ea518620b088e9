package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Broker.Seed != 42 {
		t.Errorf("seed = %d, want 42", cfg.Broker.Seed)
	}
	if cfg.Broker.FeeRateBps != 1.0 {
		t.Errorf("fee_rate_bps = %v, want 1.0", cfg.Broker.FeeRateBps)
	}
	if cfg.Broker.SettlementDaysEquities != 2 {
		t.Errorf("settlement_days_equities = %d, want 2", cfg.Broker.SettlementDaysEquities)
	}
	if cfg.Broker.InitialMarginShort != 1.5 {
		t.Errorf("initial_margin_short = %v, want 1.5", cfg.Broker.InitialMarginShort)
	}
	if !cfg.Broker.ForceLiquidationEnabled {
		t.Error("force_liquidation_enabled should default to true")
	}
	if cfg.Broker.EnforceMarketHours {
		t.Error("enforce_market_hours should default to false")
	}
	if cfg.MarketData.Mode != "replay" {
		t.Errorf("marketdata mode = %q, want replay", cfg.MarketData.Mode)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("api port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Refresh.IntervalSec != 0 {
		t.Errorf("refresh interval = %d, want 0", cfg.Refresh.IntervalSec)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
broker:
  seed: 7
  fee_rate_bps: 2.5
api:
  port: 9090
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Broker.Seed != 7 {
		t.Errorf("seed = %d, want 7", cfg.Broker.Seed)
	}
	if cfg.Broker.FeeRateBps != 2.5 {
		t.Errorf("fee_rate_bps = %v, want 2.5", cfg.Broker.FeeRateBps)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("api port = %d, want 9090", cfg.API.Port)
	}
	// Untouched keys keep their defaults.
	if cfg.Broker.SettlementDaysEquities != 2 {
		t.Errorf("settlement_days_equities = %d, want default 2", cfg.Broker.SettlementDaysEquities)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRADINGSIM_API_PORT", "9999")
	t.Setenv("MARKET_DATA_MODE", "LIVE")
	t.Setenv("ENABLE_LIVE_MARKET_DATA", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Port != 9999 {
		t.Errorf("api port = %d, want 9999 from env", cfg.API.Port)
	}
	if cfg.MarketData.Mode != "live" {
		t.Errorf("marketdata mode = %q, want live (lower-cased from env)", cfg.MarketData.Mode)
	}
	if !cfg.MarketData.EnableLive {
		t.Error("ENABLE_LIVE_MARKET_DATA=true should enable live data")
	}
}
