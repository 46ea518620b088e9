package marketdata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SymbolSeries is one symbol's replay configuration: a series of mid prices
// and an optional per-symbol spread. A zero SpreadBps falls back to the
// provider's default spread.
type SymbolSeries struct {
	Series    []float64 `yaml:"series"    json:"series"`
	SpreadBps float64   `yaml:"spread_bps" json:"spreadBps,omitempty"`
}

// Dataset maps symbols to their replay series. Loaded once at startup.
type Dataset map[string]SymbolSeries

// LoadDataset reads a YAML replay dataset from path.
func LoadDataset(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return ds, nil
}

// Validate checks that every symbol has a non-empty, positive price series.
func (ds Dataset) Validate() error {
	if len(ds) == 0 {
		return fmt.Errorf("dataset has no symbols")
	}
	for sym, cfg := range ds {
		if len(cfg.Series) == 0 {
			return fmt.Errorf("symbol %s has an empty series", sym)
		}
		for i, p := range cfg.Series {
			if p <= 0 {
				return fmt.Errorf("symbol %s has non-positive price %v at index %d", sym, p, i)
			}
		}
		if cfg.SpreadBps < 0 {
			return fmt.Errorf("symbol %s has negative spread", sym)
		}
	}
	return nil
}

// DefaultDataset returns the dataset shipped with the simulator. It is used
// when no dataset file is configured, and by the end-to-end tests.
func DefaultDataset() Dataset {
	return Dataset{
		"AAPL": {
			Series: []float64{
				189.20, 189.85, 190.40, 189.95, 190.75, 191.30, 190.90, 191.85,
				192.40, 191.95, 192.80, 193.35, 192.70, 193.60, 194.15, 193.55,
				194.40, 195.05, 194.50, 195.30,
			},
			SpreadBps: 4,
		},
		"MSFT": {
			Series: []float64{
				415.10, 416.25, 415.70, 417.00, 418.20, 417.55, 418.90, 419.60,
				418.85, 420.10, 421.35, 420.60, 421.80, 422.50, 421.95, 423.20,
			},
			SpreadBps: 3,
		},
		"TSLA": {
			Series: []float64{
				242.50, 240.80, 244.10, 241.60, 245.90, 243.20, 247.40, 244.70,
				248.80, 246.10, 250.30, 247.50, 251.70, 249.00, 253.20, 250.40,
			},
			SpreadBps: 8,
		},
		"NVDA": {
			Series: []float64{
				875.40, 881.20, 872.90, 884.60, 879.10, 888.30, 882.50, 891.80,
				886.20, 895.40, 889.70, 898.90,
			},
			SpreadBps: 6,
		},
		"SPY": {
			Series: []float64{
				512.30, 512.85, 513.40, 513.10, 513.95, 514.50, 514.20, 515.05,
				515.60, 515.25, 516.10, 516.70,
			},
			SpreadBps: 2,
		},
	}
}
