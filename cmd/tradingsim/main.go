// Trading Simulator — deterministic brokerage simulation engine
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Marcel-Kempel/Trading-Simulator/api"
	"github.com/Marcel-Kempel/Trading-Simulator/internal/broker"
	"github.com/Marcel-Kempel/Trading-Simulator/internal/config"
	"github.com/Marcel-Kempel/Trading-Simulator/internal/marketdata"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tradingsim",
	Short: "Trading Simulator — deterministic brokerage simulation",
	Long: `Trading Simulator
A deterministic brokerage simulation: replayable quote streams, market,
limit, stop, and stop-limit orders with slippage and fees, signed
positions, T+N settlement, short-borrow accrual, margin metrics, and
forced liquidation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(statusCmd)
}

// buildProvider assembles the market data provider from configuration.
func buildProvider() (marketdata.Provider, error) {
	switch cfg.MarketData.Mode {
	case "", "replay":
		dataset := marketdata.DefaultDataset()
		if cfg.MarketData.DatasetFile != "" {
			loaded, err := marketdata.LoadDataset(cfg.MarketData.DatasetFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load dataset: %w", err)
			}
			dataset = loaded
		}
		return marketdata.NewReplayProvider(dataset, cfg.Broker.BaseSpreadBps), nil
	case "live":
		return marketdata.NewLiveProvider(cfg.MarketData.EnableLive), nil
	default:
		return nil, fmt.Errorf("unknown market data mode: %s", cfg.MarketData.Mode)
	}
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tradingsim %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := buildProvider()
		if err != nil {
			return err
		}

		b := broker.New(cfg.Broker, provider)
		srv := api.NewServer(cfg, b)

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("Starting trading simulator API on %s (market data: %s)\n", addr, provider.Name())
		return srv.ListenAndServe(addr)
	},
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [symbol]",
	Short: "Print the next replay quote for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := buildProvider()
		if err != nil {
			return err
		}

		peek, _ := cmd.Flags().GetBool("peek")
		read := provider.GetQuote
		if peek {
			read = provider.PeekQuote
		}

		q, err := read(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", q.Symbol)
		fmt.Printf("  bid:    %.6f\n", q.Bid)
		fmt.Printf("  ask:    %.6f\n", q.Ask)
		fmt.Printf("  mid:    %.6f\n", q.Mid)
		fmt.Printf("  spread: %.2f bps\n", q.SpreadBps)
		fmt.Printf("  vol:    %.6f\n", q.VolatilityProxy)
		return nil
	},
}

func init() {
	quoteCmd.Flags().Bool("peek", false, "observe without advancing the replay cursor")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  Trading Simulator — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()
		fmt.Println("  Configuration:")
		fmt.Printf("    Market Data:  %s (live enabled: %v)\n", cfg.MarketData.Mode, cfg.MarketData.EnableLive)
		fmt.Printf("    Seed:         %d\n", cfg.Broker.Seed)
		fmt.Printf("    Fee Rate:     %.2f bps + %.2f per trade\n", cfg.Broker.FeeRateBps, cfg.Broker.CommissionPerTrade)
		fmt.Printf("    Settlement:   T+%d\n", cfg.Broker.SettlementDaysEquities)
		fmt.Printf("    Liquidation:  %v\n", cfg.Broker.ForceLiquidationEnabled)
		fmt.Printf("    API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
