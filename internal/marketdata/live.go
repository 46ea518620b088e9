package marketdata

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Marcel-Kempel/Trading-Simulator/pkg/models"
)

// LiveProvider is a placeholder for a real venue feed. It exists to validate
// the provider abstraction: disabled it refuses every call, enabled it still
// has no upstream and errors through a circuit breaker so a future feed
// integration inherits failure isolation for free.
type LiveProvider struct {
	enabled bool
	breaker *gobreaker.CircuitBreaker
}

// NewLiveProvider creates the live placeholder. enabled mirrors the
// ENABLE_LIVE_MARKET_DATA deployment switch.
func NewLiveProvider(enabled bool) *LiveProvider {
	settings := gobreaker.Settings{
		Name:        "live-market-data",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &LiveProvider{
		enabled: enabled,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Name returns "live".
func (p *LiveProvider) Name() string { return "live" }

// GetQuote always fails: disabled providers refuse outright, enabled ones
// fail through the breaker because no upstream feed is wired yet.
func (p *LiveProvider) GetQuote(symbol string) (*models.Quote, error) {
	return p.fetch(symbol)
}

// PeekQuote behaves identically to GetQuote for the placeholder.
func (p *LiveProvider) PeekQuote(symbol string) (*models.Quote, error) {
	return p.fetch(symbol)
}

func (p *LiveProvider) fetch(symbol string) (*models.Quote, error) {
	if !p.enabled {
		return nil, fmt.Errorf("%w: set ENABLE_LIVE_MARKET_DATA=true", ErrLiveDisabled)
	}
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, fmt.Errorf("live market data has no upstream feed configured")
	})
	return nil, fmt.Errorf("live quote for %s: %w", symbol, err)
}
