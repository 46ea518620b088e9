package marketdata

import (
	"math"
	"sync"
	"time"

	"github.com/Marcel-Kempel/Trading-Simulator/pkg/models"
	"github.com/Marcel-Kempel/Trading-Simulator/pkg/utils"
)

// volatilityWindow is the number of trailing mid prices (including the
// current one) used for the volatility proxy.
const volatilityWindow = 5

// minVolatilityProxy is the floor applied to the coefficient of variation.
const minVolatilityProxy = 0.001

// ReplayProvider cycles deterministically through per-symbol price series.
// The per-symbol cursor advances on every GetQuote and wraps modulo the
// series length; PeekQuote reads the cursor without moving it.
type ReplayProvider struct {
	mu               sync.Mutex
	dataset          Dataset
	cursors          map[string]int
	defaultSpreadBps float64
	now              func() time.Time
}

// NewReplayProvider creates a replay provider over dataset. defaultSpreadBps
// applies to symbols that don't configure their own spread.
func NewReplayProvider(dataset Dataset, defaultSpreadBps float64) *ReplayProvider {
	return &ReplayProvider{
		dataset:          dataset,
		cursors:          make(map[string]int, len(dataset)),
		defaultSpreadBps: defaultSpreadBps,
		now:              time.Now,
	}
}

// SetClock replaces the provider's time source. Tests use this to produce
// stable quote timestamps.
func (p *ReplayProvider) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Name returns "replay".
func (p *ReplayProvider) Name() string { return "replay" }

// Symbols returns the configured symbols.
func (p *ReplayProvider) Symbols() []string {
	syms := make([]string, 0, len(p.dataset))
	for s := range p.dataset {
		syms = append(syms, s)
	}
	return syms
}

// GetQuote returns the quote at the current cursor and advances it.
func (p *ReplayProvider) GetQuote(symbol string) (*models.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, ok := p.dataset[symbol]
	if !ok {
		return nil, unknownSymbol(symbol)
	}
	idx := p.cursors[symbol]
	p.cursors[symbol] = (idx + 1) % len(cfg.Series)
	return p.quoteAt(symbol, cfg, idx), nil
}

// PeekQuote returns the quote at the current cursor without advancing.
func (p *ReplayProvider) PeekQuote(symbol string) (*models.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, ok := p.dataset[symbol]
	if !ok {
		return nil, unknownSymbol(symbol)
	}
	return p.quoteAt(symbol, cfg, p.cursors[symbol]), nil
}

// quoteAt derives the two-sided quote from the mid at idx. Caller holds the
// lock.
func (p *ReplayProvider) quoteAt(symbol string, cfg SymbolSeries, idx int) *models.Quote {
	mid := cfg.Series[idx]
	spreadBps := cfg.SpreadBps
	if spreadBps <= 0 {
		spreadBps = p.defaultSpreadBps
	}

	half := mid * spreadBps / 20000
	return &models.Quote{
		Symbol:          symbol,
		Bid:             utils.Round6(mid - half),
		Ask:             utils.Round6(mid + half),
		Mid:             utils.Round6(mid),
		SpreadBps:       spreadBps,
		VolatilityProxy: volatilityProxy(cfg.Series, idx),
		Timestamp:       p.now(),
	}
}

// volatilityProxy is the coefficient of variation (stddev/mean) over the
// last up-to-5 series values ending at idx, floored at 0.001. Fewer than
// two points yields the floor.
func volatilityProxy(series []float64, idx int) float64 {
	start := idx - volatilityWindow + 1
	if start < 0 {
		start = 0
	}
	window := series[start : idx+1]
	if len(window) < 2 {
		return minVolatilityProxy
	}

	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))
	if mean == 0 {
		return minVolatilityProxy
	}

	var sq float64
	for _, v := range window {
		d := v - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(len(window)))

	cv := stddev / mean
	if cv < minVolatilityProxy {
		return minVolatilityProxy
	}
	return cv
}
