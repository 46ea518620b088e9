package broker

import (
	"github.com/Marcel-Kempel/Trading-Simulator/pkg/utils"
)

// marginMetrics is the snapshot of an account's margin standing.
type marginMetrics struct {
	longValue           float64
	shortValue          float64
	marketValue         float64
	equity              float64
	initialRequired     float64
	maintenanceRequired float64
	marginExcess        float64
	availableCash       float64
}

// computeMetrics evaluates margin metrics for a ledger against current mid
// prices. Mids come from non-advancing peeks; a position whose symbol has
// vanished from the provider falls back to its average price.
func (b *Broker) computeMetrics(l *ledger) marginMetrics {
	var m marginMetrics
	for sym, pos := range l.positions {
		mid := pos.AvgPrice
		if q, err := b.provider.PeekQuote(sym); err == nil {
			mid = q.Mid
		}
		value := pos.Quantity * mid
		m.marketValue += value
		if pos.Quantity > 0 {
			m.longValue += value
		} else {
			m.shortValue += -value
		}
	}

	m.longValue = utils.Round6(m.longValue)
	m.shortValue = utils.Round6(m.shortValue)
	m.marketValue = utils.Round6(m.marketValue)
	m.equity = utils.Round6(l.settledCash + l.unsettledCash + m.marketValue - l.feesDue)
	m.initialRequired = utils.Round6(b.cfg.InitialMarginLong*m.longValue + b.cfg.InitialMarginShort*m.shortValue)
	m.maintenanceRequired = utils.Round6(b.cfg.MaintenanceMarginLong*m.longValue + b.cfg.MaintenanceMarginShort*m.shortValue)
	m.marginExcess = utils.Round6(m.equity - m.maintenanceRequired)
	m.availableCash = l.availableCash()
	return m
}
