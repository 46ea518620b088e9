package broker

import (
	"strings"

	"github.com/Marcel-Kempel/Trading-Simulator/pkg/models"
	"github.com/Marcel-Kempel/Trading-Simulator/pkg/utils"
)

// GetAccount returns the account summary after a maintenance sweep, so
// balances always reflect settlements and fees due as of now.
func (b *Broker) GetAccount(accountID string) (*models.AccountSummary, error) {
	acc, err := b.account(accountID)
	if err != nil {
		return nil, err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	b.refreshLocked(acc, true)

	m := b.computeMetrics(&acc.ledger)

	openOrders := 0
	for _, o := range acc.orders {
		if o.Status == models.OrderOpen {
			openOrders++
		}
	}

	return &models.AccountSummary{
		ID:        acc.id,
		CreatedAt: acc.createdAt,
		Balances: models.Balances{
			Settled:   acc.settledCash,
			Unsettled: acc.unsettledCash,
			Available: m.availableCash,
			Reserved:  acc.reservedCash,
		},
		Equity: m.equity,
		Margin: models.MarginInfo{
			Long:        m.longValue,
			Short:       m.shortValue,
			Initial:     m.initialRequired,
			Maintenance: m.maintenanceRequired,
			Excess:      m.marginExcess,
		},
		FeesDue:       acc.feesDue,
		OpenPositions: len(acc.positions),
		OpenOrders:    openOrders,
	}, nil
}

// GetPositions returns all open positions priced at the current mid.
// Unrealized PnL is signed from the holder's perspective for both longs
// and shorts.
func (b *Broker) GetPositions(accountID string) ([]models.PositionView, error) {
	acc, err := b.account(accountID)
	if err != nil {
		return nil, err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	b.refreshLocked(acc, true)

	views := make([]models.PositionView, 0, len(acc.positions))
	for sym, pos := range acc.positions {
		mid := pos.AvgPrice
		if q, qerr := b.provider.PeekQuote(sym); qerr == nil {
			mid = q.Mid
		}
		pnl := (mid - pos.AvgPrice) * pos.Quantity
		views = append(views, models.PositionView{
			Symbol:        sym,
			Quantity:      pos.Quantity,
			AvgPrice:      pos.AvgPrice,
			Mid:           mid,
			MarketValue:   utils.Round6(pos.Quantity * mid),
			UnrealizedPnl: utils.Round6(pnl),
		})
	}
	return views, nil
}

// GetOrders returns the account's order history newest first, optionally
// filtered by status (case-insensitive). Entries are copies.
func (b *Broker) GetOrders(accountID, status string) ([]models.Order, error) {
	acc, err := b.account(accountID)
	if err != nil {
		return nil, err
	}

	want := models.OrderStatus(strings.ToUpper(strings.TrimSpace(status)))

	acc.mu.Lock()
	defer acc.mu.Unlock()
	b.refreshLocked(acc, true)

	orders := make([]models.Order, 0, len(acc.orders))
	for _, o := range acc.orders {
		if want != "" && o.Status != want {
			continue
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

// GetFills returns the account's fill history newest first. Entries are
// copies.
func (b *Broker) GetFills(accountID string) ([]models.Fill, error) {
	acc, err := b.account(accountID)
	if err != nil {
		return nil, err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	b.refreshLocked(acc, true)

	fills := make([]models.Fill, 0, len(acc.fills))
	for _, f := range acc.fills {
		fills = append(fills, *f)
	}
	return fills, nil
}
