package broker

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Marcel-Kempel/Trading-Simulator/pkg/models"
	"github.com/Marcel-Kempel/Trading-Simulator/pkg/utils"
)

// Refresh runs the maintenance sweep for one account: due settlements, fee
// drain, short-borrow accrual, and forced liquidation if margin-deficient.
func (b *Broker) Refresh(accountID string) error {
	acc, err := b.account(accountID)
	if err != nil {
		return err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	b.refreshLocked(acc, true)
	return nil
}

// RefreshAll sweeps every account concurrently. Accounts are independent so
// the sweeps never contend on each other's mutex.
func (b *Broker) RefreshAll(ctx context.Context) error {
	b.mu.RLock()
	accounts := make([]*account, 0, len(b.accounts))
	for _, acc := range b.accounts {
		accounts = append(accounts, acc)
	}
	b.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, acc := range accounts {
		acc := acc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			acc.mu.Lock()
			defer acc.mu.Unlock()
			b.refreshLocked(acc, true)
			return nil
		})
	}
	return g.Wait()
}

// refreshLocked runs the sweep with the account lock held. allowLiquidation
// is false when called from inside a liquidation order, so a deficient
// account can never trigger a second, nested liquidation.
func (b *Broker) refreshLocked(acc *account, allowLiquidation bool) {
	now := b.now()
	b.settleDue(&acc.ledger, now)
	b.accrueBorrowFees(acc, now)

	if allowLiquidation && b.cfg.ForceLiquidationEnabled {
		b.liquidateIfDeficient(acc)
	}
}

// settleDue releases every pending settlement whose date has arrived, oldest
// first, then drains accrued fees from settled cash.
func (b *Broker) settleDue(l *ledger, now time.Time) {
	sortPendingFIFO(l.pending)

	remaining := l.pending[:0]
	for _, p := range l.pending {
		if p.SettleAt.After(now) {
			remaining = append(remaining, p)
			continue
		}
		switch p.Direction {
		case models.Debit:
			l.settledCash = utils.Round6(l.settledCash - p.Amount)
			l.reservedCash = utils.Round6(l.reservedCash - p.Amount)
			if l.reservedCash < 0 {
				l.reservedCash = 0
			}
		case models.Credit:
			l.settledCash = utils.Round6(l.settledCash + p.Amount)
			l.unsettledCash = utils.Round6(l.unsettledCash - p.Amount)
		}
	}
	l.pending = remaining

	if l.feesDue != 0 {
		l.settledCash = utils.Round6(l.settledCash - l.feesDue)
		l.feesDue = 0
	}
}

// accrueBorrowFees charges the daily short-borrow rate once per calendar day
// against the current market value of all short positions.
func (b *Broker) accrueBorrowFees(acc *account, now time.Time) {
	today := utils.DateString(now)
	if acc.lastBorrowFeeDate == today {
		return
	}
	last, err := time.Parse("2006-01-02", acc.lastBorrowFeeDate)
	if err != nil {
		acc.lastBorrowFeeDate = today
		return
	}
	days := utils.CalendarDaysBetween(last, now)
	if days <= 0 {
		acc.lastBorrowFeeDate = today
		return
	}

	var shortValue float64
	for sym, pos := range acc.positions {
		if pos.Quantity >= 0 {
			continue
		}
		mid := pos.AvgPrice
		if q, err := b.provider.PeekQuote(sym); err == nil {
			mid = q.Mid
		}
		shortValue += -pos.Quantity * mid
	}
	if shortValue > 0 {
		acc.feesDue = utils.Round6(acc.feesDue + shortValue*b.cfg.ShortBorrowDailyRate*float64(days))
	}
	acc.lastBorrowFeeDate = today
}

// liquidateIfDeficient force-closes the largest position when equity has
// fallen below the maintenance requirement. The close is an internal MARKET
// IOC order that bypasses the margin guard exactly once; a close that does
// not fill is recorded as a rejected order so the deficiency stays visible.
func (b *Broker) liquidateIfDeficient(acc *account) {
	m := b.computeMetrics(&acc.ledger)
	if m.equity >= m.maintenanceRequired || len(acc.positions) == 0 {
		return
	}

	var (
		worstSymbol string
		worstPos    *models.Position
		worstValue  float64
	)
	for sym, pos := range acc.positions {
		mid := pos.AvgPrice
		if q, err := b.provider.PeekQuote(sym); err == nil {
			mid = q.Mid
		}
		value := abs(pos.Quantity * mid)
		if worstPos == nil || value > worstValue {
			worstSymbol, worstPos, worstValue = sym, pos, value
		}
	}
	if worstPos == nil {
		return
	}

	side := models.Sell
	if worstPos.Quantity < 0 {
		side = models.BuyToCover
	}
	req := models.OrderRequest{
		Symbol:   worstSymbol,
		Type:     string(models.Market),
		Side:     string(side),
		TIF:      string(models.IOC),
		Quantity: abs(worstPos.Quantity),
	}

	order, err := b.placeOrderLocked(context.Background(), acc, req, true)
	if err != nil || order.Status != models.OrderFilled {
		now := b.now()
		failed := &models.Order{
			ID:        acc.rng.newID("ORD", now),
			AccountID: acc.id,
			Symbol:    worstSymbol,
			Type:      models.Market,
			Side:      side,
			TIF:       models.IOC,
			Quantity:  req.Quantity,
			Status:    models.OrderRejected,
			Reason:    ReasonLiquidationFailed,
			CreatedAt: now,
		}
		acc.prependOrder(failed)
		b.emit(Event{Type: EventOrderRejected, AccountID: acc.id, Payload: failed})
		return
	}

	b.emit(Event{Type: EventForcedLiquidation, AccountID: acc.id, Payload: order})
}
