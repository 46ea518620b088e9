package broker

import (
	"fmt"
	"sync"
	"time"

	"github.com/Marcel-Kempel/Trading-Simulator/pkg/models"
	"github.com/Marcel-Kempel/Trading-Simulator/pkg/utils"
)

// ledger is the mutable money-and-positions core of an account. It is split
// out from account so the post-trade simulation can deep-copy and mutate it
// without touching order/fill history.
type ledger struct {
	settledCash   float64
	unsettledCash float64
	reservedCash  float64
	feesDue       float64
	positions     map[string]*models.Position
	pending       []models.PendingSettlement
}

// account is the full in-memory state for one brokerage account. All access
// goes through mu; the engine serializes every operation per account.
type account struct {
	mu  sync.Mutex
	rng *seqRand

	id        string
	createdAt time.Time

	ledger

	orders            []*models.Order // newest first
	fills             []*models.Fill  // newest first
	lastBorrowFeeDate string          // ISO date of the last borrow-fee accrual
}

func newAccount(id string, rng *seqRand, initialCapital float64, now time.Time) *account {
	return &account{
		rng:       rng,
		id:        id,
		createdAt: now,
		ledger: ledger{
			settledCash: utils.Round6(initialCapital),
			positions:   make(map[string]*models.Position),
		},
		lastBorrowFeeDate: utils.DateString(now),
	}
}

// cloneLedger deep-copies the ledger for the post-trade simulation.
func (l *ledger) cloneLedger() *ledger {
	c := &ledger{
		settledCash:   l.settledCash,
		unsettledCash: l.unsettledCash,
		reservedCash:  l.reservedCash,
		feesDue:       l.feesDue,
		positions:     make(map[string]*models.Position, len(l.positions)),
		pending:       make([]models.PendingSettlement, len(l.pending)),
	}
	for sym, pos := range l.positions {
		p := *pos
		c.positions[sym] = &p
	}
	copy(c.pending, l.pending)
	return c
}

// availableCash is settled cash minus reservations and accrued fees.
func (l *ledger) availableCash() float64 {
	return utils.Round6(l.settledCash - l.reservedCash - l.feesDue)
}

// applyPosition folds a signed quantity delta at price p into the symbol's
// position. Same-sign additions preserve weighted-average cost, reducing
// trades keep the average, and a sign flip reseeds the average at the fill
// price for the residual.
func (l *ledger) applyPosition(symbol string, delta, price float64) error {
	pos, ok := l.positions[symbol]
	if !ok {
		pos = &models.Position{Symbol: symbol}
		l.positions[symbol] = pos
	}

	q := pos.Quantity
	newQty := q + delta

	switch {
	case q == 0 || sameSign(q, delta):
		denom := abs(newQty)
		if denom <= 0 {
			return fmt.Errorf("position %s: non-positive weighted denominator %v", symbol, denom)
		}
		pos.AvgPrice = utils.Round6((abs(q)*pos.AvgPrice + abs(delta)*price) / denom)
		pos.Quantity = newQty
	case newQty == 0:
		delete(l.positions, symbol)
	case sameSign(q, newQty):
		// Reducing trade: quantity shrinks toward zero, average stays.
		pos.Quantity = newQty
	default:
		// Sign flip: the residual opens at the fill price.
		pos.Quantity = newQty
		pos.AvgPrice = utils.Round6(price)
	}
	return nil
}

// applyTrade applies a fill's position and cash effects as one logical step.
// Buys reserve settled cash against a DEBIT settlement; sells accrue
// unsettled cash against a CREDIT settlement. Fees accrue either way.
func (l *ledger) applyTrade(symbol string, side models.OrderSide, quantity, price, notional, fees float64, now time.Time, settlementDays int) error {
	delta := quantity
	if !side.IsBuySide() {
		delta = -quantity
	}
	if err := l.applyPosition(symbol, delta, price); err != nil {
		return err
	}

	settleAt := utils.AddBusinessDays(now, settlementDays)
	if side.IsBuySide() {
		l.reservedCash = utils.Round6(l.reservedCash + notional)
		l.pending = append(l.pending, models.PendingSettlement{
			Amount:    notional,
			Direction: models.Debit,
			SettleAt:  settleAt,
			Symbol:    symbol,
		})
	} else {
		l.unsettledCash = utils.Round6(l.unsettledCash + notional)
		l.pending = append(l.pending, models.PendingSettlement{
			Amount:    notional,
			Direction: models.Credit,
			SettleAt:  settleAt,
			Symbol:    symbol,
		})
	}
	l.feesDue = utils.Round6(l.feesDue + fees)
	return nil
}

// prependOrder records an order newest-first.
func (a *account) prependOrder(o *models.Order) {
	a.orders = append([]*models.Order{o}, a.orders...)
}

// prependFill records a fill newest-first.
func (a *account) prependFill(f *models.Fill) {
	a.fills = append([]*models.Fill{f}, a.fills...)
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
