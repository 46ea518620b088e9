// Package broker implements the deterministic brokerage simulation core:
// order validation, trigger and fill evaluation, slippage and fee pricing,
// signed-position bookkeeping, T+N settlement, short-borrow accrual, margin
// metrics, and forced liquidation.
//
// Business failures never surface as Go errors: every rejected order is
// recorded in the account history with a reason. The one out-of-band failure
// is an unknown account ID.
package broker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Marcel-Kempel/Trading-Simulator/internal/config"
	"github.com/Marcel-Kempel/Trading-Simulator/internal/marketdata"
	"github.com/Marcel-Kempel/Trading-Simulator/pkg/models"
	"github.com/Marcel-Kempel/Trading-Simulator/pkg/utils"
)

// Reject reasons recorded on orders. These strings are part of the API
// surface: the HTTP façade returns them verbatim in 400 bodies.
const (
	ReasonUnsupportedType     = "unsupported order type"
	ReasonUnsupportedSide     = "unsupported side"
	ReasonUnsupportedTIF      = "unsupported tif"
	ReasonInvalidQuantity     = "invalid quantity"
	ReasonInvalidLimitPrice   = "invalid limit price"
	ReasonInvalidStopPrice    = "invalid stop price"
	ReasonInvalidStopLimit    = "invalid stop/limit prices"
	ReasonMarketGTC           = "unsupported order type/tif combination"
	ReasonMarketClosed        = "market closed"
	ReasonUnknownSymbol       = "unknown symbol"
	ReasonMarginDeficiency    = "margin deficiency: account below maintenance"
	ReasonInsufficientPower   = "insufficient available buying power / margin"
	ReasonLiquidationFailed   = "margin_call_forced_liquidation_failed"
)

// ErrAccountNotFound is returned for operations on unknown account IDs.
var ErrAccountNotFound = errors.New("account not found")

// Event is an engine notification delivered to the configured sink.
// The sink must not call back into the broker.
type Event struct {
	Type      string      `json:"type"`
	AccountID string      `json:"accountId"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Event types emitted by the engine.
const (
	EventOrderFilled       = "order_filled"
	EventOrderRejected     = "order_rejected"
	EventForcedLiquidation = "forced_liquidation"
)

// Broker is the simulation service. It owns the account registry, the market
// data provider, and the configuration, and serializes all operations on a
// given account behind that account's mutex. Cross-account calls proceed in
// parallel.
type Broker struct {
	cfg      config.BrokerConfig
	provider marketdata.Provider

	now   func() time.Time
	idRNG *seqRand
	sink  func(Event)

	mu       sync.RWMutex
	accounts map[string]*account
}

// New creates a broker over the given provider with the given tunables.
func New(cfg config.BrokerConfig, provider marketdata.Provider) *Broker {
	return &Broker{
		cfg:      cfg,
		provider: provider,
		now:      time.Now,
		idRNG:    newSeqRand(cfg.Seed),
		accounts: make(map[string]*account),
	}
}

// SetClock replaces the broker's time source. Tests inject a fixed clock for
// deterministic settlement and borrow-fee behavior.
func (b *Broker) SetClock(now func() time.Time) { b.now = now }

// SetEventSink installs a callback for engine events. Pass nil to disable.
func (b *Broker) SetEventSink(sink func(Event)) { b.sink = sink }

// Provider returns the market data provider backing the broker.
func (b *Broker) Provider() marketdata.Provider { return b.provider }

func (b *Broker) emit(ev Event) {
	if b.sink != nil {
		b.sink(ev)
	}
}

// CreateAccount opens a new account funded with initialCapital of settled
// cash and returns its ID.
func (b *Broker) CreateAccount(initialCapital float64) (string, error) {
	if initialCapital <= 0 || math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) {
		return "", fmt.Errorf("initial capital must be positive")
	}

	now := b.now()
	id := b.idRNG.newID("ACC", now)
	acc := newAccount(id, deriveRand(b.cfg.Seed, id), initialCapital, now)

	b.mu.Lock()
	b.accounts[id] = acc
	b.mu.Unlock()
	return id, nil
}

// AccountCount returns the number of open accounts.
func (b *Broker) AccountCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.accounts)
}

func (b *Broker) account(id string) (*account, error) {
	b.mu.RLock()
	acc, ok := b.accounts[id]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return acc, nil
}

// PlaceOrder runs the raw order through the execution pipeline. The returned
// order is FILLED, OPEN (parked), or REJECTED with a reason; the only error
// is an unknown account. External callers can never bypass the margin guard.
func (b *Broker) PlaceOrder(ctx context.Context, accountID string, req models.OrderRequest) (*models.Order, error) {
	acc, err := b.account(accountID)
	if err != nil {
		return nil, err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	return b.placeOrderLocked(ctx, acc, req, false)
}

// placeOrderLocked is the execution pipeline. bypassMargin is the
// internal liquidation flag: it skips the maintenance guard and the
// post-trade buying-power check, and suppresses re-entrant liquidation in
// the surrounding refreshes (single-level bypass).
func (b *Broker) placeOrderLocked(ctx context.Context, acc *account, req models.OrderRequest, bypassMargin bool) (*models.Order, error) {
	b.refreshLocked(acc, !bypassMargin)

	order := b.buildOrder(acc, req)

	if reason := validateOrder(order); reason != "" {
		return b.rejectLocked(acc, order, reason), nil
	}

	if b.cfg.EnforceMarketHours && !utils.WithinMarketHours(b.now(),
		b.cfg.MarketOpenHour, b.cfg.MarketOpenMinute,
		b.cfg.MarketCloseHour, b.cfg.MarketCloseMinute) {
		return b.rejectLocked(acc, order, ReasonMarketClosed), nil
	}

	quote, err := b.provider.GetQuote(order.Symbol)
	if err != nil {
		return b.rejectLocked(acc, order, ReasonUnknownSymbol), nil
	}

	if !bypassMargin {
		m := b.computeMetrics(&acc.ledger)
		if m.equity < m.maintenanceRequired {
			return b.rejectLocked(acc, order, ReasonMarginDeficiency), nil
		}
	}

	if parked := b.evaluateTrigger(acc, order, quote.Mid); parked {
		return order, nil
	}

	if err := b.executionDelay(ctx); err != nil {
		return nil, err
	}

	fillQuote, err := b.provider.GetQuote(order.Symbol)
	if err != nil {
		return b.rejectLocked(acc, order, ReasonUnknownSymbol), nil
	}

	if parked := b.checkFillCondition(acc, order, fillQuote); parked {
		return order, nil
	}

	isBuy := order.Side.IsBuySide()
	basePrice := fillQuote.Bid
	if isBuy {
		basePrice = fillQuote.Ask
	}
	fillPrice := b.slippedPrice(acc, basePrice, order.Quantity, fillQuote.VolatilityProxy, isBuy)
	notional := utils.Round6(fillPrice * order.Quantity)
	fees := utils.Round6(b.cfg.CommissionPerTrade + notional*b.cfg.FeeRateBps/10000)

	now := b.now()

	if !bypassMargin {
		sim := acc.cloneLedger()
		if err := sim.applyTrade(order.Symbol, order.Side, order.Quantity, fillPrice, notional, fees, now, b.cfg.SettlementDaysEquities); err != nil {
			return nil, err
		}
		sm := b.computeMetrics(sim)
		if sm.availableCash < 0 || sm.equity < sm.initialRequired {
			return b.rejectLocked(acc, order, ReasonInsufficientPower), nil
		}
	}

	if err := acc.applyTrade(order.Symbol, order.Side, order.Quantity, fillPrice, notional, fees, now, b.cfg.SettlementDaysEquities); err != nil {
		return nil, err
	}

	order.Status = models.OrderFilled
	order.FilledAt = &now
	order.FillPrice = fillPrice
	order.Fees = fees
	acc.prependOrder(order)

	fill := &models.Fill{
		ID:        acc.rng.newID("FIL", now),
		OrderID:   order.ID,
		AccountID: acc.id,
		Symbol:    order.Symbol,
		Side:      order.Side,
		Quantity:  order.Quantity,
		Price:     fillPrice,
		Notional:  notional,
		Fees:      fees,
		Timestamp: now,
	}
	acc.prependFill(fill)

	b.emit(Event{Type: EventOrderFilled, AccountID: acc.id, Payload: order})

	b.refreshLocked(acc, !bypassMargin)
	return order, nil
}

// buildOrder normalizes the raw request into a fresh OPEN order.
func (b *Broker) buildOrder(acc *account, req models.OrderRequest) *models.Order {
	tif := strings.ToUpper(strings.TrimSpace(req.TIF))
	if tif == "" {
		tif = string(models.Day)
	}
	now := b.now()
	return &models.Order{
		ID:         acc.rng.newID("ORD", now),
		AccountID:  acc.id,
		Symbol:     strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Type:       models.OrderType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Side:       models.OrderSide(strings.ToUpper(strings.TrimSpace(req.Side))),
		TIF:        models.TimeInForce(tif),
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
		StopPrice:  req.StopPrice,
		Status:     models.OrderOpen,
		CreatedAt:  now,
	}
}

// validateOrder returns the reject reason for a malformed order, or "".
// Checks run in a fixed sequence so the first failure wins.
func validateOrder(o *models.Order) string {
	switch o.Type {
	case models.Market, models.Limit, models.Stop, models.StopLimit:
	default:
		return ReasonUnsupportedType
	}
	switch o.Side {
	case models.Buy, models.Sell, models.SellShort, models.BuyToCover:
	default:
		return ReasonUnsupportedSide
	}
	switch o.TIF {
	case models.Day, models.GTC, models.IOC:
	default:
		return ReasonUnsupportedTIF
	}
	if o.Quantity <= 0 || math.IsNaN(o.Quantity) || math.IsInf(o.Quantity, 0) {
		return ReasonInvalidQuantity
	}
	if o.Type == models.Limit && o.LimitPrice <= 0 {
		return ReasonInvalidLimitPrice
	}
	if o.Type == models.Stop && o.StopPrice <= 0 {
		return ReasonInvalidStopPrice
	}
	if o.Type == models.StopLimit && (o.LimitPrice <= 0 || o.StopPrice <= 0) {
		return ReasonInvalidStopLimit
	}
	if o.Type == models.Market && o.TIF == models.GTC {
		return ReasonMarketGTC
	}
	return ""
}

// evaluateTrigger resolves the order's trigger state against mid. Stop-style
// orders that have not triggered are parked OPEN and recorded; the return
// value reports whether the order was parked.
func (b *Broker) evaluateTrigger(acc *account, order *models.Order, mid float64) bool {
	switch order.Type {
	case models.Market, models.Limit:
		order.TriggerState = models.TriggerNotRequired
		return false
	}

	triggered := mid <= order.StopPrice
	if order.Side.IsBuySide() {
		triggered = mid >= order.StopPrice
	}
	if !triggered {
		order.TriggerState = models.TriggerPending
		acc.prependOrder(order)
		return true
	}

	if order.Type == models.Stop {
		order.TriggerState = models.TriggeredToMarket
	} else {
		order.TriggerState = models.TriggeredToLimit
	}
	return false
}

// checkFillCondition resolves the effective type against the fill quote and
// parks limit-like orders whose price is not marketable. The return value
// reports whether the order was parked.
func (b *Broker) checkFillCondition(acc *account, order *models.Order, q *models.Quote) bool {
	switch order.TriggerState {
	case models.TriggeredToMarket:
		order.EffectiveType = models.Market
	case models.TriggeredToLimit:
		order.EffectiveType = models.Limit
	default:
		order.EffectiveType = order.Type
	}

	if order.EffectiveType != models.Limit {
		return false
	}

	marketable := q.Bid >= order.LimitPrice
	if order.Side.IsBuySide() {
		marketable = q.Ask <= order.LimitPrice
	}
	if marketable {
		return false
	}
	acc.prependOrder(order)
	return true
}

// slippedPrice applies the slippage model to the base price. Components:
// a flat floor, a size impact that grows with log10 of the quantity, a
// volatility term, and a seeded random draw.
func (b *Broker) slippedPrice(acc *account, basePrice, quantity, volatilityProxy float64, isBuy bool) float64 {
	slippageBps := b.cfg.BaseSlippageBps +
		math.Log10(1+quantity)*b.cfg.SizeImpactBps +
		volatilityProxy*10000*0.05 +
		acc.rng.Float64()*b.cfg.RandomSlippageBps

	adj := slippageBps / 10000
	if isBuy {
		return utils.Round6(basePrice * (1 + adj))
	}
	return utils.Round6(basePrice * (1 - adj))
}

// rejectLocked finalizes an order as REJECTED, records it, and emits the
// rejection event. Rejections are persisted so callers can audit them.
func (b *Broker) rejectLocked(acc *account, order *models.Order, reason string) *models.Order {
	order.Status = models.OrderRejected
	order.Reason = reason
	acc.prependOrder(order)
	b.emit(Event{Type: EventOrderRejected, AccountID: acc.id, Payload: order})
	return order
}

// executionDelay sleeps the configured delay between the trigger quote and
// the fill quote, honoring context cancellation.
func (b *Broker) executionDelay(ctx context.Context) error {
	if b.cfg.ExecutionDelayMs <= 0 {
		return nil
	}
	select {
	case <-time.After(time.Duration(b.cfg.ExecutionDelayMs) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sortPendingFIFO orders settlement entries by settleAt, stable.
func sortPendingFIFO(pending []models.PendingSettlement) {
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].SettleAt.Before(pending[j].SettleAt)
	})
}
