package models

import "time"

// Position is a signed holding: positive quantity = long, negative = short.
// AvgPrice is the weighted-average entry price and is > 0 whenever the
// quantity is non-zero.
type Position struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avgPrice"`
}

// SettlementDirection tells whether a pending settlement moves cash out of
// or into the settled balance.
type SettlementDirection string

const (
	Debit  SettlementDirection = "DEBIT"
	Credit SettlementDirection = "CREDIT"
)

// PendingSettlement is a T+N cash movement scheduled at trade time.
type PendingSettlement struct {
	Amount    float64             `json:"amount"`
	Direction SettlementDirection `json:"direction"`
	SettleAt  time.Time           `json:"settleAt"`
	Symbol    string              `json:"symbol"`
}

// Balances is the cash breakdown of an account summary.
type Balances struct {
	Settled   float64 `json:"settled"`
	Unsettled float64 `json:"unsettled"`
	Available float64 `json:"available"`
	Reserved  float64 `json:"reserved"`
}

// MarginInfo carries the margin metrics of an account summary.
type MarginInfo struct {
	Long        float64 `json:"long"`
	Short       float64 `json:"short"`
	Initial     float64 `json:"initial"`
	Maintenance float64 `json:"maintenance"`
	Excess      float64 `json:"excess"`
}

// AccountSummary is the read-side view of an account.
type AccountSummary struct {
	ID            string     `json:"id"`
	CreatedAt     time.Time  `json:"createdAt"`
	Balances      Balances   `json:"balances"`
	Equity        float64    `json:"equity"`
	Margin        MarginInfo `json:"margin"`
	FeesDue       float64    `json:"feesDue"`
	OpenPositions int        `json:"openPositions"`
	OpenOrders    int        `json:"openOrders"`
}

// PositionView is a position decorated with live pricing.
type PositionView struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AvgPrice      float64 `json:"avgPrice"`
	Mid           float64 `json:"mid"`
	MarketValue   float64 `json:"marketValue"`
	UnrealizedPnl float64 `json:"unrealizedPnl"`
}
