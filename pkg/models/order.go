package models

import "time"

// OrderType represents the type of order.
type OrderType string

const (
	Market    OrderType = "MARKET"
	Limit     OrderType = "LIMIT"
	Stop      OrderType = "STOP"
	StopLimit OrderType = "STOP_LIMIT"
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	Buy        OrderSide = "BUY"
	Sell       OrderSide = "SELL"
	SellShort  OrderSide = "SELL_SHORT"
	BuyToCover OrderSide = "BUY_TO_COVER"
)

// IsBuySide reports whether the side increases exposure paid with cash
// (plain buys and short covers).
func (s OrderSide) IsBuySide() bool {
	return s == Buy || s == BuyToCover
}

// TimeInForce represents how long an order remains working.
type TimeInForce string

const (
	Day TimeInForce = "DAY"
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
)

// OrderStatus represents the current state of an order.
type OrderStatus string

const (
	OrderOpen     OrderStatus = "OPEN"
	OrderFilled   OrderStatus = "FILLED"
	OrderRejected OrderStatus = "REJECTED"
	OrderCanceled OrderStatus = "CANCELED"
)

// TriggerState records how a stop-style order's trigger was evaluated.
type TriggerState string

const (
	TriggerNotRequired TriggerState = "NOT_REQUIRED"
	TriggerPending     TriggerState = "PENDING"
	TriggeredToMarket  TriggerState = "TRIGGERED_TO_MARKET"
	TriggeredToLimit   TriggerState = "TRIGGERED_TO_LIMIT"
)

// OrderRequest is the raw order input as submitted by a caller. Strings are
// normalized (upper-cased) and optional prices default to zero; the engine
// treats zero optional prices as absent.
type OrderRequest struct {
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Side       string  `json:"side"`
	TIF        string  `json:"tif,omitempty"`
	Quantity   float64 `json:"quantity"`
	LimitPrice float64 `json:"limitPrice,omitempty"`
	StopPrice  float64 `json:"stopPrice,omitempty"`
}

// Order is a placed order within an account's history.
type Order struct {
	ID            string       `json:"id"`
	AccountID     string       `json:"accountId"`
	Symbol        string       `json:"symbol"`
	Type          OrderType    `json:"type"`
	Side          OrderSide    `json:"side"`
	TIF           TimeInForce  `json:"tif"`
	Quantity      float64      `json:"quantity"`
	LimitPrice    float64      `json:"limitPrice,omitempty"`
	StopPrice     float64      `json:"stopPrice,omitempty"`
	Status        OrderStatus  `json:"status"`
	Reason        string       `json:"reason,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	FilledAt      *time.Time   `json:"filledAt,omitempty"`
	FillPrice     float64      `json:"fillPrice,omitempty"`
	Fees          float64      `json:"fees"`
	TriggerState  TriggerState `json:"triggerState,omitempty"`
	EffectiveType OrderType    `json:"effectiveType,omitempty"`
}

// Fill is the execution record produced by a filled order.
type Fill struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	AccountID string    `json:"accountId"`
	Symbol    string    `json:"symbol"`
	Side      OrderSide `json:"side"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Notional  float64   `json:"notional"`
	Fees      float64   `json:"fees"`
	Timestamp time.Time `json:"timestamp"`
}
