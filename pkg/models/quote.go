package models

import "time"

// Quote is a point-in-time two-sided price for a symbol.
// Invariant: Bid <= Mid <= Ask and Ask-Bid = Mid * SpreadBps/10000.
type Quote struct {
	Symbol          string    `json:"symbol"`
	Bid             float64   `json:"bid"`
	Ask             float64   `json:"ask"`
	Mid             float64   `json:"mid"`
	SpreadBps       float64   `json:"spreadBps"`
	VolatilityProxy float64   `json:"volatilityProxy"`
	Timestamp       time.Time `json:"timestamp"`
}
