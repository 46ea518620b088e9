package utils

import "math"

// Round6 rounds a monetary value to 6 decimal places. Every monetary write
// in the broker goes through this so replays produce identical ledgers.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
