// Package marketdata provides the pluggable quote source for the broker.
//
// A Provider exposes two operations: GetQuote advances the provider's
// internal cursor for the symbol, PeekQuote reads without advancing. The
// replay variant cycles through canned per-symbol price series; the live
// variant is a guarded placeholder.
package marketdata

import (
	"errors"
	"fmt"

	"github.com/Marcel-Kempel/Trading-Simulator/pkg/models"
)

// ErrUnknownSymbol is returned when a symbol is not configured on the
// provider. Callers match with errors.Is.
var ErrUnknownSymbol = errors.New("unknown symbol")

// ErrLiveDisabled is returned by the live provider unless it has been
// explicitly enabled.
var ErrLiveDisabled = errors.New("live market data is disabled")

// Provider is the market data capability consumed by the execution engine.
type Provider interface {
	// Name returns the provider mode ("replay", "live").
	Name() string

	// GetQuote returns the current quote for symbol and advances the
	// provider's cursor for that symbol.
	GetQuote(symbol string) (*models.Quote, error)

	// PeekQuote returns the current quote for symbol without advancing.
	PeekQuote(symbol string) (*models.Quote, error)
}

func unknownSymbol(symbol string) error {
	return fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
}
