package marketdata

import (
	"errors"
	"testing"
	"time"
)

func testDataset() Dataset {
	return Dataset{
		"AAPL": {Series: []float64{100, 101, 102}, SpreadBps: 4},
		"FLAT": {Series: []float64{50, 50, 50, 50, 50}},
	}
}

func newTestProvider() *ReplayProvider {
	p := NewReplayProvider(testDataset(), 10)
	p.SetClock(func() time.Time {
		return time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	})
	return p
}

func TestReplayProvider_CursorAdvancesAndWraps(t *testing.T) {
	p := newTestProvider()

	wantMids := []float64{100, 101, 102, 100, 101}
	for i, want := range wantMids {
		q, err := p.GetQuote("AAPL")
		if err != nil {
			t.Fatalf("GetQuote #%d: %v", i, err)
		}
		if q.Mid != want {
			t.Errorf("quote #%d: mid = %v, want %v", i, q.Mid, want)
		}
	}
}

func TestReplayProvider_PeekDoesNotAdvance(t *testing.T) {
	p := newTestProvider()

	q1, err := p.PeekQuote("AAPL")
	if err != nil {
		t.Fatalf("PeekQuote: %v", err)
	}
	q2, _ := p.PeekQuote("AAPL")
	if q1.Mid != q2.Mid {
		t.Errorf("peek advanced the cursor: %v then %v", q1.Mid, q2.Mid)
	}

	q3, _ := p.GetQuote("AAPL")
	if q3.Mid != q1.Mid {
		t.Errorf("get after peek should serve the same index: %v vs %v", q3.Mid, q1.Mid)
	}
	q4, _ := p.PeekQuote("AAPL")
	if q4.Mid != 101 {
		t.Errorf("peek after get should see the next index: got %v", q4.Mid)
	}
}

func TestReplayProvider_SpreadAroundMid(t *testing.T) {
	p := newTestProvider()

	q, err := p.PeekQuote("AAPL")
	if err != nil {
		t.Fatalf("PeekQuote: %v", err)
	}
	if !(q.Bid < q.Mid && q.Mid < q.Ask) {
		t.Errorf("expected bid < mid < ask, got %v / %v / %v", q.Bid, q.Mid, q.Ask)
	}
	// spread_bps 4 on mid 100: half spread is 0.02 on each side
	if q.Bid != 99.98 || q.Ask != 100.02 {
		t.Errorf("expected 99.98/100.02, got %v/%v", q.Bid, q.Ask)
	}

	// FLAT has no per-symbol spread; the provider default of 10 bps applies.
	qf, err := p.PeekQuote("FLAT")
	if err != nil {
		t.Fatalf("PeekQuote: %v", err)
	}
	if qf.SpreadBps != 10 {
		t.Errorf("expected default spread 10, got %v", qf.SpreadBps)
	}
}

func TestReplayProvider_VolatilityProxyFloor(t *testing.T) {
	p := newTestProvider()

	// First index has a one-point window.
	q, _ := p.PeekQuote("AAPL")
	if q.VolatilityProxy != 0.001 {
		t.Errorf("single-point window: expected floor 0.001, got %v", q.VolatilityProxy)
	}

	// A constant series has zero variance at every index.
	for i := 0; i < 5; i++ {
		q, _ := p.GetQuote("FLAT")
		if q.VolatilityProxy != 0.001 {
			t.Errorf("flat series index %d: expected floor 0.001, got %v", i, q.VolatilityProxy)
		}
	}

	// A moving series rises above the floor once the window has two points.
	p.GetQuote("AAPL")
	q2, _ := p.PeekQuote("AAPL")
	if q2.VolatilityProxy <= 0.001 {
		t.Errorf("expected volatility above floor, got %v", q2.VolatilityProxy)
	}
}

func TestReplayProvider_UnknownSymbol(t *testing.T) {
	p := newTestProvider()

	if _, err := p.GetQuote("ZZZZ"); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("GetQuote: expected ErrUnknownSymbol, got %v", err)
	}
	if _, err := p.PeekQuote("ZZZZ"); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("PeekQuote: expected ErrUnknownSymbol, got %v", err)
	}
}

func TestDefaultDataset_Valid(t *testing.T) {
	ds := DefaultDataset()
	if err := ds.Validate(); err != nil {
		t.Fatalf("default dataset invalid: %v", err)
	}
	for _, sym := range []string{"AAPL", "MSFT", "TSLA", "NVDA", "SPY"} {
		if _, ok := ds[sym]; !ok {
			t.Errorf("default dataset missing %s", sym)
		}
	}
}

func TestDataset_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ds      Dataset
		wantErr bool
	}{
		{"valid", Dataset{"A": {Series: []float64{1, 2}}}, false},
		{"empty dataset", Dataset{}, true},
		{"empty series", Dataset{"A": {}}, true},
		{"non-positive price", Dataset{"A": {Series: []float64{1, 0}}}, true},
		{"negative spread", Dataset{"A": {Series: []float64{1}, SpreadBps: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLiveProvider_Disabled(t *testing.T) {
	p := NewLiveProvider(false)
	if _, err := p.GetQuote("AAPL"); !errors.Is(err, ErrLiveDisabled) {
		t.Errorf("expected ErrLiveDisabled, got %v", err)
	}
}

func TestLiveProvider_EnabledHasNoUpstream(t *testing.T) {
	p := NewLiveProvider(true)
	if _, err := p.GetQuote("AAPL"); err == nil {
		t.Error("expected an error from the placeholder feed")
	} else if errors.Is(err, ErrLiveDisabled) {
		t.Errorf("enabled provider should not report disabled: %v", err)
	}
}
