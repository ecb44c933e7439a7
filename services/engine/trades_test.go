package engine

import (
	"math"
	"testing"
	"time"
)

func barTimes(n int) []time.Time {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = base.AddDate(0, 0, i)
	}
	return times
}

func TestGenerateTradesLongRoundTrip(t *testing.T) {
	closes := []float64{100, 100, 110, 110, 120}
	positions := []float64{0, 1, 1, 1, 0}
	params := ExecutionParams{InitialCapital: 10000, Commission: 0.001, Slippage: 0.0005}
	positionSize := 1000.0

	trades := GenerateTrades("AAPL", barTimes(5), closes, positions, positionSize, params)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	entry := 100 * 1.0005  // buy fills higher
	exit := 120 * 0.9995   // sell fills lower
	shares := positionSize / entry
	wantPnL := shares*(exit-entry) - 0.001*positionSize

	if math.Abs(tr.PnL-wantPnL) > 1e-9 {
		t.Fatalf("pnl = %f, want %f", tr.PnL, wantPnL)
	}
	if tr.EntryPrice != entry || tr.ExitPrice != exit {
		t.Fatalf("prices = %f/%f, want %f/%f", tr.EntryPrice, tr.ExitPrice, entry, exit)
	}
	if tr.Size != positionSize {
		t.Fatalf("size = %f, want %f", tr.Size, positionSize)
	}
}

func TestGenerateTradesShortSlippageAgainstTrade(t *testing.T) {
	closes := []float64{100, 100, 90, 80}
	positions := []float64{0, -1, -1, 0}
	params := ExecutionParams{Slippage: 0.001}
	positionSize := 1000.0

	trades := GenerateTrades("TSLA", barTimes(4), closes, positions, positionSize, params)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	entry := 100 * 0.999 // short entry fills lower
	exit := 80 * 1.001   // cover fills higher
	shares := positionSize / entry
	wantPnL := shares * (exit - entry) * -1

	if math.Abs(tr.PnL-wantPnL) > 1e-9 {
		t.Fatalf("pnl = %f, want %f", tr.PnL, wantPnL)
	}
	if tr.Size != -positionSize {
		t.Fatalf("size = %f, want %f", tr.Size, -positionSize)
	}
	if tr.PnL <= 0 {
		t.Fatal("profitable short should have positive pnl")
	}
}

func TestGenerateTradesForceCloseAtEnd(t *testing.T) {
	closes := []float64{100, 100, 105, 110}
	positions := []float64{0, 1, 1, 1}

	trades := GenerateTrades("AAPL", barTimes(4), closes, positions, 1000, ExecutionParams{})
	if len(trades) != 1 {
		t.Fatalf("open position must be force-closed, got %d trades", len(trades))
	}
	if !trades[0].ExitTime.Equal(barTimes(4)[3]) {
		t.Fatalf("force-close should exit on last bar, got %s", trades[0].ExitTime)
	}
	if trades[0].ExitPrice != 110 {
		t.Fatalf("force-close exit = %f, want 110", trades[0].ExitPrice)
	}
}

func TestGenerateTradesFlipCountsTwoTrades(t *testing.T) {
	closes := []float64{100, 100, 110, 110, 90}
	positions := []float64{0, 1, -1, -1, 0}

	trades := GenerateTrades("AAPL", barTimes(5), closes, positions, 1000, ExecutionParams{})
	if len(trades) != 2 {
		t.Fatalf("long-to-short flip should produce 2 trades, got %d", len(trades))
	}
	if trades[0].Size <= 0 || trades[1].Size >= 0 {
		t.Fatalf("expected long then short, got sizes %f, %f", trades[0].Size, trades[1].Size)
	}
	// Both legs transition at bar 2 / bar 4.
	if !trades[0].ExitTime.Equal(trades[1].EntryTime) {
		t.Fatal("flip should close and reopen on the same bar")
	}
}

func TestGenerateTradesNoChanges(t *testing.T) {
	closes := []float64{100, 101, 102}
	positions := []float64{0, 0, 0}
	if trades := GenerateTrades("AAPL", barTimes(3), closes, positions, 1000, ExecutionParams{}); len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
}

func TestParsePositionSize(t *testing.T) {
	cases := []struct {
		spec string
		want float64
	}{
		{"10%", 1000},
		{"2.5%", 250},
		{"500", 500},
	}
	for _, tc := range cases {
		got, err := ParsePositionSize(tc.spec, 10000)
		if err != nil {
			t.Fatalf("%s: %v", tc.spec, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %f want %f", tc.spec, got, tc.want)
		}
	}

	if _, err := ParsePositionSize("lots", 10000); err == nil {
		t.Fatal("expected error for malformed spec")
	}
}
