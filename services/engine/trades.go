package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Trade is one closed round trip. Size carries the sign of the position
// (negative for shorts).
type Trade struct {
	Symbol     string    `json:"symbol"`
	EntryTime  time.Time `json:"entry_date"`
	ExitTime   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Size       float64   `json:"position_size"`
	PnL        float64   `json:"pnl"`
}

// ExecutionParams are the trading cost assumptions of a backtest.
type ExecutionParams struct {
	InitialCapital float64
	PositionSize   string // "N%" of initial capital, or a fixed notional
	Commission     float64
	Slippage       float64
}

// ParsePositionSize resolves a position size spec against the initial
// capital. "10%" means ten percent of capital; anything else is parsed as a
// fixed notional amount.
func ParsePositionSize(spec string, initialCapital float64) (float64, error) {
	if strings.HasSuffix(spec, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(spec, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid position size %q: %w", spec, err)
		}
		return initialCapital * pct / 100, nil
	}
	notional, err := strconv.ParseFloat(spec, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position size %q: %w", spec, err)
	}
	return notional, nil
}

// GenerateTrades scans position transitions and synthesizes closed trades.
//
// Entries and exits fill at the close of the transition bar with slippage
// applied against the trade: buys fill higher, sells fill lower. A single
// commission of commission*positionSize is charged per closed trade. Any
// position still open at the end of the series is force-closed on the last
// bar.
func GenerateTrades(symbol string, times []time.Time, closes, positions []float64, positionSize float64, params ExecutionParams) []Trade {
	var trades []Trade

	currentPosition := 0.0
	entryPrice := 0.0
	var entryTime time.Time

	closeTrade := func(i int) {
		exitPrice := closes[i]
		if currentPosition > 0 {
			exitPrice *= 1 - params.Slippage // selling
		} else {
			exitPrice *= 1 + params.Slippage // buying to cover
		}

		shares := positionSize / math.Abs(entryPrice)
		pnl := shares * (exitPrice - entryPrice) * sign(currentPosition)
		pnl -= params.Commission * positionSize

		trades = append(trades, Trade{
			Symbol:     symbol,
			EntryTime:  entryTime,
			ExitTime:   times[i],
			EntryPrice: entryPrice,
			ExitPrice:  exitPrice,
			Size:       positionSize * sign(currentPosition),
			PnL:        pnl,
		})
	}

	for i := 1; i < len(positions); i++ {
		if positions[i] == positions[i-1] {
			continue
		}

		if currentPosition != 0 {
			closeTrade(i)
		}

		newPosition := positions[i]
		if newPosition != 0 {
			entryPrice = closes[i]
			if newPosition > 0 {
				entryPrice *= 1 + params.Slippage // buying
			} else {
				entryPrice *= 1 - params.Slippage // selling short
			}
			entryTime = times[i]
		}
		currentPosition = newPosition
	}

	// Force-close at series end.
	if currentPosition != 0 {
		closeTrade(len(positions) - 1)
	}

	return trades
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
