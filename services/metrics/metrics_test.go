package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-service/services/engine"
)

func mkTrade(symbol string, pnl float64, entryDay, exitDay int) engine.Trade {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	return engine.Trade{
		Symbol:    symbol,
		EntryTime: base.AddDate(0, 0, entryDay),
		ExitTime:  base.AddDate(0, 0, exitDay),
		PnL:       pnl,
	}
}

func TestBasicMetricsAlwaysPresent(t *testing.T) {
	trades := []engine.Trade{
		mkTrade("AAPL", 100, 0, 5),
		mkTrade("AAPL", -50, 6, 10),
		mkTrade("AAPL", 200, 11, 15),
		mkTrade("AAPL", -25, 16, 20),
	}

	overall, perSymbol := Calculate(Input{
		Trades:         trades,
		InitialCapital: 10000,
	})

	assert.Equal(t, 4, overall.NumTrades)
	assert.InDelta(t, 0.5, overall.WinRate, 1e-12)
	assert.InDelta(t, 225.0/10000, overall.TotalReturn, 1e-12)
	assert.InDelta(t, 225.0/4, overall.AvgTrade, 1e-12)
	assert.InDelta(t, 300.0/75, overall.ProfitFactor, 1e-12)

	// Optional metrics stay nil unless requested.
	assert.Nil(t, overall.SharpeRatio)
	assert.Nil(t, overall.MaxDrawdown)
	assert.Nil(t, overall.CAGR)

	require.Contains(t, perSymbol, "AAPL")
	sm := perSymbol["AAPL"]
	assert.InDelta(t, 0.5, sm.WinRate, 1e-12)
	require.NotNil(t, sm.AvgGain)
	assert.InDelta(t, 150, *sm.AvgGain, 1e-12)
	require.NotNil(t, sm.AvgLoss)
	assert.InDelta(t, -37.5, *sm.AvgLoss, 1e-12)
}

func TestProfitFactorZeroWithoutLosses(t *testing.T) {
	trades := []engine.Trade{
		mkTrade("AAPL", 100, 0, 5),
		mkTrade("AAPL", 50, 6, 10),
	}
	overall, _ := Calculate(Input{Trades: trades, InitialCapital: 10000})
	assert.Zero(t, overall.ProfitFactor)
}

func TestRequestedMetrics(t *testing.T) {
	trades := []engine.Trade{
		mkTrade("AAPL", 100, 0, 30),
		mkTrade("AAPL", -50, 31, 60),
		mkTrade("AAPL", 80, 61, 400),
	}
	curve := []float64{10000, 10100, 9900, 10130}

	overall, perSymbol := Calculate(Input{
		Trades:         trades,
		Curves:         map[string][]float64{"AAPL": curve},
		InitialCapital: 10000,
		Requested: []string{
			"sharpe_ratio", "sortino_ratio", "max_drawdown", "volatility",
			"max_consecutive_wins", "max_consecutive_losses", "cagr", "calmar_ratio",
		},
	})

	require.NotNil(t, overall.SharpeRatio)
	require.NotNil(t, overall.SortinoRatio)
	require.NotNil(t, overall.Volatility)

	require.NotNil(t, overall.MaxDrawdown)
	assert.InDelta(t, 200.0/10100, *overall.MaxDrawdown, 1e-12)

	require.NotNil(t, overall.MaxConsecutiveWins)
	assert.Equal(t, 1, *overall.MaxConsecutiveWins)
	require.NotNil(t, overall.MaxConsecutiveLosses)
	assert.Equal(t, 1, *overall.MaxConsecutiveLosses)

	// Horizon is 400 days, so CAGR and Calmar are defined.
	require.NotNil(t, overall.CAGR)
	require.NotNil(t, overall.CalmarRatio)
	assert.InDelta(t, *overall.CAGR / *overall.MaxDrawdown, *overall.CalmarRatio, 1e-12)

	sm := perSymbol["AAPL"]
	require.NotNil(t, sm.MaxDrawdown)
	assert.InDelta(t, 200.0/10100, *sm.MaxDrawdown, 1e-12)
}

func TestSharpeZeroForSingleReturn(t *testing.T) {
	trades := []engine.Trade{mkTrade("AAPL", 100, 0, 5)}
	overall, _ := Calculate(Input{
		Trades:         trades,
		InitialCapital: 10000,
		Requested:      []string{"sharpe_ratio"},
	})
	require.NotNil(t, overall.SharpeRatio)
	assert.Zero(t, *overall.SharpeRatio)
}

func TestCAGRSkippedForZeroHorizon(t *testing.T) {
	trades := []engine.Trade{
		mkTrade("AAPL", 100, 0, 0),
		mkTrade("AAPL", 50, 0, 0),
	}
	overall, _ := Calculate(Input{
		Trades:         trades,
		InitialCapital: 10000,
		Requested:      []string{"cagr", "calmar_ratio"},
	})
	assert.Nil(t, overall.CAGR)
	assert.Nil(t, overall.CalmarRatio)
}

func TestStreaks(t *testing.T) {
	trades := []engine.Trade{
		mkTrade("AAPL", 10, 0, 1),
		mkTrade("AAPL", 20, 2, 3),
		mkTrade("AAPL", 30, 4, 5),
		mkTrade("AAPL", -5, 6, 7),
		mkTrade("AAPL", -5, 8, 9),
		mkTrade("AAPL", 15, 10, 11),
	}
	overall, _ := Calculate(Input{
		Trades:         trades,
		InitialCapital: 10000,
		Requested:      []string{"max_consecutive_wins", "max_consecutive_losses"},
	})
	require.NotNil(t, overall.MaxConsecutiveWins)
	assert.Equal(t, 3, *overall.MaxConsecutiveWins)
	require.NotNil(t, overall.MaxConsecutiveLosses)
	assert.Equal(t, 2, *overall.MaxConsecutiveLosses)
}

func TestMultiSymbolAllocation(t *testing.T) {
	trades := []engine.Trade{
		mkTrade("AAPL", 100, 0, 5),
		mkTrade("MSFT", 100, 0, 5),
	}
	_, perSymbol := Calculate(Input{Trades: trades, InitialCapital: 10000})

	// Capital splits across the two traded symbols, so each return is
	// 100/5000.
	assert.InDelta(t, 0.02, perSymbol["AAPL"].TotalReturn, 1e-12)
	assert.InDelta(t, 0.02, perSymbol["MSFT"].TotalReturn, 1e-12)
}

func TestNoTrades(t *testing.T) {
	overall, perSymbol := Calculate(Input{InitialCapital: 10000})
	assert.Zero(t, overall.NumTrades)
	assert.Empty(t, perSymbol)
}
