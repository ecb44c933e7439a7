// Package metrics computes per-symbol and aggregate performance metrics from
// closed trades and equity curves.
package metrics

import (
	"math"
	"sort"

	"backtest-service/services/engine"
)

const tradingDaysPerYear = 252

// SymbolMetrics summarizes one symbol's trades. AvgGain and AvgLoss are nil
// when the symbol had no winners or no losers; MaxDrawdown and Volatility are
// nil when they cannot be computed.
type SymbolMetrics struct {
	TotalReturn float64  `json:"total_return"`
	WinRate     float64  `json:"win_rate"`
	AvgGain     *float64 `json:"avg_gain,omitempty"`
	AvgLoss     *float64 `json:"avg_loss,omitempty"`
	MaxDrawdown *float64 `json:"max_drawdown,omitempty"`
	Volatility  *float64 `json:"volatility,omitempty"`
}

// Metrics is the aggregate result. The basic fields are always populated;
// pointer fields are computed only when requested and omitted otherwise.
type Metrics struct {
	NumTrades    int     `json:"num_trades"`
	WinRate      float64 `json:"win_rate"`
	TotalReturn  float64 `json:"total_return"`
	AvgTrade     float64 `json:"avg_trade"`
	ProfitFactor float64 `json:"profit_factor"`

	SharpeRatio          *float64 `json:"sharpe_ratio,omitempty"`
	SortinoRatio         *float64 `json:"sortino_ratio,omitempty"`
	MaxDrawdown          *float64 `json:"max_drawdown,omitempty"`
	Volatility           *float64 `json:"volatility,omitempty"`
	MaxConsecutiveWins   *int     `json:"max_consecutive_wins,omitempty"`
	MaxConsecutiveLosses *int     `json:"max_consecutive_losses,omitempty"`
	CAGR                 *float64 `json:"cagr,omitempty"`
	CalmarRatio          *float64 `json:"calmar_ratio,omitempty"`
}

// Input carries everything the calculator needs.
type Input struct {
	Trades         []engine.Trade
	Curves         map[string][]float64 // per-symbol equity curves
	InitialCapital float64
	Requested      []string // optional metric names to compute
}

// Calculate computes aggregate and per-symbol metrics.
//
// Capital is allocated equally across the symbols that traded; per-trade
// returns are pnl over that allocation.
func Calculate(in Input) (Metrics, map[string]SymbolMetrics) {
	bySymbol := make(map[string][]engine.Trade)
	for _, t := range in.Trades {
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}

	symbolMetrics := make(map[string]SymbolMetrics, len(bySymbol))
	var allReturns []float64
	var allDrawdowns []float64

	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	allocation := in.InitialCapital
	if len(bySymbol) > 0 {
		allocation = in.InitialCapital / float64(len(bySymbol))
	}

	for _, symbol := range symbols {
		sm, returns := symbolStats(bySymbol[symbol], in.Curves[symbol], allocation)
		symbolMetrics[symbol] = sm
		allReturns = append(allReturns, returns...)
		if sm.MaxDrawdown != nil {
			allDrawdowns = append(allDrawdowns, *sm.MaxDrawdown)
		}
	}

	overall := overallStats(in.Trades, allReturns, allDrawdowns, in.InitialCapital, in.Requested)
	return overall, symbolMetrics
}

func symbolStats(trades []engine.Trade, curve []float64, allocation float64) (SymbolMetrics, []float64) {
	returns := make([]float64, len(trades))
	totalReturn := 0.0
	wins := 0
	var gains, losses []float64

	for i, t := range trades {
		returns[i] = t.PnL / allocation
		totalReturn += returns[i]
		if t.PnL > 0 {
			wins++
			gains = append(gains, t.PnL)
		} else if t.PnL < 0 {
			losses = append(losses, t.PnL)
		}
	}

	sm := SymbolMetrics{TotalReturn: totalReturn}
	if len(trades) > 0 {
		sm.WinRate = float64(wins) / float64(len(trades))
	}
	if len(gains) > 0 {
		sm.AvgGain = ptr(mean(gains))
	}
	if len(losses) > 0 {
		sm.AvgLoss = ptr(mean(losses))
	}
	if len(curve) > 0 {
		sm.MaxDrawdown = ptr(maxDrawdown(curve))
	}
	if len(returns) > 0 {
		sm.Volatility = ptr(populationStd(returns))
	}

	return sm, returns
}

func overallStats(trades []engine.Trade, returns, drawdowns []float64, initialCapital float64, requested []string) Metrics {
	var m Metrics
	if len(trades) == 0 {
		return m
	}

	wants := make(map[string]bool, len(requested))
	for _, name := range requested {
		wants[name] = true
	}

	totalPnL := 0.0
	grossGain := 0.0
	grossLoss := 0.0
	wins := 0
	for _, t := range trades {
		totalPnL += t.PnL
		if t.PnL > 0 {
			wins++
			grossGain += t.PnL
		} else if t.PnL < 0 {
			grossLoss += -t.PnL
		}
	}

	m.NumTrades = len(trades)
	m.WinRate = float64(wins) / float64(len(trades))
	m.TotalReturn = totalPnL / initialCapital
	m.AvgTrade = totalPnL / float64(len(trades))
	if grossLoss > 0 {
		m.ProfitFactor = grossGain / grossLoss
	}

	if wants["sharpe_ratio"] && len(returns) > 0 {
		m.SharpeRatio = ptr(sharpeRatio(returns))
	}
	if wants["sortino_ratio"] && len(returns) > 0 {
		m.SortinoRatio = ptr(sortinoRatio(returns))
	}
	if wants["max_drawdown"] && len(drawdowns) > 0 {
		maxDD := drawdowns[0]
		for _, dd := range drawdowns[1:] {
			if dd > maxDD {
				maxDD = dd
			}
		}
		m.MaxDrawdown = ptr(maxDD)
	}
	if wants["volatility"] && len(returns) > 0 {
		m.Volatility = ptr(populationStd(returns))
	}
	if wants["max_consecutive_wins"] || wants["max_consecutive_losses"] {
		maxWins, maxLosses := streaks(trades)
		m.MaxConsecutiveWins = ptr(maxWins)
		m.MaxConsecutiveLosses = ptr(maxLosses)
	}
	if wants["cagr"] {
		if cagr, ok := computeCAGR(trades, m.TotalReturn); ok {
			m.CAGR = ptr(cagr)
		}
	}
	if wants["calmar_ratio"] && m.CAGR != nil && m.MaxDrawdown != nil && *m.MaxDrawdown > 0 {
		m.CalmarRatio = ptr(*m.CAGR / *m.MaxDrawdown)
	}

	return m
}

// sharpeRatio annualizes the mean excess return over its sample standard
// deviation. Zero risk-free rate; zero when the deviation is undefined or
// zero.
func sharpeRatio(returns []float64) float64 {
	annualExcess := mean(returns) * tradingDaysPerYear
	annualVol := sampleStd(returns) * math.Sqrt(tradingDaysPerYear)
	if annualVol == 0 {
		return 0
	}
	return annualExcess / annualVol
}

// sortinoRatio penalizes only downside deviation.
func sortinoRatio(returns []float64) float64 {
	annualExcess := mean(returns) * tradingDaysPerYear

	downside := 0.0
	for _, r := range returns {
		if r < 0 {
			downside += r * r
		}
	}
	downsideDev := math.Sqrt(downside/float64(len(returns))) * math.Sqrt(tradingDaysPerYear)
	if downsideDev == 0 {
		return 0
	}
	return annualExcess / downsideDev
}

// computeCAGR derives the annual growth rate over the trade horizon. The
// horizon runs from the earliest entry to the latest exit; a non-positive
// horizon yields no value.
func computeCAGR(trades []engine.Trade, totalReturn float64) (float64, bool) {
	if len(trades) < 2 {
		return 0, false
	}

	first := trades[0].EntryTime
	last := trades[0].ExitTime
	for _, t := range trades[1:] {
		if t.EntryTime.Before(first) {
			first = t.EntryTime
		}
		if t.ExitTime.After(last) {
			last = t.ExitTime
		}
	}

	years := last.Sub(first).Hours() / 24 / 365.25
	if years <= 0 {
		return 0, false
	}
	return math.Pow(1+totalReturn, 1/years) - 1, true
}

// streaks counts the longest runs of winning and non-winning trades in order.
func streaks(trades []engine.Trade) (maxWins, maxLosses int) {
	winRun, lossRun := 0, 0
	for _, t := range trades {
		if t.PnL > 0 {
			winRun++
			lossRun = 0
			if winRun > maxWins {
				maxWins = winRun
			}
		} else {
			lossRun++
			winRun = 0
			if lossRun > maxLosses {
				maxLosses = lossRun
			}
		}
	}
	return maxWins, maxLosses
}

// maxDrawdown is the largest peak-to-trough fall of the curve, as a fraction
// of the running peak.
func maxDrawdown(curve []float64) float64 {
	runningMax := curve[0]
	maxDD := 0.0
	for _, v := range curve {
		if v > runningMax {
			runningMax = v
		}
		if runningMax > 0 {
			if dd := (runningMax - v) / runningMax; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStd(values []float64) float64 {
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

// sampleStd returns 0 for fewer than two samples.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)-1))
}

func ptr[T any](v T) *T { return &v }
