// Package engine computes strategy signals, positions, trades and equity
// curves over close price series. Three interchangeable backends share the
// same kernel math and must agree within a small relative tolerance.
package engine

import (
	"math"

	"backtest-service/services/strategies"
)

// signalAt computes the signal for one bar index in isolation, recomputing the
// rolling window from scratch. This is the per-index unit of work of the
// parallel backend and the inner loop of the scalar backend.
//
// Bars inside the warmup window always yield zero.
func signalAt(closes []float64, i int, cfg strategies.KernelConfig) float64 {
	switch cfg.Strategy {
	case strategies.MovingAverageCrossover:
		if i < cfg.LongWindow {
			return 0
		}
		shortMA := windowMean(closes, i, cfg.ShortWindow)
		longMA := windowMean(closes, i, cfg.LongWindow)
		diff := shortMA - longMA
		if diff > cfg.SignalThreshold {
			return 1
		}
		if diff < -cfg.SignalThreshold {
			return -1
		}
		return 0

	case strategies.BollingerBands:
		if i < cfg.Window {
			return 0
		}
		mean := windowMean(closes, i, cfg.Window)
		std := windowStd(closes, i, cfg.Window, mean)
		upper := mean + cfg.NumStd*std
		lower := mean - cfg.NumStd*std
		if closes[i] > upper {
			return -1 // overbought
		}
		if closes[i] < lower {
			return 1 // oversold
		}
		return 0

	case strategies.MomentumStrategy:
		if i < cfg.Window {
			return 0
		}
		past := closes[i-cfg.Window]
		momentum := (closes[i] - past) / past
		if momentum > cfg.Threshold {
			return 1
		}
		if momentum < -cfg.Threshold {
			return -1
		}
		return 0

	case strategies.MeanReversion:
		if i < cfg.Window {
			return 0
		}
		mean := windowMean(closes, i, cfg.Window)
		std := windowStd(closes, i, cfg.Window, mean)
		if std == 0 {
			return 0
		}
		z := (closes[i] - mean) / std
		if z > cfg.ZThreshold {
			return -1 // price above mean
		}
		if z < -cfg.ZThreshold {
			return 1 // price below mean
		}
		return 0
	}

	return 0
}

// windowMean averages the window ending at index i inclusive.
func windowMean(closes []float64, i, window int) float64 {
	sum := 0.0
	for j := i - window + 1; j <= i; j++ {
		sum += closes[j]
	}
	return sum / float64(window)
}

// windowStd is the population standard deviation of the window ending at
// index i inclusive.
func windowStd(closes []float64, i, window int, mean float64) float64 {
	variance := 0.0
	for j := i - window + 1; j <= i; j++ {
		d := closes[j] - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(window))
}
