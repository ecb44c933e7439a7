package engine

import (
	"math"

	"backtest-service/services/strategies"
)

// vectorizedBackend computes rolling means and standard deviations from
// prefix sums of x and x², then derives signals elementwise. One pass to
// build the prefixes, one pass per output; the position scan stays
// sequential.
//
// The prefix-sum variance can differ from the direct sum in the last few
// bits, which is why backend parity is specified as relative tolerance
// rather than bit equality.
type vectorizedBackend struct{}

func (b *vectorizedBackend) Name() string { return "vectorized" }

func (b *vectorizedBackend) Run(closes []float64, cfg strategies.KernelConfig) ([]float64, []float64, error) {
	n := len(closes)
	signals := make([]float64, n)
	if n == 0 {
		return signals, []float64{}, nil
	}

	switch cfg.Strategy {
	case strategies.MovingAverageCrossover:
		prefix := prefixSums(closes)
		for i := cfg.LongWindow; i < n; i++ {
			shortMA := rollingMean(prefix, i, cfg.ShortWindow)
			longMA := rollingMean(prefix, i, cfg.LongWindow)
			diff := shortMA - longMA
			if diff > cfg.SignalThreshold {
				signals[i] = 1
			} else if diff < -cfg.SignalThreshold {
				signals[i] = -1
			}
		}

	case strategies.BollingerBands:
		prefix := prefixSums(closes)
		prefixSq := prefixSquareSums(closes)
		for i := cfg.Window; i < n; i++ {
			mean := rollingMean(prefix, i, cfg.Window)
			std := rollingStd(prefix, prefixSq, i, cfg.Window)
			if closes[i] > mean+cfg.NumStd*std {
				signals[i] = -1
			} else if closes[i] < mean-cfg.NumStd*std {
				signals[i] = 1
			}
		}

	case strategies.MomentumStrategy:
		for i := cfg.Window; i < n; i++ {
			past := closes[i-cfg.Window]
			momentum := (closes[i] - past) / past
			if momentum > cfg.Threshold {
				signals[i] = 1
			} else if momentum < -cfg.Threshold {
				signals[i] = -1
			}
		}

	case strategies.MeanReversion:
		prefix := prefixSums(closes)
		prefixSq := prefixSquareSums(closes)
		for i := cfg.Window; i < n; i++ {
			mean := rollingMean(prefix, i, cfg.Window)
			std := rollingStd(prefix, prefixSq, i, cfg.Window)
			if std == 0 {
				continue
			}
			z := (closes[i] - mean) / std
			if z > cfg.ZThreshold {
				signals[i] = -1
			} else if z < -cfg.ZThreshold {
				signals[i] = 1
			}
		}
	}

	return signals, ResolvePositions(signals), nil
}

// prefixSums returns p with p[i] = sum(closes[:i]), len(p) = len(closes)+1.
func prefixSums(closes []float64) []float64 {
	p := make([]float64, len(closes)+1)
	for i, v := range closes {
		p[i+1] = p[i] + v
	}
	return p
}

func prefixSquareSums(closes []float64) []float64 {
	p := make([]float64, len(closes)+1)
	for i, v := range closes {
		p[i+1] = p[i] + v*v
	}
	return p
}

// rollingMean averages the window ending at index i inclusive.
func rollingMean(prefix []float64, i, window int) float64 {
	return (prefix[i+1] - prefix[i+1-window]) / float64(window)
}

// rollingStd is the population standard deviation of the window ending at
// index i inclusive. Cancellation can push the variance epsilon-negative, so
// it is clamped at zero.
func rollingStd(prefix, prefixSq []float64, i, window int) float64 {
	w := float64(window)
	mean := (prefix[i+1] - prefix[i+1-window]) / w
	variance := (prefixSq[i+1]-prefixSq[i+1-window])/w - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
