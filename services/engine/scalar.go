package engine

import "backtest-service/services/strategies"

// scalarBackend is the reference implementation: an explicit per-bar loop
// over the shared kernel math. Slowest, simplest, last in the fallback chain.
type scalarBackend struct{}

func (b *scalarBackend) Name() string { return "scalar" }

func (b *scalarBackend) Run(closes []float64, cfg strategies.KernelConfig) ([]float64, []float64, error) {
	signals := make([]float64, len(closes))
	for i := range closes {
		signals[i] = signalAt(closes, i, cfg)
	}
	return signals, ResolvePositions(signals), nil
}
