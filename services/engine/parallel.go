package engine

import (
	"sync"

	"backtest-service/services/strategies"
)

// parallelBackend fans bar indexes out over the device workers. Each index
// recomputes its rolling window in isolation, so no intermediate state is
// shared and chunks can run in any order. Signals land in a pooled scratch
// buffer that is released on every exit path; the sequential position scan
// runs after the fan-in.
type parallelBackend struct {
	device *Device
}

func newParallelBackend(d *Device) *parallelBackend {
	return &parallelBackend{device: d}
}

func (b *parallelBackend) Name() string { return "device" }

func (b *parallelBackend) Run(closes []float64, cfg strategies.KernelConfig) ([]float64, []float64, error) {
	n := len(closes)
	if n == 0 {
		return []float64{}, []float64{}, nil
	}

	scratch := b.device.acquire(n)
	defer b.device.release(scratch)
	buf := *scratch

	workers := b.device.Workers()
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				buf[i] = signalAt(closes, i, cfg)
			}
		}(lo, hi)
	}
	wg.Wait()

	signals := make([]float64, n)
	copy(signals, buf)

	return signals, ResolvePositions(signals), nil
}
