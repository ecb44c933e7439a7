package engine

import (
	"go.uber.org/zap"

	"backtest-service/services/strategies"
)

// Backend computes signal and position series for a close price series.
// All backends implement the same kernel math; results must agree pairwise
// within relative tolerance 1e-4.
type Backend interface {
	Name() string
	Run(closes []float64, cfg strategies.KernelConfig) (signals, positions []float64, err error)
}

// Engine selects a backend chain at construction and runs kernels through it.
// If the compute device fails to initialize the engine runs on CPU backends
// for its whole lifetime; the demotion is logged once and is not an error.
type Engine struct {
	chain  []Backend
	device *Device
	logger *zap.Logger
}

// New builds the engine with the backend fallback chain
// device -> vectorized -> scalar.
func New(cfg DeviceConfig, logger *zap.Logger) *Engine {
	e := &Engine{logger: logger}

	device, err := NewDevice(cfg, logger)
	if err != nil {
		logger.Warn("compute device unavailable, running on CPU backends", zap.Error(err))
	} else {
		e.device = device
		e.chain = append(e.chain, newParallelBackend(device))
	}
	e.chain = append(e.chain, &vectorizedBackend{}, &scalarBackend{})

	return e
}

// DeviceAvailable reports whether the parallel compute context initialized.
func (e *Engine) DeviceAvailable() bool { return e.device != nil }

// Backends exposes the active chain, primary first.
func (e *Engine) Backends() []Backend { return e.chain }

// Run executes the kernel on the primary backend, falling back down the chain
// if a backend fails. Errors are only returned when every backend fails.
func (e *Engine) Run(closes []float64, cfg strategies.KernelConfig) (signals, positions []float64, err error) {
	var lastErr error
	for _, b := range e.chain {
		signals, positions, err = b.Run(closes, cfg)
		if err == nil {
			return signals, positions, nil
		}
		lastErr = &ExecutionError{Backend: b.Name(), Err: err}
		e.logger.Warn("backend failed, trying next",
			zap.String("backend", b.Name()), zap.Error(err))
	}
	return nil, nil, lastErr
}
