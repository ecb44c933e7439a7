package engine

import (
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// DeviceConfig controls the parallel compute context.
type DeviceConfig struct {
	Enabled bool
	Workers int // 0 = NumCPU
}

// Device is the process-wide parallel compute context: a fixed worker count
// and a pool of scratch buffers for kernel output. It stands in for the GPU
// context of the hosted deployment.
type Device struct {
	workers int
	pool    sync.Pool
	logger  *zap.Logger
}

// NewDevice initializes the compute context. A disabled or misconfigured
// device returns DeviceInitError; callers demote to CPU backends and carry on.
func NewDevice(cfg DeviceConfig, logger *zap.Logger) (*Device, error) {
	if !cfg.Enabled {
		return nil, &DeviceInitError{Reason: "device disabled by configuration"}
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if workers < 0 {
		return nil, &DeviceInitError{Reason: "worker count must not be negative"}
	}

	d := &Device{workers: workers, logger: logger}
	d.pool.New = func() any {
		buf := make([]float64, 0, 4096)
		return &buf
	}

	logger.Info("compute device initialized", zap.Int("workers", workers))
	return d, nil
}

// Workers returns the parallel worker count.
func (d *Device) Workers() int { return d.workers }

// acquire returns a zeroed scratch buffer of length n from the pool.
func (d *Device) acquire(n int) *[]float64 {
	bufp := d.pool.Get().(*[]float64)
	buf := *bufp
	if cap(buf) < n {
		buf = make([]float64, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	*bufp = buf
	return bufp
}

// release returns a scratch buffer to the pool.
func (d *Device) release(bufp *[]float64) {
	d.pool.Put(bufp)
}
