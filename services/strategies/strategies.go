// Package strategies defines the strategy catalog and parameter validation.
package strategies

import "fmt"

// ID identifies a strategy kernel.
type ID string

const (
	MovingAverageCrossover ID = "MovingAverageCrossover"
	BollingerBands         ID = "BollingerBands"
	MomentumStrategy       ID = "MomentumStrategy"
	MeanReversion          ID = "MeanReversion"
)

// Params is the raw parameter set of a backtest request.
type Params map[string]float64

// KernelConfig is a validated, fully-defaulted kernel parameter set. Only the
// fields relevant to Strategy are populated.
type KernelConfig struct {
	Strategy ID

	// MovingAverageCrossover
	ShortWindow     int
	LongWindow      int
	SignalThreshold float64

	// BollingerBands, MomentumStrategy, MeanReversion
	Window int

	// BollingerBands
	NumStd float64

	// MomentumStrategy
	Threshold float64

	// MeanReversion
	ZThreshold float64
}

// ValidationError reports an invalid strategy name or parameter.
type ValidationError struct {
	Strategy string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("strategy %q: %s", e.Strategy, e.Reason)
	}
	return fmt.Sprintf("strategy %q: parameter %q %s", e.Strategy, e.Field, e.Reason)
}

// Validate checks the strategy name and parameters, applies defaults, and
// returns the kernel configuration. It fails fast; no computation happens on
// invalid input.
func Validate(name string, params Params) (KernelConfig, error) {
	get := func(key string, def float64) float64 {
		if v, ok := params[key]; ok {
			return v
		}
		return def
	}

	switch ID(name) {
	case MovingAverageCrossover:
		cfg := KernelConfig{
			Strategy:        MovingAverageCrossover,
			ShortWindow:     int(get("short_window", 20)),
			LongWindow:      int(get("long_window", 50)),
			SignalThreshold: get("signal_threshold", 0.01),
		}
		if cfg.ShortWindow < 2 {
			return KernelConfig{}, &ValidationError{name, "short_window", "must be >= 2"}
		}
		if cfg.ShortWindow >= cfg.LongWindow {
			return KernelConfig{}, &ValidationError{name, "long_window", "must be greater than short_window"}
		}
		return cfg, nil

	case BollingerBands:
		cfg := KernelConfig{
			Strategy: BollingerBands,
			Window:   int(get("window", 20)),
			NumStd:   get("num_std", 2.0),
		}
		if cfg.Window < 2 {
			return KernelConfig{}, &ValidationError{name, "window", "must be >= 2"}
		}
		if cfg.NumStd <= 0 {
			return KernelConfig{}, &ValidationError{name, "num_std", "must be positive"}
		}
		return cfg, nil

	case MomentumStrategy:
		cfg := KernelConfig{
			Strategy:  MomentumStrategy,
			Window:    int(get("window", 14)),
			Threshold: get("threshold", 0.05),
		}
		if cfg.Window < 2 {
			return KernelConfig{}, &ValidationError{name, "window", "must be >= 2"}
		}
		if cfg.Threshold <= 0 {
			return KernelConfig{}, &ValidationError{name, "threshold", "must be positive"}
		}
		return cfg, nil

	case MeanReversion:
		cfg := KernelConfig{
			Strategy:   MeanReversion,
			Window:     int(get("window", 30)),
			ZThreshold: get("z_threshold", 1.5),
		}
		if cfg.Window < 5 {
			return KernelConfig{}, &ValidationError{name, "window", "must be >= 5"}
		}
		if cfg.ZThreshold <= 0 {
			return KernelConfig{}, &ValidationError{name, "z_threshold", "must be positive"}
		}
		return cfg, nil

	default:
		return KernelConfig{}, &ValidationError{Strategy: name, Reason: "unknown strategy"}
	}
}

// WarmupWindow is the number of leading bars with a forced zero signal.
func (c KernelConfig) WarmupWindow() int {
	if c.Strategy == MovingAverageCrossover {
		return c.LongWindow
	}
	return c.Window
}
