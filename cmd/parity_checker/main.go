// Command parity_checker runs every strategy kernel through all active
// backends on synthetic data and reports the maximum pairwise deviation.
// Exits non-zero if any backend pair disagrees beyond tolerance.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"go.uber.org/zap"

	"backtest-service/services/engine"
	"backtest-service/services/marketdata"
	"backtest-service/services/strategies"
)

const tolerance = 1e-4

func main() {
	var (
		bars    = flag.Int("bars", 2000, "number of bars per series")
		workers = flag.Int("workers", 0, "device workers (0 = NumCPU)")
	)
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	closes, err := syntheticCloses(*bars)
	if err != nil {
		logger.Fatal("generate series", zap.Error(err))
	}

	eng := engine.New(engine.DeviceConfig{Enabled: true, Workers: *workers}, logger)
	backends := eng.Backends()
	if len(backends) < 2 {
		logger.Fatal("need at least two backends for a parity check")
	}

	configs := map[string]strategies.Params{
		"MovingAverageCrossover": {"short_window": 10, "long_window": 30, "signal_threshold": 0.01},
		"BollingerBands":         {"window": 20, "num_std": 2.0},
		"MomentumStrategy":       {"window": 14, "threshold": 0.02},
		"MeanReversion":          {"window": 30, "z_threshold": 1.5},
	}

	failed := false
	for name, params := range configs {
		cfg, err := strategies.Validate(name, params)
		if err != nil {
			logger.Fatal("validate", zap.String("strategy", name), zap.Error(err))
		}

		type output struct {
			backend   string
			signals   []float64
			positions []float64
		}
		outputs := make([]output, 0, len(backends))
		for _, b := range backends {
			signals, positions, err := b.Run(closes, cfg)
			if err != nil {
				logger.Fatal("backend run",
					zap.String("strategy", name),
					zap.String("backend", b.Name()),
					zap.Error(err))
			}
			outputs = append(outputs, output{b.Name(), signals, positions})
		}

		ref := outputs[0]
		for _, out := range outputs[1:] {
			sigDev := maxDeviation(ref.signals, out.signals)
			posDev := maxDeviation(ref.positions, out.positions)
			ok := sigDev <= tolerance && posDev <= tolerance
			if !ok {
				failed = true
			}
			fmt.Printf("%-24s %-12s vs %-12s signal_dev=%.2e position_dev=%.2e %s\n",
				name, ref.backend, out.backend, sigDev, posDev, verdict(ok))
		}
	}

	if failed {
		os.Exit(1)
	}
}

func syntheticCloses(bars int) ([]float64, error) {
	provider := marketdata.NewSyntheticProvider()
	end := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	start := end.Add(-time.Duration(bars) * time.Hour)
	data, err := provider.GetHistoricalData(context.Background(),
		[]string{"PARITY"}, start, end, "1h")
	if err != nil {
		return nil, err
	}
	series := data["PARITY"]
	closes := series.Closes()
	if len(closes) > bars {
		closes = closes[:bars]
	}
	return closes, nil
}

func maxDeviation(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var worst float64
	for i := range a {
		dev := math.Abs(a[i] - b[i])
		if scale := math.Max(math.Abs(a[i]), math.Abs(b[i])); scale > 1 {
			dev /= scale
		}
		if dev > worst {
			worst = dev
		}
	}
	return worst
}

func verdict(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAIL"
}
