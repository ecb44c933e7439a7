package marketdata

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// SyntheticProvider generates deterministic random-walk bar data. Each symbol
// is seeded from its name, so repeated requests produce identical series.
// Used for demos and as the default data source in tests.
type SyntheticProvider struct{}

func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{}
}

// GetHistoricalData generates one series per requested symbol.
func (p *SyntheticProvider) GetHistoricalData(_ context.Context, symbols []string, start, end time.Time, timeframe string) (map[string]BarSeries, error) {
	result := make(map[string]BarSeries, len(symbols))
	for _, symbol := range symbols {
		series := generateSeries(symbol, start, end, timeframe)
		if len(series.Bars) == 0 {
			continue
		}
		result[symbol] = series
	}
	return result, nil
}

func generateSeries(symbol string, start, end time.Time, timeframe string) BarSeries {
	seed := int64(0)
	for _, c := range symbol {
		seed += int64(c)
	}
	rng := rand.New(rand.NewSource(seed))

	// Base price between 10 and 100, specific to the symbol.
	basePrice := float64(seed%90) + 10

	timestamps := timeRange(start, end, timeframe)
	n := len(timestamps)
	if n == 0 {
		return BarSeries{Symbol: symbol}
	}

	// Random walk with slight upward drift.
	returns := make([]float64, n)
	for i := range returns {
		returns[i] = rng.NormFloat64()*0.015 + 0.0002
	}

	volatility := 0.01 + rng.Float64()*0.02
	baseVolume := 50000 + rng.Float64()*950000

	bars := make([]Bar, n)
	price := basePrice
	for i := 0; i < n; i++ {
		price *= 1 + returns[i]

		high := price * (1 + rng.Float64()*volatility)
		low := price * (1 - rng.Float64()*volatility)
		open := low + rng.Float64()*(high-low)
		volume := baseVolume * (1 + math.Abs(returns[i])*10) * (0.5 + rng.Float64())

		bars[i] = Bar{
			Timestamp: timestamps[i],
			Open:      open,
			High:      high,
			Low:       low,
			Close:     price,
			Volume:    volume,
		}
	}

	return BarSeries{Symbol: symbol, Bars: bars}
}

// timeRange builds the bar timestamps for the requested window. Daily series
// use business days only.
func timeRange(start, end time.Time, timeframe string) []time.Time {
	var step time.Duration
	businessDays := false
	switch timeframe {
	case "1h":
		step = time.Hour
	case "1m":
		step = time.Minute
	default: // "1d"
		step = 24 * time.Hour
		businessDays = true
	}

	var ts []time.Time
	for t := start.UTC(); !t.After(end.UTC()); t = t.Add(step) {
		if businessDays {
			if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
		}
		ts = append(ts, t)
	}
	return ts
}
