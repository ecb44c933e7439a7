package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

// BarRecord is the on-disk Parquet schema for bar data.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ParquetProvider loads bars from per-symbol year files on disk.
// Layout: <dataDir>/<timeframe>/<SYMBOL>/<YYYY>.parquet
type ParquetProvider struct {
	dataDir string
	logger  *zap.Logger
}

func NewParquetProvider(dataDir string, logger *zap.Logger) *ParquetProvider {
	return &ParquetProvider{dataDir: dataDir, logger: logger}
}

// GetHistoricalData reads the year files covering [start, end] for each symbol.
// Missing files are skipped; a symbol with no bars in range is absent from the
// result.
func (p *ParquetProvider) GetHistoricalData(_ context.Context, symbols []string, start, end time.Time, timeframe string) (map[string]BarSeries, error) {
	result := make(map[string]BarSeries)

	for _, symbol := range symbols {
		var bars []Bar
		for year := start.Year(); year <= end.Year(); year++ {
			records, err := parquet.ReadFile[BarRecord](p.barPath(symbol, timeframe, year))
			if err != nil {
				// No file for this year.
				continue
			}
			for _, r := range records {
				ts := time.UnixMilli(r.Timestamp).UTC()
				if ts.Before(start) || ts.After(end) {
					continue
				}
				bars = append(bars, Bar{
					Timestamp: ts,
					Open:      r.Open,
					High:      r.High,
					Low:       r.Low,
					Close:     r.Close,
					Volume:    r.Volume,
				})
			}
		}
		if len(bars) == 0 {
			p.logger.Warn("no parquet data for symbol", zap.String("symbol", symbol))
			continue
		}
		sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
		result[symbol] = BarSeries{Symbol: symbol, Bars: bars}
	}

	return result, nil
}

// WriteBars persists bars grouped by symbol and year, merging with any
// existing file contents.
func (p *ParquetProvider) WriteBars(series BarSeries, timeframe string) error {
	type key struct{ year int }
	groups := make(map[key][]BarRecord)
	for _, b := range series.Bars {
		k := key{year: b.Timestamp.Year()}
		groups[k] = append(groups[k], BarRecord{
			Symbol:    series.Symbol,
			Timestamp: b.Timestamp.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	for k, records := range groups {
		path := p.barPath(series.Symbol, timeframe, k.year)

		existing, _ := parquet.ReadFile[BarRecord](path)
		merged := mergeBarRecords(existing, records)

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create parquet dir: %w", err)
		}
		if err := parquet.WriteFile(path, merged); err != nil {
			return fmt.Errorf("write bars for %s/%d: %w", series.Symbol, k.year, err)
		}
	}
	return nil
}

func (p *ParquetProvider) barPath(symbol, timeframe string, year int) string {
	return filepath.Join(p.dataDir, timeframe, strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

// mergeBarRecords deduplicates by timestamp, preferring incoming records, and
// returns the union sorted by timestamp.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	seen := make(map[int64]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}
