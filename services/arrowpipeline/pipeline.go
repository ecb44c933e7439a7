// Package arrowpipeline stages bar series as Arrow columnar records between
// the data layer and the compute engine.
package arrowpipeline

import (
	"fmt"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"backtest-service/services/marketdata"
)

// Column indexes of the bar schema.
const (
	colTimestamp = 0
	colOpen      = 1
	colHigh      = 2
	colLow       = 3
	colClose     = 4
	colVolume    = 5
)

// Pipeline converts bar series to Arrow records and back. Records hold one
// symbol each.
type Pipeline struct {
	alloc  memory.Allocator
	schema *arrow.Schema
}

func NewPipeline() *Pipeline {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "timestamp", Type: arrow.PrimitiveTypes.Int64}, // Unix ms
		{Name: "open", Type: arrow.PrimitiveTypes.Float64},
		{Name: "high", Type: arrow.PrimitiveTypes.Float64},
		{Name: "low", Type: arrow.PrimitiveTypes.Float64},
		{Name: "close", Type: arrow.PrimitiveTypes.Float64},
		{Name: "volume", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	return &Pipeline{
		alloc:  memory.NewGoAllocator(),
		schema: schema,
	}
}

// BuildRecord converts a bar series into a columnar record. Callers must
// Release the record when done.
func (p *Pipeline) BuildRecord(series marketdata.BarSeries) (arrow.Record, error) {
	n := len(series.Bars)
	if n == 0 {
		return nil, fmt.Errorf("no bars to convert for %s", series.Symbol)
	}

	timestamps := make([]int64, n)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)

	for i, bar := range series.Bars {
		timestamps[i] = bar.Timestamp.UnixMilli()
		opens[i] = bar.Open
		highs[i] = bar.High
		lows[i] = bar.Low
		closes[i] = bar.Close
		volumes[i] = bar.Volume
	}

	tsBuilder := array.NewInt64Builder(p.alloc)
	defer tsBuilder.Release()
	tsBuilder.AppendValues(timestamps, nil)

	cols := make([]arrow.Array, 0, 6)
	cols = append(cols, tsBuilder.NewInt64Array())

	for _, values := range [][]float64{opens, highs, lows, closes, volumes} {
		b := array.NewFloat64Builder(p.alloc)
		b.AppendValues(values, nil)
		cols = append(cols, b.NewFloat64Array())
		b.Release()
	}

	return array.NewRecord(p.schema, cols, int64(n)), nil
}

// Closes extracts the close price column.
func (p *Pipeline) Closes(rec arrow.Record) []float64 {
	col := rec.Column(colClose).(*array.Float64)
	out := make([]float64, col.Len())
	copy(out, col.Float64Values())
	return out
}

// Timestamps extracts the timestamp column as UTC times.
func (p *Pipeline) Timestamps(rec arrow.Record) []time.Time {
	col := rec.Column(colTimestamp).(*array.Int64)
	out := make([]time.Time, col.Len())
	for i, ms := range col.Int64Values() {
		out[i] = time.UnixMilli(ms).UTC()
	}
	return out
}
