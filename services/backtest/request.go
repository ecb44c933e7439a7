// Package backtest defines the backtest request/result model and the per-job
// runner.
package backtest

import (
	"fmt"
	"time"

	"backtest-service/services/engine"
	"backtest-service/services/metrics"
	"backtest-service/services/strategies"
)

// StrategyConfig names a strategy and its raw parameters.
type StrategyConfig struct {
	Name       string            `json:"name" binding:"required"`
	Parameters strategies.Params `json:"parameters"`
}

// DataConfig selects the market data window and source.
type DataConfig struct {
	Symbols    []string `json:"symbols" binding:"required"`
	StartDate  string   `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate    string   `json:"end_date" binding:"required"`   // YYYY-MM-DD
	Timeframe  string   `json:"timeframe"`
	DataSource string   `json:"data_source"` // empty uses the service default
}

// ExecutionConfig carries the trading cost assumptions.
type ExecutionConfig struct {
	InitialCapital float64 `json:"initial_capital"`
	PositionSize   string  `json:"position_size"`
	Commission     float64 `json:"commission"`
	Slippage       float64 `json:"slippage"`
}

// OutputConfig selects what the result includes.
type OutputConfig struct {
	Metrics            []string `json:"metrics"`
	IncludeEquityCurve bool     `json:"include_equity_curve"`
	IncludeTrades      bool     `json:"include_trades"`
}

// Request is a complete backtest job description.
type Request struct {
	Strategy  StrategyConfig  `json:"strategy" binding:"required"`
	Data      DataConfig      `json:"data" binding:"required"`
	Execution ExecutionConfig `json:"execution"`
	Output    OutputConfig    `json:"output"`
	Priority  int             `json:"priority"`
}

// Result is a completed backtest.
type Result struct {
	OverallMetrics   metrics.Metrics                  `json:"overall_metrics"`
	PerSymbolMetrics map[string]metrics.SymbolMetrics `json:"per_symbol_metrics"`
	EquityCurve      []float64                        `json:"equity_curve,omitempty"`
	Trades           []engine.Trade                   `json:"trades,omitempty"`
}

// normalize fills request defaults in place.
func (r *Request) normalize() {
	if r.Data.Timeframe == "" {
		r.Data.Timeframe = "1d"
	}
	if r.Execution.InitialCapital == 0 {
		r.Execution.InitialCapital = 100000
	}
	if r.Execution.PositionSize == "" {
		r.Execution.PositionSize = "10%"
	}
}

// window parses the request date range.
func (r *Request) window() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", r.Data.StartDate)
	if err != nil {
		return start, end, fmt.Errorf("invalid start_date %q: %w", r.Data.StartDate, err)
	}
	end, err = time.Parse("2006-01-02", r.Data.EndDate)
	if err != nil {
		return start, end, fmt.Errorf("invalid end_date %q: %w", r.Data.EndDate, err)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("end_date %s before start_date %s", r.Data.EndDate, r.Data.StartDate)
	}
	return start, end, nil
}
