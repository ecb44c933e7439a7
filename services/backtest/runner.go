package backtest

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"backtest-service/services/arrowpipeline"
	"backtest-service/services/engine"
	"backtest-service/services/marketdata"
	"backtest-service/services/metrics"
	"backtest-service/services/strategies"
)

// Runner executes one backtest request end to end: load data, run the kernel
// per symbol, synthesize trades and equity, aggregate metrics.
type Runner struct {
	provider      marketdata.DataProvider
	engine        *engine.Engine
	pipeline      *arrowpipeline.Pipeline
	symbolWorkers int
	logger        *zap.Logger
}

func NewRunner(provider marketdata.DataProvider, eng *engine.Engine, symbolWorkers int, logger *zap.Logger) *Runner {
	if symbolWorkers < 1 {
		symbolWorkers = 1
	}
	return &Runner{
		provider:      provider,
		engine:        eng,
		pipeline:      arrowpipeline.NewPipeline(),
		symbolWorkers: symbolWorkers,
		logger:        logger,
	}
}

// symbolResult is the per-symbol output of the worker pool.
type symbolResult struct {
	symbol string
	trades []engine.Trade
	curve  []float64
	err    error
}

// Run validates the request, loads data and fans symbols out over a bounded
// worker pool. Symbols without data are skipped; the run fails only when no
// symbol has data.
func (r *Runner) Run(ctx context.Context, req *Request) (*Result, error) {
	req.normalize()

	cfg, err := strategies.Validate(req.Strategy.Name, req.Strategy.Parameters)
	if err != nil {
		return nil, err
	}

	start, end, err := req.window()
	if err != nil {
		return nil, err
	}

	positionSize, err := engine.ParsePositionSize(req.Execution.PositionSize, req.Execution.InitialCapital)
	if err != nil {
		return nil, err
	}

	data, err := r.provider.GetHistoricalData(ctx, req.Data.Symbols, start, end, req.Data.Timeframe, req.Data.DataSource)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &marketdata.DataUnavailableError{Symbols: req.Data.Symbols, Start: start, End: end}
	}

	r.logger.Debug("running backtest",
		zap.String("strategy", req.Strategy.Name),
		zap.Int("symbols", len(data)))

	allocation := req.Execution.InitialCapital / float64(len(data))
	params := engine.ExecutionParams{
		InitialCapital: req.Execution.InitialCapital,
		PositionSize:   req.Execution.PositionSize,
		Commission:     req.Execution.Commission,
		Slippage:       req.Execution.Slippage,
	}

	symbolChan := make(chan marketdata.BarSeries, len(data))
	resultChan := make(chan symbolResult, len(data))

	var wg sync.WaitGroup
	for w := 0; w < r.symbolWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for series := range symbolChan {
				resultChan <- r.processSymbol(series, cfg, allocation, positionSize, params)
			}
		}()
	}

	for _, series := range data {
		symbolChan <- series
	}
	close(symbolChan)
	wg.Wait()
	close(resultChan)

	curves := make(map[string][]float64, len(data))
	tradesBySymbol := make(map[string][]engine.Trade, len(data))
	for res := range resultChan {
		if res.err != nil {
			return nil, res.err
		}
		curves[res.symbol] = res.curve
		tradesBySymbol[res.symbol] = res.trades
	}

	// Collect trades in request symbol order so downstream metrics are
	// deterministic.
	var trades []engine.Trade
	for _, symbol := range req.Data.Symbols {
		trades = append(trades, tradesBySymbol[symbol]...)
	}

	overall, perSymbol := metrics.Calculate(metrics.Input{
		Trades:         trades,
		Curves:         curves,
		InitialCapital: req.Execution.InitialCapital,
		Requested:      req.Output.Metrics,
	})

	result := &Result{
		OverallMetrics:   overall,
		PerSymbolMetrics: perSymbol,
	}
	if req.Output.IncludeEquityCurve {
		result.EquityCurve = engine.CombineCurves(curves)
	}
	if req.Output.IncludeTrades {
		result.Trades = trades
	}

	return result, nil
}

// processSymbol stages one series through the columnar pipeline, runs the
// kernel and derives trades and equity.
func (r *Runner) processSymbol(series marketdata.BarSeries, cfg strategies.KernelConfig, allocation, positionSize float64, params engine.ExecutionParams) symbolResult {
	rec, err := r.pipeline.BuildRecord(series)
	if err != nil {
		return symbolResult{symbol: series.Symbol, err: err}
	}
	defer rec.Release()

	closes := r.pipeline.Closes(rec)
	times := r.pipeline.Timestamps(rec)

	_, positions, err := r.engine.Run(closes, cfg)
	if err != nil {
		return symbolResult{symbol: series.Symbol, err: err}
	}

	trades := engine.GenerateTrades(series.Symbol, times, closes, positions, positionSize, params)
	curve := engine.EquityCurve(positions, closes, allocation, positionSize, params)

	return symbolResult{
		symbol: series.Symbol,
		trades: trades,
		curve:  curve,
	}
}
