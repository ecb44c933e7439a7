// Command data_generator seeds a local parquet data directory with synthetic
// bar series, so the service can be exercised with DATA_SOURCE=parquet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"backtest-service/services/marketdata"
)

func main() {
	var (
		dataDir   = flag.String("dir", "data", "output data directory")
		symbols   = flag.String("symbols", "AAPL,MSFT,GOOG,AMZN,TSLA", "comma-separated symbols")
		startStr  = flag.String("start", "2020-01-01", "start date (YYYY-MM-DD)")
		endStr    = flag.String("end", "2023-12-31", "end date (YYYY-MM-DD)")
		timeframe = flag.String("timeframe", "1d", "bar timeframe (1d, 1h, 1m)")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid start: %v\n", err)
		os.Exit(1)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid end: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	synthetic := marketdata.NewSyntheticProvider()
	sink := marketdata.NewParquetProvider(*dataDir, logger)

	symbolList := strings.Split(*symbols, ",")
	data, err := synthetic.GetHistoricalData(context.Background(), symbolList, start, end, *timeframe)
	if err != nil {
		logger.Fatal("generate data", zap.Error(err))
	}

	for _, symbol := range symbolList {
		series, ok := data[symbol]
		if !ok {
			logger.Warn("no bars generated", zap.String("symbol", symbol))
			continue
		}
		if err := sink.WriteBars(series, *timeframe); err != nil {
			logger.Fatal("write bars", zap.String("symbol", symbol), zap.Error(err))
		}
		logger.Info("wrote series",
			zap.String("symbol", symbol),
			zap.Int("bars", len(series.Bars)))
	}
}
