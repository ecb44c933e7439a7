package marketdata

import (
	"context"
	"fmt"
	"time"
)

// Provider loads historical bar data from one backing source.
//
// Symbols with no data in the requested range are simply absent from the
// returned map; callers decide whether a partial result is acceptable. An
// empty result for all symbols is reported with DataUnavailableError by the
// caller, not the provider.
type Provider interface {
	GetHistoricalData(ctx context.Context, symbols []string, start, end time.Time, timeframe string) (map[string]BarSeries, error)
}

// DataProvider additionally resolves the request's data source to a backing
// Provider. Implemented by Router.
type DataProvider interface {
	GetHistoricalData(ctx context.Context, symbols []string, start, end time.Time, timeframe, source string) (map[string]BarSeries, error)
}

// DataUnavailableError reports that no data could be loaded for any of the
// requested symbols.
type DataUnavailableError struct {
	Symbols []string
	Start   time.Time
	End     time.Time
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("no data available for symbols %v between %s and %s",
		e.Symbols, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// UnknownSourceError reports a data_source with no registered provider.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown data source %q", e.Source)
}
