package marketdata

import (
	"context"
	"time"
)

// Router dispatches data loads to the provider registered for the request's
// data source. A request with an empty source uses the configured default.
type Router struct {
	providers map[string]Provider
	fallback  string
}

func NewRouter(defaultSource string) *Router {
	return &Router{
		providers: make(map[string]Provider),
		fallback:  defaultSource,
	}
}

// Register adds a provider under a source name, replacing any previous one.
func (r *Router) Register(source string, p Provider) {
	r.providers[source] = p
}

// GetHistoricalData routes to the provider registered for source.
func (r *Router) GetHistoricalData(ctx context.Context, symbols []string, start, end time.Time, timeframe, source string) (map[string]BarSeries, error) {
	if source == "" {
		source = r.fallback
	}
	p, ok := r.providers[source]
	if !ok {
		return nil, &UnknownSourceError{Source: source}
	}
	return p.GetHistoricalData(ctx, symbols, start, end, timeframe)
}
