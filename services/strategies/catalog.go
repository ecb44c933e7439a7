package strategies

// Parameter describes one tunable strategy parameter for the catalog.
type Parameter struct {
	Type        string  `json:"type"`
	Default     float64 `json:"default"`
	Description string  `json:"description"`
}

// Strategy is a catalog entry.
type Strategy struct {
	ID          ID                   `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]Parameter `json:"parameters"`
}

// Catalog lists the available strategies with their parameter templates.
func Catalog() []Strategy {
	return []Strategy{
		{
			ID:          MovingAverageCrossover,
			Name:        "Moving Average Crossover",
			Description: "Trading based on short and long-term moving average signals",
			Parameters: map[string]Parameter{
				"short_window":     {Type: "integer", Default: 20, Description: "Short moving average window"},
				"long_window":      {Type: "integer", Default: 50, Description: "Long moving average window"},
				"signal_threshold": {Type: "float", Default: 0.01, Description: "Signal threshold to trigger trades"},
			},
		},
		{
			ID:          BollingerBands,
			Name:        "Bollinger Bands",
			Description: "Trading based on price movements relative to volatility bands",
			Parameters: map[string]Parameter{
				"window":  {Type: "integer", Default: 20, Description: "Window size for calculating moving average"},
				"num_std": {Type: "float", Default: 2.0, Description: "Number of standard deviations for bands"},
			},
		},
		{
			ID:          MomentumStrategy,
			Name:        "Momentum",
			Description: "Trading based on price momentum indicators",
			Parameters: map[string]Parameter{
				"window":    {Type: "integer", Default: 14, Description: "Lookback window for momentum calculation"},
				"threshold": {Type: "float", Default: 0.05, Description: "Momentum threshold for signals"},
			},
		},
		{
			ID:          MeanReversion,
			Name:        "Mean Reversion",
			Description: "Trading based on price deviation from historical means",
			Parameters: map[string]Parameter{
				"window":      {Type: "integer", Default: 30, Description: "Window for calculating mean"},
				"z_threshold": {Type: "float", Default: 1.5, Description: "Z-score threshold for signals"},
			},
		},
	}
}
