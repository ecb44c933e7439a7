package engine

import "math"

// EquityCurve simulates per-symbol equity bar by bar. The curve starts at the
// symbol's capital allocation and moves only on realized pnl: at each
// position change the closed round trip is settled with the same slippage and
// commission conventions as GenerateTrades, and equity carries forward
// unchanged between changes. The final value therefore equals the allocation
// plus the sum of the symbol's trade pnls.
func EquityCurve(positions, closes []float64, allocation, positionSize float64, params ExecutionParams) []float64 {
	n := len(positions)
	equity := make([]float64, n)
	if n == 0 {
		return equity
	}
	equity[0] = allocation

	position := 0.0
	entryPrice := 0.0

	settle := func(price float64) float64 {
		exitPrice := price
		if position > 0 {
			exitPrice *= 1 - params.Slippage
		} else {
			exitPrice *= 1 + params.Slippage
		}
		shares := positionSize / math.Abs(entryPrice)
		pnl := shares * (exitPrice - entryPrice) * sign(position)
		return pnl - params.Commission*positionSize
	}

	for i := 1; i < n; i++ {
		equity[i] = equity[i-1]

		if positions[i] == positions[i-1] {
			continue
		}

		if position != 0 {
			equity[i] += settle(closes[i])
		}

		position = positions[i]
		if position != 0 {
			entryPrice = closes[i]
			if position > 0 {
				entryPrice *= 1 + params.Slippage
			} else {
				entryPrice *= 1 - params.Slippage
			}
		}
	}

	// An open position at the end stays marked at cost; the matching trade is
	// force-closed by GenerateTrades, so settle it here too.
	if position != 0 {
		equity[n-1] += settle(closes[n-1])
	}

	return equity
}

// CombineCurves sums per-symbol curves elementwise, truncated to the shortest
// curve. Returns nil when there are no curves.
func CombineCurves(curves map[string][]float64) []float64 {
	if len(curves) == 0 {
		return nil
	}

	minLen := math.MaxInt
	for _, c := range curves {
		if len(c) < minLen {
			minLen = len(c)
		}
	}
	if minLen == 0 {
		return nil
	}

	combined := make([]float64, minLen)
	for _, c := range curves {
		for i := 0; i < minLen; i++ {
			combined[i] += c[i]
		}
	}
	return combined
}
