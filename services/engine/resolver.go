package engine

// ResolvePositions forward-fills signals into a position series.
//
// position[0] is always 0; thereafter a nonzero signal sets the position and
// a zero signal carries the previous one forward. The scan is inherently
// sequential and is shared by all backends.
func ResolvePositions(signals []float64) []float64 {
	positions := make([]float64, len(signals))
	for i := 1; i < len(signals); i++ {
		if signals[i] != 0 {
			positions[i] = signals[i]
		} else {
			positions[i] = positions[i-1]
		}
	}
	return positions
}
