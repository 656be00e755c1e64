package occupancy

import "math"

// ToProbability converts a log-odds value back to an occupancy probability.
// Exactly zero means the cell was never observed and maps to 0.5. The
// logistic is evaluated in the form that keeps exp's argument non-positive
// so large accumulated values cannot overflow.
func ToProbability(v float64) float64 {
	if v == 0 {
		return 0.5
	}
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

// ProbabilityMap applies ToProbability to every entry of column.
func ProbabilityMap(column []float64) []float64 {
	out := make([]float64, len(column))
	for i, v := range column {
		out[i] = ToProbability(v)
	}
	return out
}

// UnobservedMap returns a map of n cells at maximal uncertainty.
func UnobservedMap(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5
	}
	return out
}
