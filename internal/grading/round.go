package grading

import "math"

// roundHalfUp rounds to the given number of decimals with ties going up
// (2.675 → 2.68 at precision 2). Applied only at the final output of each
// aggregation level so intermediate sums never compound rounding error.
func roundHalfUp(v float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Floor(v*p+0.5) / p
}
