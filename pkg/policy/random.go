package policy

import (
	"math"
	"math/rand/v2"
)

// randomInRange returns a random float64 in [lo, hi]. Reversed bounds are swapped.
func randomInRange(r *rand.Rand, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}

// finiteOr returns v when it is finite, fallback otherwise.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// countFloor converts a fractional particle count to an int, tolerating
// accumulated float error just below an integer.
func countFloor(v float64) int {
	const tolerance = 1e-9
	if !(v > 0) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Floor(v + tolerance))
}
