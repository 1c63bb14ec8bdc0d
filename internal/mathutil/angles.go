// Package mathutil provides the small numeric helpers shared by the band
// extractor, the grid resampler and the direction lookup.
//
// Every helper here uses floor semantics explicitly. Go's % and integer
// division truncate toward zero, which puts negative angles on the wrong side
// of the seam.
package mathutil

import "math"

// Angular constants
const (
	FullTurnDegrees = 360 // Degrees in a full azimuth turn
	HalfTurnDegrees = 180 // Degrees in a half turn (elevation span)
	QuarterTurn     = 90  // Degrees from the pole to the horizon

	radiansToDegrees = 180.0 / math.Pi
)

// FloorMod returns a mod m with the sign of m, so FloorMod(-10, 360) == 350.
// m must be positive.
func FloorMod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// FloorIndex maps a non-negative real position onto an integer index using
// floor truncation. Negative, NaN and infinite inputs are reported as invalid.
func FloorIndex(x float64) (int, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0, false
	}
	return int(math.Floor(x)), true
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * radiansToDegrees
}

// WrapDegrees folds an integer angle onto [0, 360).
func WrapDegrees(deg int) int {
	return FloorMod(deg, FullTurnDegrees)
}

// ForwardDistance is the number of degrees travelled going from `from` to `to`
// in the increasing direction around the circle. The result is in [0, 360).
func ForwardDistance(from, to int) int {
	return FloorMod(to-from, FullTurnDegrees)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp blends a and b linearly. The end points are returned exactly.
func Lerp(a, b, t float64) float64 {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return a + (b-a)*t
}
