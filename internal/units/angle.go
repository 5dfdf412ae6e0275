package units

import "math"

// Angle conversion helpers. Internal math is always radians; degrees
// appear only at the CLI and logging boundaries.

// RadToDeg converts an angle in radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
