// Package calibrate registers IMU mounting frames onto articulated
// models: heading correction of orientation tables, marker-based frame
// registration, and orientation-based sensor calibration.
package calibrate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moveshelf/opensense/internal/orientations"
	"github.com/moveshelf/opensense/internal/rotation"
	"github.com/moveshelf/opensense/internal/units"
)

// Ground frame conventions: +Y is vertical (up), +X is forward.
var (
	groundUp      = r3.Vec{Y: 1}
	groundForward = r3.Vec{X: 1}
)

// ErrAmbiguousHeading reports that the chosen heading axis points
// nearly along the vertical, leaving its horizontal direction, and
// therefore the correction angle, undefined.
var ErrAmbiguousHeading = errors.New("heading axis is nearly vertical, heading is ill-defined")

// headingProjectionTolerance is the horizontal-projection norm below
// which the heading axis is treated as vertical.
const headingProjectionTolerance = 1e-10

// HeadingCorrection records the rotation applied to an orientation
// table and which sensor axis it was derived from. The zero value
// (Applied false) means orientations were used uncorrected.
type HeadingCorrection struct {
	Applied bool
	Angle   float64 // radians, about the ground vertical
	Sensor  string
	Axis    units.Axis
}

// ComputeHeadingCorrection returns the signed angle from the ground
// forward direction to the horizontal projection of the base sensor's
// chosen local axis, measured about the ground vertical. Rotating the
// table by the negated angle aligns the sensor's heading with forward.
func ComputeHeadingCorrection(base quat.Number, axis units.Axis) (float64, error) {
	if !axis.IsValid() {
		return 0, fmt.Errorf("invalid heading axis %v", axis)
	}
	var local r3.Vec
	switch axis {
	case units.AxisX:
		local = r3.Vec{X: 1}
	case units.AxisY:
		local = r3.Vec{Y: 1}
	case units.AxisZ:
		local = r3.Vec{Z: 1}
	}

	dir := rotation.Rotate(base, local)
	horizontal := r3.Sub(dir, r3.Scale(r3.Dot(dir, groundUp), groundUp))
	if r3.Norm(horizontal) < headingProjectionTolerance {
		return 0, fmt.Errorf("%s axis of the base sensor: %w", axis, ErrAmbiguousHeading)
	}

	angle := math.Atan2(
		r3.Dot(r3.Cross(groundForward, horizontal), groundUp),
		r3.Dot(horizontal, groundForward),
	)
	return angle, nil
}

// ApplyHeadingCorrection rotates every orientation in the table by
// angle about the ground vertical, returning a new table.
func ApplyHeadingCorrection(table *orientations.Table, angle float64) *orientations.Table {
	return table.Rotated(rotation.FromAxisAngle(groundUp, angle))
}
