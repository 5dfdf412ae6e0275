// Package rotation provides quaternion and rigid-transform math for
// registering sensor frames onto articulated models.
package rotation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// UnitNormTolerance is the allowed deviation of a quaternion's norm from 1
// before it is rejected as a non-rotation.
const UnitNormTolerance = 1e-6

// Identity returns the identity rotation.
func Identity() quat.Number {
	return quat.Number{Real: 1}
}

// IsUnit reports whether q has unit norm within UnitNormTolerance.
func IsUnit(q quat.Number) bool {
	return math.Abs(quat.Abs(q)-1) <= UnitNormTolerance
}

// Normalize scales q to unit norm. Returns the identity for a zero quaternion.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return Identity()
	}
	return quat.Scale(1/n, q)
}

// FromAxisAngle returns the rotation of angle radians about the given axis.
// The axis need not be normalized.
func FromAxisAngle(axis r3.Vec, angle float64) quat.Number {
	n := r3.Norm(axis)
	if n == 0 {
		return Identity()
	}
	s := math.Sin(angle/2) / n
	return quat.Number{
		Real: math.Cos(angle / 2),
		Imag: axis.X * s,
		Jmag: axis.Y * s,
		Kmag: axis.Z * s,
	}
}

// Rotate applies the rotation q to the vector v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// HasNaN reports whether any component of v is NaN. Marker trials use
// NaN positions for frames where a marker was occluded.
func HasNaN(v r3.Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}
