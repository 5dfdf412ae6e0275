package rotation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a rigid transform: a rotation plus an origin offset,
// expressed relative to a parent frame implied by context.
type Transform struct {
	Rotation quat.Number
	Origin   r3.Vec
}

// IdentityTransform returns the transform that maps a frame onto itself.
func IdentityTransform() Transform {
	return Transform{Rotation: Identity()}
}

// Compose returns the transform obtained by applying u first and then t.
// If t maps frame B into A and u maps frame C into B, the result maps C
// into A.
func (t Transform) Compose(u Transform) Transform {
	return Transform{
		Rotation: quat.Mul(t.Rotation, u.Rotation),
		Origin:   r3.Add(t.Origin, Rotate(t.Rotation, u.Origin)),
	}
}

// Inverse returns the transform mapping in the opposite direction.
func (t Transform) Inverse() Transform {
	inv := quat.Conj(t.Rotation)
	return Transform{
		Rotation: inv,
		Origin:   Rotate(inv, r3.Scale(-1, t.Origin)),
	}
}

// TransformPoint maps a point expressed in the transform's child frame
// into its parent frame.
func (t Transform) TransformPoint(p r3.Vec) r3.Vec {
	return r3.Add(Rotate(t.Rotation, p), t.Origin)
}

// RotationMatrix returns the 3x3 rotation matrix of t, columns being the
// child frame's axes expressed in the parent frame.
func (t Transform) RotationMatrix() *mat.Dense {
	q := t.Rotation
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// FromRotationMatrix converts a 3x3 rotation matrix into a unit
// quaternion. The matrix is assumed orthonormal; the largest-pivot
// branch keeps the conversion numerically stable for all orientations.
func FromRotationMatrix(m *mat.Dense) (quat.Number, error) {
	r, c := m.Dims()
	if r != 3 || c != 3 {
		return Identity(), fmt.Errorf("rotation matrix must be 3x3, got %dx%d", r, c)
	}

	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	trace := m00 + m11 + m22
	var q quat.Number
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{
			Real: 0.25 / s,
			Imag: (m21 - m12) * s,
			Jmag: (m02 - m20) * s,
			Kmag: (m10 - m01) * s,
		}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{
			Real: (m21 - m12) / s,
			Imag: 0.25 * s,
			Jmag: (m01 + m10) / s,
			Kmag: (m02 + m20) / s,
		}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{
			Real: (m02 - m20) / s,
			Imag: (m01 + m10) / s,
			Jmag: 0.25 * s,
			Kmag: (m12 + m21) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{
			Real: (m10 - m01) / s,
			Imag: (m02 + m20) / s,
			Jmag: (m12 + m21) / s,
			Kmag: 0.25 * s,
		}
	}
	return Normalize(q), nil
}
