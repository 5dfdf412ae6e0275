package rotation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateGeometry reports that a set of points cannot define a
// frame: a direction vector is near zero length or the two directions
// are near collinear.
var ErrDegenerateGeometry = errors.New("degenerate marker geometry")

// DegenerateTolerance is the vector-norm threshold (metres) below which
// a direction or residual is treated as zero when forming a frame.
const DegenerateTolerance = 1e-8

// FormFrameFromPoints constructs the rigid transform of the frame
// implied by three labeled points, expressed in the frame the points
// were measured in. The local X axis points from origin to xPoint; the
// local Y axis is the component of origin->yPoint orthogonal to X;
// Z = X x Y completes a right-handed set. The transform's origin is the
// origin point; callers refining it (e.g. with a marker centroid) can
// overwrite Origin afterwards.
func FormFrameFromPoints(origin, xPoint, yPoint r3.Vec) (Transform, error) {
	if HasNaN(origin) || HasNaN(xPoint) || HasNaN(yPoint) {
		return Transform{}, fmt.Errorf("frame points contain NaN: %w", ErrDegenerateGeometry)
	}

	xDir := r3.Sub(xPoint, origin)
	if r3.Norm(xDir) < DegenerateTolerance {
		return Transform{}, fmt.Errorf("x-direction marker coincides with origin: %w", ErrDegenerateGeometry)
	}
	x := r3.Unit(xDir)

	yDir := r3.Sub(yPoint, origin)
	if r3.Norm(yDir) < DegenerateTolerance {
		return Transform{}, fmt.Errorf("y-direction marker coincides with origin: %w", ErrDegenerateGeometry)
	}

	// Remove the projection onto X; what is left must still have length.
	yResidual := r3.Sub(yDir, r3.Scale(r3.Dot(yDir, x), x))
	if r3.Norm(yResidual) < DegenerateTolerance {
		return Transform{}, fmt.Errorf("x and y directions are collinear: %w", ErrDegenerateGeometry)
	}
	y := r3.Unit(yResidual)
	z := r3.Cross(x, y)

	basis := mat.NewDense(3, 3, []float64{
		x.X, y.X, z.X,
		x.Y, y.Y, z.Y,
		x.Z, y.Z, z.Z,
	})
	q, err := FromRotationMatrix(basis)
	if err != nil {
		return Transform{}, err
	}

	return Transform{Rotation: q, Origin: origin}, nil
}
