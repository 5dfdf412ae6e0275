package rotation

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const orthoTol = 1e-9

// frameAxes recovers the frame's axes in the parent frame.
func frameAxes(t Transform) (x, y, z r3.Vec) {
	x = Rotate(t.Rotation, r3.Vec{X: 1})
	y = Rotate(t.Rotation, r3.Vec{Y: 1})
	z = Rotate(t.Rotation, r3.Vec{Z: 1})
	return
}

func TestFormFrameFromPointsIdentity(t *testing.T) {
	frame, err := FormFrameFromPoints(
		r3.Vec{},
		r3.Vec{X: 1},
		r3.Vec{Y: 1},
	)
	if err != nil {
		t.Fatalf("FormFrameFromPoints failed: %v", err)
	}

	if d := quat.Abs(quat.Sub(frame.Rotation, Identity())); d > orthoTol {
		t.Errorf("expected identity rotation, got %+v (delta %g)", frame.Rotation, d)
	}
	if r3.Norm(frame.Origin) > orthoTol {
		t.Errorf("expected zero origin, got %+v", frame.Origin)
	}
}

func TestFormFrameFromPointsOrthonormal(t *testing.T) {
	// Non-axis-aligned, non-orthogonal input directions.
	tests := []struct {
		name      string
		o, xp, yp r3.Vec
	}{
		{"skewed", r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}, r3.Vec{X: 1.3, Y: 0.4, Z: -0.2}, r3.Vec{X: 0.5, Y: 1.7, Z: 0.9}},
		{"small", r3.Vec{}, r3.Vec{X: 0.01, Y: 0.002}, r3.Vec{X: -0.003, Y: 0.012, Z: 0.004}},
		{"negative", r3.Vec{X: -2, Y: -3, Z: -4}, r3.Vec{X: -1, Y: -3.5, Z: -4.2}, r3.Vec{X: -2.4, Y: -2, Z: -3.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := FormFrameFromPoints(tt.o, tt.xp, tt.yp)
			if err != nil {
				t.Fatalf("FormFrameFromPoints failed: %v", err)
			}
			x, y, z := frameAxes(frame)

			for _, axis := range []struct {
				name string
				v    r3.Vec
			}{{"x", x}, {"y", y}, {"z", z}} {
				if d := math.Abs(r3.Norm(axis.v) - 1); d > orthoTol {
					t.Errorf("|%s| = %v, want 1 within %g", axis.name, r3.Norm(axis.v), orthoTol)
				}
			}
			if d := math.Abs(r3.Dot(x, y)); d > orthoTol {
				t.Errorf("x.y = %g, want 0 within %g", d, orthoTol)
			}
			cross := r3.Cross(x, y)
			if d := r3.Norm(r3.Sub(cross, z)); d > orthoTol {
				t.Errorf("z differs from x cross y by %g", d)
			}

			// X must point from origin toward the x marker.
			if r3.Dot(x, r3.Sub(tt.xp, tt.o)) <= 0 {
				t.Error("x axis does not point toward the x marker")
			}
		})
	}
}

func TestFormFrameFromPointsTranslationInvariant(t *testing.T) {
	o := r3.Vec{X: 0.3, Y: 0.1, Z: -0.2}
	xp := r3.Vec{X: 1.1, Y: 0.6, Z: 0.1}
	yp := r3.Vec{X: 0.2, Y: 1.4, Z: -0.5}
	shift := r3.Vec{X: 10, Y: -20, Z: 30}

	base, err := FormFrameFromPoints(o, xp, yp)
	if err != nil {
		t.Fatalf("base frame failed: %v", err)
	}
	moved, err := FormFrameFromPoints(r3.Add(o, shift), r3.Add(xp, shift), r3.Add(yp, shift))
	if err != nil {
		t.Fatalf("translated frame failed: %v", err)
	}

	if d := quat.Abs(quat.Sub(base.Rotation, moved.Rotation)); d > orthoTol {
		t.Errorf("rotation changed under translation by %g", d)
	}
	if d := r3.Norm(r3.Sub(r3.Add(base.Origin, shift), moved.Origin)); d > orthoTol {
		t.Errorf("origin did not follow translation, delta %g", d)
	}
}

func TestFormFrameFromPointsDegenerate(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name      string
		o, xp, yp r3.Vec
	}{
		{"all coincident", r3.Vec{X: 1}, r3.Vec{X: 1}, r3.Vec{X: 1}},
		{"x coincides with origin", r3.Vec{}, r3.Vec{}, r3.Vec{Y: 1}},
		{"y coincides with origin", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{}},
		{"collinear", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 2}},
		{"anti-collinear", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: -3}},
		{"nan origin", r3.Vec{X: nan}, r3.Vec{X: 1}, r3.Vec{Y: 1}},
		{"nan marker", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: nan}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FormFrameFromPoints(tt.o, tt.xp, tt.yp)
			if err == nil {
				t.Fatal("expected degenerate geometry error, got nil")
			}
			if !errors.Is(err, ErrDegenerateGeometry) {
				t.Errorf("error %v does not wrap ErrDegenerateGeometry", err)
			}
		})
	}
}

func TestFormFrameFromPointsNonOrthogonalInput(t *testing.T) {
	// Y marker deliberately off-axis: the constructor must square it up.
	frame, err := FormFrameFromPoints(
		r3.Vec{},
		r3.Vec{X: 1},
		r3.Vec{X: 0.8, Y: 0.6},
	)
	if err != nil {
		t.Fatalf("FormFrameFromPoints failed: %v", err)
	}
	_, y, _ := frameAxes(frame)
	want := r3.Vec{Y: 1}
	if d := r3.Norm(r3.Sub(y, want)); d > orthoTol {
		t.Errorf("y axis = %+v, want %+v", y, want)
	}
}
