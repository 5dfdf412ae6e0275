package markers

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moveshelf/opensense/internal/rotation"
)

// Markers that define an IMU mounting frame follow the naming
// convention <base>_IMU_O, <base>_IMU_X, <base>_IMU_Y, <base>_IMU_D:
// origin, x-direction, y-direction and an optional diagonal point used
// only to refine the origin estimate.

const (
	imuMarkerTag   = "_IMU"
	originSuffix   = "_IMU_O"
	xAxisSuffix    = "_IMU_X"
	yAxisSuffix    = "_IMU_Y"
	diagonalSuffix = "_IMU_D"
)

// Cluster is one IMU marker cluster sampled at a single time instant.
type Cluster struct {
	Base string
	O    r3.Vec
	X    r3.Vec
	Y    r3.Vec
	D    r3.Vec
	HasD bool
}

// Usable reports whether the cluster can define a frame: O, X and Y all
// observed (non-NaN). Collinearity is left to the frame constructor.
func (c Cluster) Usable() bool {
	return !rotation.HasNaN(c.O) && !rotation.HasNaN(c.X) && !rotation.HasNaN(c.Y)
}

// Centroid returns the mean of the cluster's observed points, including
// the diagonal when present. Averaging the plate markers suppresses
// individual placement noise in the origin estimate.
func (c Cluster) Centroid() r3.Vec {
	sum := r3.Add(r3.Add(c.O, c.X), c.Y)
	n := 3.0
	if c.HasD && !rotation.HasNaN(c.D) {
		sum = r3.Add(sum, c.D)
		n = 4
	}
	return r3.Scale(1/n, sum)
}

// IMUBase extracts the cluster base from a marker label, reporting
// false for markers outside the _IMU naming convention.
func IMUBase(label string) (string, bool) {
	i := strings.Index(label, imuMarkerTag)
	if i <= 0 {
		return "", false
	}
	return label[:i], true
}

// IMUBases returns the distinct cluster bases present in the trial, in
// first-appearance order of the trial's marker columns.
func (t *Trial) IMUBases() []string {
	var bases []string
	seen := make(map[string]bool)
	for _, label := range t.labels {
		base, ok := IMUBase(label)
		if !ok || seen[base] {
			continue
		}
		seen[base] = true
		bases = append(bases, base)
	}
	return bases
}

// ClusterAt gathers the cluster for a base at the given row. Markers
// absent from the trial read as NaN so Usable can reject the cluster.
func (t *Trial) ClusterAt(base string, row int) Cluster {
	nan := r3.Vec{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
	c := Cluster{Base: base, O: nan, X: nan, Y: nan, D: nan}

	if p, ok := t.Position(row, base+originSuffix); ok {
		c.O = p
	}
	if p, ok := t.Position(row, base+xAxisSuffix); ok {
		c.X = p
	}
	if p, ok := t.Position(row, base+yAxisSuffix); ok {
		c.Y = p
	}
	if p, ok := t.Position(row, base+diagonalSuffix); ok && !rotation.HasNaN(p) {
		c.D = p
		c.HasD = true
	}
	return c
}
