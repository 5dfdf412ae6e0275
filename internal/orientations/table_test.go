package orientations

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moveshelf/opensense/internal/rotation"
)

func identityRow(n int) []quat.Number {
	row := make([]quat.Number, n)
	for i := range row {
		row[i] = quat.Number{Real: 1}
	}
	return row
}

func TestNewValidTable(t *testing.T) {
	labels := []string{"pelvis_imu", "torso_imu"}
	table, err := New(labels,
		[]float64{0, 0.01, 0.02},
		[][]quat.Number{identityRow(2), identityRow(2), identityRow(2)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if table.NumRows() != 3 {
		t.Errorf("NumRows = %d, want 3", table.NumRows())
	}
	if idx, ok := table.ColumnIndex("torso_imu"); !ok || idx != 1 {
		t.Errorf("ColumnIndex(torso_imu) = %d, %v", idx, ok)
	}
	if table.HasColumn("femur_imu") {
		t.Error("unexpected column femur_imu")
	}
}

func TestNewRejectsNonIncreasingTimestamps(t *testing.T) {
	tests := []struct {
		name  string
		times []float64
	}{
		{"equal", []float64{0, 0.01, 0.01}},
		{"decreasing", []float64{0, 0.02, 0.01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := [][]quat.Number{identityRow(1), identityRow(1), identityRow(1)}
			if _, err := New([]string{"a_imu"}, tt.times, rows); err == nil {
				t.Error("expected error for non-increasing timestamps")
			}
		})
	}
}

func TestNewRejectsMalformedTables(t *testing.T) {
	id := identityRow(2)
	tests := []struct {
		name   string
		labels []string
		times  []float64
		rows   [][]quat.Number
	}{
		{"no labels", nil, []float64{0}, [][]quat.Number{{}}},
		{"duplicate label", []string{"a", "a"}, []float64{0}, [][]quat.Number{id}},
		{"empty label", []string{""}, []float64{0}, [][]quat.Number{identityRow(1)}},
		{"no rows", []string{"a"}, nil, nil},
		{"ragged row", []string{"a", "b"}, []float64{0}, [][]quat.Number{identityRow(1)}},
		{"count mismatch", []string{"a", "b"}, []float64{0, 1}, [][]quat.Number{id}},
		{"non-unit quaternion", []string{"a"}, []float64{0},
			[][]quat.Number{{quat.Number{Real: 0.5}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.labels, tt.times, tt.rows); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewRejectsNearUnitQuaternion(t *testing.T) {
	// Just outside the unit-norm tolerance.
	q := quat.Number{Real: 1 + 10*rotation.UnitNormTolerance}
	_, err := New([]string{"a"}, []float64{0}, [][]quat.Number{{q}})
	if err == nil {
		t.Fatal("expected error for quaternion outside norm tolerance")
	}
	if !strings.Contains(err.Error(), "unit quaternion") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestRotated(t *testing.T) {
	base := quat.Number{Real: math.Cos(0.4), Kmag: math.Sin(0.4)}
	table, err := New([]string{"a", "b"},
		[]float64{0, 0.5},
		[][]quat.Number{
			{quat.Number{Real: 1}, base},
			{base, quat.Number{Real: 1}},
		})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	rot := rotation.FromAxisAngle(r3.Vec{Y: 1}, 1.2)
	got := table.Rotated(rot)

	// Original table untouched.
	if d := quat.Abs(quat.Sub(table.At(0, 0), quat.Number{Real: 1})); d > 1e-12 {
		t.Errorf("Rotated mutated the source table (delta %g)", d)
	}

	for i := 0; i < table.NumRows(); i++ {
		for j := range table.Labels() {
			want := quat.Mul(rot, table.At(i, j))
			if d := quat.Abs(quat.Sub(got.At(i, j), want)); d > 1e-9 {
				t.Errorf("row %d col %d: rotated quaternion off by %g", i, j, d)
			}
			if !rotation.IsUnit(got.At(i, j)) {
				t.Errorf("row %d col %d: rotated quaternion lost unit norm", i, j)
			}
		}
	}
}
