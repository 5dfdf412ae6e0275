package markers

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moveshelf/opensense/internal/fsutil"
	"github.com/moveshelf/opensense/internal/orientations"
	"github.com/moveshelf/opensense/internal/rotation"
)

const sampleTRC = "PathFileType\t4\t(X/Y/Z)\twalk01.trc\n" +
	"DataRate\tCameraRate\tNumFrames\tNumMarkers\tUnits\n" +
	"100.00\t100.00\t2\t2\tm\n" +
	"Frame#\tTime\tlhand_IMU_O\t\t\tlhand_IMU_X\t\t\n" +
	"\t\tX1\tY1\tZ1\tX2\tY2\tZ2\n" +
	"1\t0.000\t0.1\t0.2\t0.3\t1.1\t0.2\t0.3\n" +
	"2\t0.010\t0.1\t0.2\t0.3\t\t\t\n"

func TestReadTRC(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("trials/walk01.trc", []byte(sampleTRC), 0644)

	trial, err := ReadTRC(fs, "trials/walk01.trc")
	if err != nil {
		t.Fatalf("ReadTRC failed: %v", err)
	}

	if trial.Name() != "walk01" {
		t.Errorf("Name = %q, want walk01", trial.Name())
	}
	if trial.NumRows() != 2 {
		t.Errorf("NumRows = %d, want 2", trial.NumRows())
	}
	if got := trial.Labels(); len(got) != 2 || got[0] != "lhand_IMU_O" || got[1] != "lhand_IMU_X" {
		t.Errorf("Labels = %v", got)
	}

	p, ok := trial.Position(0, "lhand_IMU_O")
	if !ok {
		t.Fatal("lhand_IMU_O not found")
	}
	want := r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}
	if d := r3.Norm(r3.Sub(p, want)); d > 1e-12 {
		t.Errorf("Position = %+v, want %+v", p, want)
	}

	// Occluded marker reads as NaN.
	p, ok = trial.Position(1, "lhand_IMU_X")
	if !ok {
		t.Fatal("lhand_IMU_X not found")
	}
	if !rotation.HasNaN(p) {
		t.Errorf("occluded marker = %+v, want NaN", p)
	}
}

func TestReadTRCErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantType string
	}{
		{"no header", "just\tsome\tgarbage\n", "format"},
		{"no markers", "Frame#\tTime\n\t\n", "format"},
		{"no rows", "Frame#\tTime\ta_IMU_O\t\t\n\t\tX1\tY1\tZ1\n", "empty"},
		{"bad time", "Frame#\tTime\ta_IMU_O\t\t\n\t\tX1\tY1\tZ1\n1\tbad\t0\t0\t0\n", "parse"},
		{"bad coordinate", "Frame#\tTime\ta_IMU_O\t\t\n\t\tX1\tY1\tZ1\n1\t0.0\t0\tx\t0\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := fsutil.NewMemoryFileSystem()
			fs.WriteFile("t.trc", []byte(tt.contents), 0644)
			_, err := ReadTRC(fs, "t.trc")
			if err == nil {
				t.Fatal("expected error")
			}
			switch tt.wantType {
			case "format":
				var fe *orientations.FormatError
				if !errors.As(err, &fe) {
					t.Errorf("want FormatError, got %v", err)
				}
			case "empty":
				var ee *orientations.EmptySourceError
				if !errors.As(err, &ee) {
					t.Errorf("want EmptySourceError, got %v", err)
				}
			case "parse":
				var pe *orientations.ParseError
				if !errors.As(err, &pe) {
					t.Errorf("want ParseError, got %v", err)
				}
			}
		})
	}
}

func TestIMUBases(t *testing.T) {
	trial, err := New("t",
		[]string{"lhand_IMU_O", "lhand_IMU_X", "lhand_IMU_Y", "RASI", "pelvis_IMU_O", "pelvis_IMU_X"},
		[]float64{0},
		[][]r3.Vec{{{}, {}, {}, {}, {}, {}}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	bases := trial.IMUBases()
	if len(bases) != 2 || bases[0] != "lhand" || bases[1] != "pelvis" {
		t.Errorf("IMUBases = %v, want [lhand pelvis]", bases)
	}
}

func TestIMUBase(t *testing.T) {
	tests := []struct {
		label string
		base  string
		ok    bool
	}{
		{"lhand_IMU_O", "lhand", true},
		{"pelvis_IMU_D", "pelvis", true},
		{"RASI", "", false},
		{"_IMU_O", "", false},
	}
	for _, tt := range tests {
		base, ok := IMUBase(tt.label)
		if ok != tt.ok || base != tt.base {
			t.Errorf("IMUBase(%q) = %q, %v; want %q, %v", tt.label, base, ok, tt.base, tt.ok)
		}
	}
}

func TestClusterAt(t *testing.T) {
	trial, err := New("t",
		[]string{"lhand_IMU_O", "lhand_IMU_X", "lhand_IMU_Y", "lhand_IMU_D"},
		[]float64{0},
		[][]r3.Vec{{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 1, Y: 1, Z: 0},
		}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c := trial.ClusterAt("lhand", 0)
	if !c.Usable() {
		t.Fatal("cluster should be usable")
	}
	if !c.HasD {
		t.Error("cluster should carry the diagonal marker")
	}

	centroid := c.Centroid()
	want := r3.Vec{X: 0.5, Y: 0.5, Z: 0}
	if d := r3.Norm(r3.Sub(centroid, want)); d > 1e-12 {
		t.Errorf("Centroid = %+v, want %+v", centroid, want)
	}
}

func TestClusterWithoutDiagonal(t *testing.T) {
	trial, err := New("t",
		[]string{"lhand_IMU_O", "lhand_IMU_X", "lhand_IMU_Y"},
		[]float64{0},
		[][]r3.Vec{{
			{X: 0, Y: 0, Z: 0},
			{X: 3, Y: 0, Z: 0},
			{X: 0, Y: 3, Z: 0},
		}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c := trial.ClusterAt("lhand", 0)
	if c.HasD {
		t.Error("cluster should not carry a diagonal marker")
	}
	centroid := c.Centroid()
	want := r3.Vec{X: 1, Y: 1, Z: 0}
	if d := r3.Norm(r3.Sub(centroid, want)); d > 1e-12 {
		t.Errorf("Centroid = %+v, want %+v", centroid, want)
	}
}

func TestClusterMissingMarkerUnusable(t *testing.T) {
	trial, err := New("t",
		[]string{"lhand_IMU_O", "lhand_IMU_X"},
		[]float64{0},
		[][]r3.Vec{{{}, {X: 1}}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c := trial.ClusterAt("lhand", 0)
	if c.Usable() {
		t.Error("cluster missing its Y marker should not be usable")
	}
	if !math.IsNaN(c.Y.X) {
		t.Errorf("missing marker should read NaN, got %+v", c.Y)
	}
}
