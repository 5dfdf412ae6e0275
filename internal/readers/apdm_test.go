package readers

import (
	"errors"
	"math"
	"testing"

	"github.com/moveshelf/opensense/internal/fsutil"
	"github.com/moveshelf/opensense/internal/orientations"
)

func apdmSettings() *Settings {
	return &Settings{
		TrialPrefix: "static_pose",
		Sensors: []SensorMapping{
			{NameInExperiment: "Opal_1", Label: "pelvis_imu"},
			{NameInExperiment: "Opal_2", Label: "femur_imu"},
		},
	}
}

const apdmCSV = `Time,Opal_1/Orientation/Scalar,Opal_1/Orientation/X,Opal_1/Orientation/Y,Opal_1/Orientation/Z,Opal_2/Orientation/Scalar,Opal_2/Orientation/X,Opal_2/Orientation/Y,Opal_2/Orientation/Z
0.000,1,0,0,0,0.995004,0.099833,0,0
0.008,1,0,0,0,0.995004,0.099833,0,0
0.016,1,0,0,0,0.995004,0.099833,0,0
`

func TestReadAPDM(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("static_pose.csv", []byte(apdmCSV), 0644)

	table, err := ReadAPDM(fs, "static_pose.csv", apdmSettings())
	if err != nil {
		t.Fatalf("ReadAPDM failed: %v", err)
	}

	if table.NumRows() != 3 {
		t.Errorf("NumRows = %d, want 3", table.NumRows())
	}
	if table.Labels()[0] != "pelvis_imu" || table.Labels()[1] != "femur_imu" {
		t.Errorf("labels = %v", table.Labels())
	}
	if math.Abs(table.Time(2)-0.016) > 1e-12 {
		t.Errorf("Time(2) = %v, want 0.016", table.Time(2))
	}
	if q := table.At(0, 1); math.Abs(q.Real-0.995004) > 1e-5 || math.Abs(q.Imag-0.099833) > 1e-5 {
		t.Errorf("femur_imu orientation = %+v", q)
	}
}

func TestReadAPDMMissingSensorGroup(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("static_pose.csv", []byte(apdmCSV), 0644)

	s := apdmSettings()
	s.Sensors = append(s.Sensors, SensorMapping{NameInExperiment: "Opal_9", Label: "hand_imu"})

	_, err := ReadAPDM(fs, "static_pose.csv", s)
	var fe *orientations.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("want FormatError for missing sensor group, got %v", err)
	}
}

func TestReadAPDMMissingTimeColumn(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	csv := "Opal_1/Orientation/Scalar,Opal_1/Orientation/X,Opal_1/Orientation/Y,Opal_1/Orientation/Z\n1,0,0,0\n"
	fs.WriteFile("no_time.csv", []byte(csv), 0644)

	s := apdmSettings()
	s.Sensors = s.Sensors[:1]

	_, err := ReadAPDM(fs, "no_time.csv", s)
	var fe *orientations.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("want FormatError for missing Time column, got %v", err)
	}
}

func TestReadAPDMMalformedValue(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	csv := "Time,Opal_1/Orientation/Scalar,Opal_1/Orientation/X,Opal_1/Orientation/Y,Opal_1/Orientation/Z\n0.0,bad,0,0,0\n"
	fs.WriteFile("bad.csv", []byte(csv), 0644)

	s := apdmSettings()
	s.Sensors = s.Sensors[:1]

	_, err := ReadAPDM(fs, "bad.csv", s)
	var pe *orientations.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want ParseError, got %v", err)
	}
	if pe.Line != 2 {
		t.Errorf("ParseError.Line = %d, want 2", pe.Line)
	}
}

func TestReadAPDMNoDataRows(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	csv := "Time,Opal_1/Orientation/Scalar,Opal_1/Orientation/X,Opal_1/Orientation/Y,Opal_1/Orientation/Z\n"
	fs.WriteFile("empty.csv", []byte(csv), 0644)

	s := apdmSettings()
	s.Sensors = s.Sensors[:1]

	_, err := ReadAPDM(fs, "empty.csv", s)
	var ee *orientations.EmptySourceError
	if !errors.As(err, &ee) {
		t.Fatalf("want EmptySourceError, got %v", err)
	}
}
