package calibrate

import (
	"errors"
	"fmt"
	"log"

	"gonum.org/v1/gonum/num/quat"

	"github.com/moveshelf/opensense/internal/model"
	"github.com/moveshelf/opensense/internal/orientations"
	"github.com/moveshelf/opensense/internal/rotation"
	"github.com/moveshelf/opensense/internal/units"
)

// ErrNoMatchingSensors reports that calibration had nothing to
// calibrate: no sensor in the orientation table matches a sensor frame
// declared on the model.
var ErrNoMatchingSensors = errors.New("no sensors in the orientation table match the model")

// Report summarizes an orientation-based calibration run.
type Report struct {
	Heading HeadingCorrection

	// Matched lists the sensor labels that were calibrated.
	Matched []string

	// SkippedModel lists model sensor frames absent from the table.
	SkippedModel []string

	// SkippedTable lists table sensors not declared on the model.
	SkippedTable []string
}

// CalibrateFromOrientations registers the model's declared sensor
// frames against a static orientation trial. The model's default pose
// is taken as the calibration pose; the first table row is the
// calibration instant. When baseSensor is non-empty the whole table is
// heading-corrected first using that sensor's axis. Mismatched sensors
// on either side are skipped with a warning; zero matches fail with
// ErrNoMatchingSensors.
func CalibrateFromOrientations(m model.Model, table *orientations.Table, baseSensor string, axis units.Axis) (*Report, error) {
	report := &Report{}

	if baseSensor != "" {
		col, ok := table.ColumnIndex(baseSensor)
		if !ok {
			return nil, fmt.Errorf("base sensor %q not found in the orientation table (have %v)",
				baseSensor, table.Labels())
		}
		angle, err := ComputeHeadingCorrection(table.At(0, col), axis)
		if err != nil {
			return nil, fmt.Errorf("heading correction from sensor %q: %w", baseSensor, err)
		}
		// The heading angle, negated, aligns the base sensor's axis
		// with the ground forward direction.
		table = ApplyHeadingCorrection(table, -angle)
		report.Heading = HeadingCorrection{Applied: true, Angle: -angle, Sensor: baseSensor, Axis: axis}
		log.Printf("Applied heading correction of %.2f degrees using sensor %q axis %s",
			units.RadToDeg(-angle), baseSensor, axis)
	} else {
		log.Printf("No base sensor designated: orientations are assumed to be expressed in the model's ground frame")
	}

	pose := m.DefaultPose()
	for _, sf := range m.SensorFrames() {
		col, ok := table.ColumnIndex(sf.Name)
		if !ok {
			log.Printf("Sensor %q is declared on the model but missing from the orientation table; skipping", sf.Name)
			report.SkippedModel = append(report.SkippedModel, sf.Name)
			continue
		}

		seg, ok := m.Segment(sf.Segment)
		if !ok {
			log.Printf("Sensor %q references unknown segment %q; skipping", sf.Name, sf.Segment)
			report.SkippedModel = append(report.SkippedModel, sf.Name)
			continue
		}
		segTransform, err := seg.TransformInGround(pose)
		if err != nil {
			return nil, fmt.Errorf("segment %q: %w", sf.Segment, err)
		}

		// The offset that reproduces the corrected sensor orientation
		// when composed with the segment's calibration-pose rotation.
		sensorInGround := table.At(0, col)
		sf.Rotation = rotation.Normalize(quat.Mul(quat.Conj(segTransform.Rotation), sensorInGround))
		report.Matched = append(report.Matched, sf.Name)
	}

	declared := make(map[string]bool, len(m.SensorFrames()))
	for _, sf := range m.SensorFrames() {
		declared[sf.Name] = true
	}
	for _, label := range table.Labels() {
		if !declared[label] {
			log.Printf("Sensor %q is present in the orientation table but not declared on the model; skipping", label)
			report.SkippedTable = append(report.SkippedTable, label)
		}
	}

	if len(report.Matched) == 0 {
		return nil, fmt.Errorf("calibration with %d table sensors and %d model sensors: %w",
			len(table.Labels()), len(m.SensorFrames()), ErrNoMatchingSensors)
	}
	return report, nil
}
