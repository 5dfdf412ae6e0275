package calibrate

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/num/quat"

	"github.com/moveshelf/opensense/internal/markers"
	"github.com/moveshelf/opensense/internal/orientations"
	"github.com/moveshelf/opensense/internal/rotation"
)

// formClusterFrame builds the ground-frame transform of an IMU plate
// from its marker cluster. The origin is refined to the cluster
// centroid when the diagonal marker was observed.
func formClusterFrame(c markers.Cluster) (rotation.Transform, error) {
	frame, err := rotation.FormFrameFromPoints(c.O, c.X, c.Y)
	if err != nil {
		return rotation.Transform{}, err
	}
	if c.HasD {
		frame.Origin = c.Centroid()
	}
	return frame, nil
}

// CreateOrientationsFromMarkers converts the IMU marker clusters of a
// trial into a quaternion orientation table, one column per cluster
// labelled <base>_IMU. Clusters are selected at the first sample; a row
// where any selected cluster is degenerate or occluded is dropped with
// a warning so the table stays rectangular.
func CreateOrientationsFromMarkers(trial *markers.Trial) (*orientations.Table, error) {
	var bases []string
	for _, base := range trial.IMUBases() {
		if !trial.ClusterAt(base, 0).Usable() {
			log.Printf("Marker cluster %q is not observed at the first sample of trial %q; excluding it",
				base, trial.Name())
			continue
		}
		bases = append(bases, base)
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("trial %q: no usable IMU marker clusters", trial.Name())
	}

	labels := make([]string, len(bases))
	for i, base := range bases {
		labels[i] = base + "_IMU"
	}

	var times []float64
	var rows [][]quat.Number
	dropped := 0
	for r := 0; r < trial.NumRows(); r++ {
		row := make([]quat.Number, len(bases))
		ok := true
		for i, base := range bases {
			cluster := trial.ClusterAt(base, r)
			if !cluster.Usable() {
				ok = false
				break
			}
			frame, err := formClusterFrame(cluster)
			if err != nil {
				ok = false
				break
			}
			row[i] = frame.Rotation
		}
		if !ok {
			dropped++
			continue
		}
		times = append(times, trial.Time(r))
		rows = append(rows, row)
	}
	if dropped > 0 {
		log.Printf("Dropped %d of %d samples of trial %q with occluded or degenerate clusters",
			dropped, trial.NumRows(), trial.Name())
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("trial %q: every sample had an occluded or degenerate cluster", trial.Name())
	}

	table, err := orientations.New(labels, times, rows)
	if err != nil {
		return nil, fmt.Errorf("trial %q: %w", trial.Name(), err)
	}
	return table, nil
}
