package calibrate

import (
	"fmt"
	"log"
	"strings"

	"github.com/moveshelf/opensense/internal/markers"
	"github.com/moveshelf/opensense/internal/model"
)

// RegisterReport summarizes a marker-based registration run.
type RegisterReport struct {
	// Attached lists the names of the offset frames added to the model.
	Attached []string

	// Skipped lists the cluster bases that could not define a frame.
	Skipped []string
}

// pendingFrame is a frame queued for attachment once model traversal
// has finished, so the component graph is never mutated mid-iteration.
type pendingFrame struct {
	segment model.Segment
	frame   model.OffsetFrame
}

// RegisterIMUFrames infers sensor mounting frames from the _IMU marker
// clusters of a trial and attaches them to the model's segments. The
// model is posed once against the trial's first sample via the solver;
// each usable cluster yields one offset frame in its owning segment.
// At most one frame is attached per segment; clusters mapping to an
// already-claimed segment are skipped. Unusable clusters are skipped
// with a warning, so partial registration is an expected outcome.
func RegisterIMUFrames(m model.Model, trial *markers.Trial, solver model.Solver) (*RegisterReport, error) {
	pose, err := solver.Assemble(m, trial, 0)
	if err != nil {
		return nil, fmt.Errorf("assemble static pose from trial %q: %w", trial.Name(), err)
	}

	report := &RegisterReport{}
	var pending []pendingFrame
	claimed := make(map[string]bool)
	tried := make(map[string]bool)

	for _, marker := range m.Markers() {
		base, ok := markers.IMUBase(marker.Name)
		if !ok {
			continue
		}
		// A model may declare several markers of the same cluster.
		if tried[base] {
			continue
		}
		tried[base] = true
		// One frame per segment; the first cluster that yields a frame
		// wins. A skipped cluster leaves the segment open for a later
		// cluster in the marker order.
		if claimed[marker.Segment] {
			continue
		}

		cluster := trial.ClusterAt(base, 0)
		if !cluster.Usable() {
			log.Printf("Marker cluster %q has unobserved markers and cannot define an IMU frame on segment %q; skipping",
				base, marker.Segment)
			report.Skipped = append(report.Skipped, base)
			continue
		}

		// Frame of the IMU plate expressed in ground.
		frameInGround, err := formClusterFrame(cluster)
		if err != nil {
			log.Printf("Marker cluster %q on segment %q: %v; skipping", base, marker.Segment, err)
			report.Skipped = append(report.Skipped, base)
			continue
		}

		seg, ok := m.Segment(marker.Segment)
		if !ok {
			return nil, fmt.Errorf("marker %q references unknown segment %q", marker.Name, marker.Segment)
		}
		segInGround, err := seg.TransformInGround(pose)
		if err != nil {
			return nil, fmt.Errorf("segment %q: %w", marker.Segment, err)
		}

		// Re-express the IMU frame in the segment's own frame.
		frameInSegment := segInGround.Inverse().Compose(frameInGround)

		name := strings.ToLower(base) + "_imu"
		pending = append(pending, pendingFrame{
			segment: seg,
			frame:   model.OffsetFrame{Name: name, Transform: frameInSegment},
		})
		claimed[marker.Segment] = true
		report.Attached = append(report.Attached, name)
	}

	// Mutate the model only after traversal is complete.
	for _, p := range pending {
		p.segment.AttachFrame(p.frame)
	}
	if err := m.FinalizeConnections(); err != nil {
		return nil, fmt.Errorf("finalize model after attaching %d frames: %w", len(pending), err)
	}

	if len(report.Attached) == 0 {
		log.Printf("Trial %q contained no usable IMU marker clusters; model is unchanged", trial.Name())
	}
	m.SetName(m.Name() + "_" + trial.Name() + "_IMUs")
	return report, nil
}
