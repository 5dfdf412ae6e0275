// Package model defines the narrow boundary to the articulated-model
// collaborator: segments with ground transforms at a pose, declared
// sensor frames, marker ownership, and serialization. The calibration
// driver depends only on these interfaces; StaticModel is a JSON-backed
// implementation sufficient for static calibration trials.
package model

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moveshelf/opensense/internal/fsutil"
	"github.com/moveshelf/opensense/internal/markers"
	"github.com/moveshelf/opensense/internal/rotation"
)

// Pose is one assembled configuration of a model: each segment's rigid
// transform in ground at a single instant.
type Pose struct {
	Time   float64
	ground map[string]rotation.Transform
}

// NewPose builds a pose from per-segment ground transforms.
func NewPose(time float64, ground map[string]rotation.Transform) *Pose {
	return &Pose{Time: time, ground: ground}
}

// TransformInGround returns the named segment's transform in ground.
func (p *Pose) TransformInGround(segment string) (rotation.Transform, bool) {
	t, ok := p.ground[segment]
	return t, ok
}

// OffsetFrame is a rigid frame attached to a body segment at a fixed
// relative transform, representing a sensor mounting.
type OffsetFrame struct {
	Name      string
	Transform rotation.Transform
}

// SensorFrame is an IMU frame declared on the model: its label, owning
// segment, and orientation offset in the segment's frame.
type SensorFrame struct {
	Name     string
	Segment  string
	Rotation quat.Number
}

// Marker is a model marker: its label, owning segment, and location in
// the segment's frame.
type Marker struct {
	Name     string
	Segment  string
	Location r3.Vec
}

// Segment is a rigid body segment of the model.
type Segment interface {
	Name() string

	// TransformInGround returns the segment's transform in ground at
	// the given pose.
	TransformInGround(p *Pose) (rotation.Transform, error)

	// AttachFrame attaches an offset frame to the segment. The model
	// owns the frame after attachment.
	AttachFrame(f OffsetFrame)

	// Frames returns the offset frames attached so far.
	Frames() []OffsetFrame
}

// Model is the articulated-model collaborator.
type Model interface {
	Name() string
	SetName(name string)

	// Markers returns the model's markers in declaration order.
	Markers() []Marker

	// Segment looks up a segment by name.
	Segment(name string) (Segment, bool)

	// SensorFrames returns the model's declared IMU frames. Calibration
	// writes offsets into the returned values.
	SensorFrames() []*SensorFrame

	// DefaultPose returns the model posed in its default (calibration)
	// configuration.
	DefaultPose() *Pose

	// FinalizeConnections re-validates the component graph after
	// frames have been attached.
	FinalizeConnections() error

	// Print serializes the model description to path.
	Print(fsys fsutil.FileSystem, path string) error
}

// Solver assembles a model pose from a marker trial row. The full
// marker-based inverse kinematics solve is owned by an external
// collaborator; implementations here only need to satisfy this contract.
type Solver interface {
	Assemble(m Model, trial *markers.Trial, row int) (*Pose, error)
}

// DefaultPoseSolver poses the model in its default configuration at the
// trial row's timestamp. Valid when the trial captures the subject in
// the model's calibration pose.
type DefaultPoseSolver struct{}

// Assemble returns the model's default pose stamped with the row time.
func (DefaultPoseSolver) Assemble(m Model, trial *markers.Trial, row int) (*Pose, error) {
	if row < 0 || row >= trial.NumRows() {
		return nil, fmt.Errorf("trial row %d out of range (have %d rows)", row, trial.NumRows())
	}
	pose := m.DefaultPose()
	pose.Time = trial.Time(row)
	return pose, nil
}
