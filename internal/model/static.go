package model

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moveshelf/opensense/internal/fsutil"
	"github.com/moveshelf/opensense/internal/rotation"
)

// StaticModel is a JSON-backed model description: segments with their
// ground transforms in the default pose, markers, and declared sensor
// frames. It implements the Model boundary for static registration and
// calibration runs.
type StaticModel struct {
	name     string
	order    []string
	segments map[string]*StaticSegment
	markers  []Marker
	sensors  []*SensorFrame
}

// StaticSegment is a rigid segment with a fixed default-pose transform.
type StaticSegment struct {
	name             string
	defaultTransform rotation.Transform
	frames           []OffsetFrame
}

// Name returns the segment name.
func (s *StaticSegment) Name() string { return s.name }

// TransformInGround returns the segment's transform at the pose.
func (s *StaticSegment) TransformInGround(p *Pose) (rotation.Transform, error) {
	t, ok := p.TransformInGround(s.name)
	if !ok {
		return rotation.Transform{}, fmt.Errorf("pose has no transform for segment %q", s.name)
	}
	return t, nil
}

// AttachFrame attaches an offset frame, replacing any frame of the same
// name so re-registration overwrites instead of duplicating.
func (s *StaticSegment) AttachFrame(f OffsetFrame) {
	for i, existing := range s.frames {
		if existing.Name == f.Name {
			s.frames[i] = f
			return
		}
	}
	s.frames = append(s.frames, f)
}

// Frames returns the attached offset frames.
func (s *StaticSegment) Frames() []OffsetFrame { return s.frames }

// Name returns the model name.
func (m *StaticModel) Name() string { return m.name }

// SetName renames the model.
func (m *StaticModel) SetName(name string) { m.name = name }

// Markers returns the model markers in declaration order.
func (m *StaticModel) Markers() []Marker { return m.markers }

// Segment looks up a segment by name.
func (m *StaticModel) Segment(name string) (Segment, bool) {
	s, ok := m.segments[name]
	return s, ok
}

// SensorFrames returns the declared IMU frames.
func (m *StaticModel) SensorFrames() []*SensorFrame { return m.sensors }

// DefaultPose poses every segment at its default transform.
func (m *StaticModel) DefaultPose() *Pose {
	ground := make(map[string]rotation.Transform, len(m.segments))
	for name, s := range m.segments {
		ground[name] = s.defaultTransform
	}
	return NewPose(0, ground)
}

// FinalizeConnections re-validates the component graph.
func (m *StaticModel) FinalizeConnections() error {
	return m.validate()
}

func (m *StaticModel) validate() error {
	if m.name == "" {
		return fmt.Errorf("model has no name")
	}
	if len(m.segments) == 0 {
		return fmt.Errorf("model %q has no segments", m.name)
	}
	for _, mk := range m.markers {
		if _, ok := m.segments[mk.Segment]; !ok {
			return fmt.Errorf("marker %q references unknown segment %q", mk.Name, mk.Segment)
		}
	}
	for _, sf := range m.sensors {
		if _, ok := m.segments[sf.Segment]; !ok {
			return fmt.Errorf("sensor %q references unknown segment %q", sf.Name, sf.Segment)
		}
	}
	return nil
}

// JSON document layout for the model description file.

type modelDoc struct {
	Name     string       `json:"name"`
	Segments []segmentDoc `json:"segments"`
	Markers  []markerDoc  `json:"markers,omitempty"`
	Sensors  []sensorDoc  `json:"sensors,omitempty"`
}

type segmentDoc struct {
	Name     string     `json:"name"`
	Rotation [4]float64 `json:"rotation"` // w,x,y,z of the segment in ground, default pose
	Origin   [3]float64 `json:"origin"`
	Frames   []frameDoc `json:"attached_frames,omitempty"`
}

type frameDoc struct {
	Name     string     `json:"name"`
	Rotation [4]float64 `json:"rotation"` // w,x,y,z of the frame in the segment
	Origin   [3]float64 `json:"origin"`
}

type markerDoc struct {
	Name     string     `json:"name"`
	Segment  string     `json:"segment"`
	Location [3]float64 `json:"location"`
}

type sensorDoc struct {
	Name     string     `json:"name"`
	Segment  string     `json:"segment"`
	Rotation [4]float64 `json:"rotation"`
}

func quatToArray(q quat.Number) [4]float64 {
	return [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}

func quatFromArray(a [4]float64) quat.Number {
	return quat.Number{Real: a[0], Imag: a[1], Jmag: a[2], Kmag: a[3]}
}

func vecToArray(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func vecFromArray(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

// Load reads a model description from a JSON file.
func Load(fsys fsutil.FileSystem, path string) (*StaticModel, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var doc modelDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}

	m := &StaticModel{
		name:     doc.Name,
		segments: make(map[string]*StaticSegment, len(doc.Segments)),
	}
	for _, sd := range doc.Segments {
		if _, dup := m.segments[sd.Name]; dup {
			return nil, fmt.Errorf("model %s: duplicate segment %q", path, sd.Name)
		}
		seg := &StaticSegment{
			name: sd.Name,
			defaultTransform: rotation.Transform{
				Rotation: rotation.Normalize(quatFromArray(sd.Rotation)),
				Origin:   vecFromArray(sd.Origin),
			},
		}
		for _, fd := range sd.Frames {
			seg.frames = append(seg.frames, OffsetFrame{
				Name: fd.Name,
				Transform: rotation.Transform{
					Rotation: rotation.Normalize(quatFromArray(fd.Rotation)),
					Origin:   vecFromArray(fd.Origin),
				},
			})
		}
		m.segments[sd.Name] = seg
		m.order = append(m.order, sd.Name)
	}
	for _, md := range doc.Markers {
		m.markers = append(m.markers, Marker{
			Name:     md.Name,
			Segment:  md.Segment,
			Location: vecFromArray(md.Location),
		})
	}
	for _, sd := range doc.Sensors {
		m.sensors = append(m.sensors, &SensorFrame{
			Name:     sd.Name,
			Segment:  sd.Segment,
			Rotation: rotation.Normalize(quatFromArray(sd.Rotation)),
		})
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

// Print writes the model description to path as JSON.
func (m *StaticModel) Print(fsys fsutil.FileSystem, path string) error {
	doc := modelDoc{Name: m.name}
	for _, name := range m.order {
		s := m.segments[name]
		sd := segmentDoc{
			Name:     s.name,
			Rotation: quatToArray(s.defaultTransform.Rotation),
			Origin:   vecToArray(s.defaultTransform.Origin),
		}
		for _, f := range s.frames {
			sd.Frames = append(sd.Frames, frameDoc{
				Name:     f.Name,
				Rotation: quatToArray(f.Transform.Rotation),
				Origin:   vecToArray(f.Transform.Origin),
			})
		}
		doc.Segments = append(doc.Segments, sd)
	}
	for _, mk := range m.markers {
		doc.Markers = append(doc.Markers, markerDoc{
			Name:     mk.Name,
			Segment:  mk.Segment,
			Location: vecToArray(mk.Location),
		})
	}
	for _, sf := range m.sensors {
		doc.Sensors = append(doc.Sensors, sensorDoc{
			Name:     sf.Name,
			Segment:  sf.Segment,
			Rotation: quatToArray(sf.Rotation),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	data = append(data, '\n')
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write model %s: %w", path, err)
	}
	return nil
}

// NewStaticModel builds a model in memory. Intended for tests and for
// callers that assemble models programmatically.
func NewStaticModel(name string) *StaticModel {
	return &StaticModel{name: name, segments: make(map[string]*StaticSegment)}
}

// AddSegment adds a segment with its default-pose ground transform.
func (m *StaticModel) AddSegment(name string, defaultTransform rotation.Transform) *StaticSegment {
	seg := &StaticSegment{name: name, defaultTransform: defaultTransform}
	m.segments[name] = seg
	m.order = append(m.order, name)
	return seg
}

// AddMarker declares a marker on a segment.
func (m *StaticModel) AddMarker(name, segment string, location r3.Vec) {
	m.markers = append(m.markers, Marker{Name: name, Segment: segment, Location: location})
}

// AddSensorFrame declares an IMU frame on a segment.
func (m *StaticModel) AddSensorFrame(name, segment string, offset quat.Number) *SensorFrame {
	sf := &SensorFrame{Name: name, Segment: segment, Rotation: offset}
	m.sensors = append(m.sensors, sf)
	return sf
}
