// Package readers parses vendor-specific IMU exports into orientation
// tables. Two layouts are supported: Xsens-style directories with one
// text file per sensor, and APDM-style single wide CSV files with one
// column group per sensor.
package readers

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/moveshelf/opensense/internal/fsutil"
)

// SensorMapping pairs a vendor-side sensor identifier with the label the
// sensor carries in the model and in output tables.
type SensorMapping struct {
	NameInExperiment string `yaml:"name_in_experiment"`
	Label            string `yaml:"label"`
}

// Settings describes a vendor export: naming pattern, trial prefix used
// to name output artifacts, and the sensor-to-label mapping.
type Settings struct {
	// TrialPrefix names the trial; Xsens per-sensor files are expected
	// as <TrialPrefix>_<name_in_experiment>.txt, and output artifacts
	// are named <TrialPrefix>_orientations.sto.
	TrialPrefix string `yaml:"trial_prefix"`

	// UpdateRate is the sample rate in Hz, used to synthesize
	// timestamps for exports that only carry sample counters.
	UpdateRate float64 `yaml:"update_rate"`

	Sensors []SensorMapping `yaml:"sensors"`
}

// LoadSettings reads and validates a YAML reader-settings file.
func LoadSettings(fsys fsutil.FileSystem, path string) (*Settings, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reader settings: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse reader settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reader settings %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks that the settings are complete enough to drive a reader.
func (s *Settings) Validate() error {
	if s.TrialPrefix == "" {
		return fmt.Errorf("trial_prefix is required")
	}
	if len(s.Sensors) == 0 {
		return fmt.Errorf("at least one sensor mapping is required")
	}
	seen := make(map[string]bool, len(s.Sensors))
	for i, m := range s.Sensors {
		if m.NameInExperiment == "" {
			return fmt.Errorf("sensor %d: name_in_experiment is required", i)
		}
		if m.Label == "" {
			return fmt.Errorf("sensor %q: label is required", m.NameInExperiment)
		}
		if seen[m.Label] {
			return fmt.Errorf("duplicate sensor label %q", m.Label)
		}
		seen[m.Label] = true
	}
	return nil
}

// Labels returns the model-side sensor labels in mapping order.
func (s *Settings) Labels() []string {
	labels := make([]string, len(s.Sensors))
	for i, m := range s.Sensors {
		labels[i] = m.Label
	}
	return labels
}
