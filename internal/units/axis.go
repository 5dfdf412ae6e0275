// Package units provides shared constants and validation for angles and
// coordinate axes.
package units

import (
	"fmt"
	"strings"
)

// Axis identifies one of the three local coordinate axes of a sensor or frame.
type Axis int

// Axis constants
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ValidAxes contains all valid axis spellings accepted on the command line.
var ValidAxes = []string{"x", "y", "z"}

// ParseAxis converts a single-letter axis designation ("x", "y" or "z",
// case-insensitive) into an Axis.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return AxisX, fmt.Errorf("invalid axis %q: must be one of %s", s, GetValidAxesString())
}

// GetValidAxesString returns a comma-separated string of valid axes for error messages
func GetValidAxesString() string {
	return strings.Join(ValidAxes, ", ")
}

// String returns the lower-case letter name of the axis.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// IsValid checks whether the axis is one of the three defined axes.
func (a Axis) IsValid() bool {
	return a == AxisX || a == AxisY || a == AxisZ
}
