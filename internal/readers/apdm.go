package readers

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/num/quat"

	"github.com/moveshelf/opensense/internal/fsutil"
	"github.com/moveshelf/opensense/internal/orientations"
	"github.com/moveshelf/opensense/internal/rotation"
)

// APDM exports are a single wide CSV: a Time column in seconds plus a
// column group per monitor named <monitor>/Orientation/{Scalar,X,Y,Z}.
// The settings map monitor names to model sensor labels.

var apdmQuatComponents = [4]string{"Scalar", "X", "Y", "Z"}

// ReadAPDM parses an APDM-style CSV file into an orientation table.
func ReadAPDM(fsys fsutil.FileSystem, path string, settings *Settings) (*orientations.Table, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("apdm reader: %w", err)
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open apdm file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &orientations.FormatError{Path: path, Msg: fmt.Sprintf("invalid CSV: %v", err)}
	}
	if len(records) == 0 {
		return nil, &orientations.EmptySourceError{Path: path}
	}

	header := records[0]
	timeIdx := -1
	for c, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "Time") {
			timeIdx = c
			break
		}
	}
	if timeIdx == -1 {
		return nil, &orientations.FormatError{Path: path, Msg: "missing required Time column"}
	}

	// Locate the four orientation columns of each configured monitor.
	groups := make([][4]int, len(settings.Sensors))
	for i, m := range settings.Sensors {
		for j, comp := range apdmQuatComponents {
			name := fmt.Sprintf("%s/Orientation/%s", m.NameInExperiment, comp)
			idx := -1
			for c, h := range header {
				if strings.TrimSpace(h) == name {
					idx = c
					break
				}
			}
			if idx == -1 {
				return nil, &orientations.FormatError{Path: path,
					Msg: fmt.Sprintf("missing column %q for sensor %q", name, m.Label)}
			}
			groups[i][j] = idx
		}
	}

	var times []float64
	var rows [][]quat.Number
	for r, record := range records[1:] {
		lineNo := r + 2
		if len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			continue
		}
		if timeIdx >= len(record) {
			return nil, &orientations.FormatError{Path: path,
				Msg: fmt.Sprintf("line %d has no Time value", lineNo)}
		}
		tv, err := strconv.ParseFloat(strings.TrimSpace(record[timeIdx]), 64)
		if err != nil {
			return nil, &orientations.ParseError{Path: path, Line: lineNo, Msg: "invalid Time value", Err: err}
		}

		row := make([]quat.Number, len(groups))
		for g, idx := range groups {
			var v [4]float64
			for j, c := range idx {
				if c >= len(record) {
					return nil, &orientations.FormatError{Path: path,
						Msg: fmt.Sprintf("line %d is missing orientation columns for sensor %q", lineNo, settings.Sensors[g].Label)}
				}
				f, err := strconv.ParseFloat(strings.TrimSpace(record[c]), 64)
				if err != nil {
					return nil, &orientations.ParseError{Path: path, Line: lineNo,
						Msg: fmt.Sprintf("invalid orientation value for sensor %q", settings.Sensors[g].Label), Err: err}
				}
				v[j] = f
			}
			row[g] = rotation.Normalize(quat.Number{Real: v[0], Imag: v[1], Jmag: v[2], Kmag: v[3]})
		}
		times = append(times, tv)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, &orientations.EmptySourceError{Path: path}
	}

	table, err := orientations.New(settings.Labels(), times, rows)
	if err != nil {
		return nil, &orientations.FormatError{Path: path, Msg: err.Error()}
	}
	return table, nil
}
