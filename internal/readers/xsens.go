package readers

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/num/quat"

	"github.com/moveshelf/opensense/internal/fsutil"
	"github.com/moveshelf/opensense/internal/orientations"
	"github.com/moveshelf/opensense/internal/rotation"
)

// Xsens exports write one tab-delimited text file per sensor. Lines
// beginning with "//" are comments, the first remaining line names the
// columns, and the quaternion lives in the Quat_q0..Quat_q3 columns
// (scalar first). Timestamps are synthesized from the update rate since
// the files only carry packet counters.

var xsensQuatColumns = [4]string{"Quat_q0", "Quat_q1", "Quat_q2", "Quat_q3"}

// ReadXsens parses an Xsens-style export directory into an orientation
// table, using the settings to locate one file per configured sensor.
func ReadXsens(fsys fsutil.FileSystem, dir string, settings *Settings) (*orientations.Table, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("xsens reader: %w", err)
	}
	if settings.UpdateRate <= 0 {
		return nil, fmt.Errorf("xsens reader: update_rate must be positive, got %v", settings.UpdateRate)
	}

	columns := make([][]quat.Number, len(settings.Sensors))
	numRows := -1
	for i, m := range settings.Sensors {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", settings.TrialPrefix, m.NameInExperiment))
		if !fsys.Exists(path) {
			return nil, &orientations.FormatError{Path: path,
				Msg: fmt.Sprintf("missing data file for sensor %q", m.Label)}
		}
		col, err := readXsensFile(fsys, path)
		if err != nil {
			return nil, err
		}
		if numRows == -1 {
			numRows = len(col)
		} else if len(col) != numRows {
			return nil, &orientations.FormatError{Path: path,
				Msg: fmt.Sprintf("sensor %q has %d samples, other sensors have %d", m.Label, len(col), numRows)}
		}
		columns[i] = col
	}

	times := make([]float64, numRows)
	rows := make([][]quat.Number, numRows)
	dt := 1 / settings.UpdateRate
	for r := 0; r < numRows; r++ {
		times[r] = float64(r) * dt
		row := make([]quat.Number, len(columns))
		for c := range columns {
			row[c] = columns[c][r]
		}
		rows[r] = row
	}

	table, err := orientations.New(settings.Labels(), times, rows)
	if err != nil {
		return nil, &orientations.FormatError{Path: dir, Msg: err.Error()}
	}
	return table, nil
}

// readXsensFile parses one per-sensor text file into a quaternion column.
func readXsensFile(fsys fsutil.FileSystem, path string) ([]quat.Number, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open xsens file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0

	// Skip comment lines, then read the column header.
	var header []string
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		header = strings.Split(line, "\t")
		break
	}
	if header == nil {
		return nil, &orientations.EmptySourceError{Path: path}
	}

	var quatIdx [4]int
	for i, name := range xsensQuatColumns {
		idx := -1
		for c, h := range header {
			if strings.TrimSpace(h) == name {
				idx = c
				break
			}
		}
		if idx == -1 {
			return nil, &orientations.FormatError{Path: path,
				Msg: fmt.Sprintf("missing required column %q", name)}
		}
		quatIdx[i] = idx
	}

	var col []quat.Number
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		fields := strings.Split(line, "\t")

		var v [4]float64
		for i, idx := range quatIdx {
			if idx >= len(fields) {
				return nil, &orientations.FormatError{Path: path,
					Msg: fmt.Sprintf("line %d has %d columns, quaternion needs column %d", lineNo, len(fields), idx+1)}
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(fields[idx]), 64)
			if err != nil {
				return nil, &orientations.ParseError{Path: path, Line: lineNo,
					Msg: fmt.Sprintf("invalid %s value", xsensQuatColumns[i]), Err: err}
			}
			v[i] = f
		}
		col = append(col, rotation.Normalize(quat.Number{Real: v[0], Imag: v[1], Jmag: v[2], Kmag: v[3]}))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read xsens file %s: %w", path, err)
	}
	if len(col) == 0 {
		return nil, &orientations.EmptySourceError{Path: path}
	}
	return col, nil
}
