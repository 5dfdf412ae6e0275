package orientations

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/num/quat"

	"github.com/moveshelf/opensense/internal/fsutil"
)

// The normalized orientation-table interchange format: a text header of
// key=value lines terminated by "endheader", a tab-separated column
// header naming "time" plus the sensor labels, and one row per sample
// with each quaternion cell comma-joined as w,x,y,z.

const stoDataType = "Quaternion"

// WriteSTO writes the table to path in the interchange format.
func (t *Table) WriteSTO(fsys fsutil.FileSystem, path string) error {
	var b strings.Builder

	rate := 0.0
	if n := t.NumRows(); n > 1 {
		rate = float64(n-1) / (t.times[n-1] - t.times[0])
	}
	fmt.Fprintf(&b, "DataRate=%.6f\n", rate)
	fmt.Fprintf(&b, "DataType=%s\n", stoDataType)
	fmt.Fprintf(&b, "version=3\n")
	fmt.Fprintf(&b, "endheader\n")

	b.WriteString("time")
	for _, label := range t.labels {
		b.WriteByte('\t')
		b.WriteString(label)
	}
	b.WriteByte('\n')

	for i, row := range t.rows {
		fmt.Fprintf(&b, "%.8f", t.times[i])
		for _, q := range row {
			fmt.Fprintf(&b, "\t%.8f,%.8f,%.8f,%.8f", q.Real, q.Imag, q.Jmag, q.Kmag)
		}
		b.WriteByte('\n')
	}

	if err := fsys.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write orientation table %s: %w", path, err)
	}
	return nil
}

// ReadSTO loads a table in the interchange format from path.
func ReadSTO(fsys fsutil.FileSystem, path string) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open orientation table: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0

	// Header: key=value lines up to endheader.
	dataType := ""
	sawEnd := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "endheader" {
			sawEnd = true
			break
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			if strings.EqualFold(strings.TrimSpace(key), "DataType") {
				dataType = strings.TrimSpace(value)
			}
		}
	}
	if !sawEnd {
		return nil, &FormatError{Path: path, Msg: "missing endheader line"}
	}
	if dataType != stoDataType {
		return nil, &FormatError{Path: path, Msg: fmt.Sprintf("DataType=%q, want %q", dataType, stoDataType)}
	}

	if !scanner.Scan() {
		return nil, &EmptySourceError{Path: path}
	}
	lineNo++
	header := strings.Split(strings.TrimRight(scanner.Text(), "\r\n"), "\t")
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "time") {
		return nil, &FormatError{Path: path, Msg: "column header must start with 'time' followed by sensor labels"}
	}
	labels := make([]string, 0, len(header)-1)
	for _, h := range header[1:] {
		labels = append(labels, strings.TrimSpace(h))
	}

	var times []float64
	var rows [][]quat.Number
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(labels)+1 {
			return nil, &FormatError{Path: path,
				Msg: fmt.Sprintf("line %d has %d columns, want %d", lineNo, len(fields), len(labels)+1)}
		}

		tv, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, &ParseError{Path: path, Line: lineNo, Msg: "invalid timestamp", Err: err}
		}

		row := make([]quat.Number, 0, len(labels))
		for c, cell := range fields[1:] {
			q, err := parseQuaternionCell(cell)
			if err != nil {
				return nil, &ParseError{Path: path, Line: lineNo,
					Msg: fmt.Sprintf("invalid quaternion for sensor %q", labels[c]), Err: err}
			}
			row = append(row, q)
		}
		times = append(times, tv)
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read orientation table %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, &EmptySourceError{Path: path}
	}

	table, err := New(labels, times, rows)
	if err != nil {
		return nil, &FormatError{Path: path, Msg: err.Error()}
	}
	return table, nil
}

func parseQuaternionCell(cell string) (quat.Number, error) {
	parts := strings.Split(strings.TrimSpace(cell), ",")
	if len(parts) != 4 {
		return quat.Number{}, fmt.Errorf("have %d components, want 4", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return quat.Number{}, err
		}
		v[i] = f
	}
	return quat.Number{Real: v[0], Imag: v[1], Jmag: v[2], Kmag: v[3]}, nil
}
