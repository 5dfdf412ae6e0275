// Package markers loads marker trials and extracts the labeled marker
// clusters that define IMU mounting frames on body segments.
package markers

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moveshelf/opensense/internal/fsutil"
	"github.com/moveshelf/opensense/internal/orientations"
)

// Trial is a time-indexed table of 3-D marker positions. Occluded
// markers are stored as NaN positions.
type Trial struct {
	name   string
	labels []string
	times  []float64
	rows   [][]r3.Vec
}

// Name returns the trial name, taken from the file name without extension.
func (t *Trial) Name() string { return t.name }

// Labels returns the marker labels in column order.
func (t *Trial) Labels() []string { return t.labels }

// NumRows returns the number of time samples.
func (t *Trial) NumRows() int { return len(t.times) }

// Time returns the timestamp of row i.
func (t *Trial) Time(i int) float64 { return t.times[i] }

// Position returns the position of the labeled marker at row i.
func (t *Trial) Position(i int, label string) (r3.Vec, bool) {
	for c, l := range t.labels {
		if l == label {
			return t.rows[i][c], true
		}
	}
	return r3.Vec{}, false
}

// HasColumn reports whether the trial carries the marker label.
func (t *Trial) HasColumn(label string) bool {
	for _, l := range t.labels {
		if l == label {
			return true
		}
	}
	return false
}

// New builds a trial from already-parsed columns. Intended for tests;
// file input goes through ReadTRC.
func New(name string, labels []string, times []float64, rows [][]r3.Vec) (*Trial, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("marker trial has no labels")
	}
	if len(times) == 0 || len(times) != len(rows) {
		return nil, fmt.Errorf("marker trial has %d timestamps and %d rows", len(times), len(rows))
	}
	for i, row := range rows {
		if len(row) != len(labels) {
			return nil, fmt.Errorf("row %d has %d positions, want %d", i, len(row), len(labels))
		}
		if i > 0 && times[i] <= times[i-1] {
			return nil, fmt.Errorf("timestamps must be strictly increasing at row %d", i)
		}
	}
	return &Trial{name: name, labels: labels, times: times, rows: rows}, nil
}

// ReadTRC loads a marker trial in the tab-separated .trc layout: two
// metadata lines, a header line starting with "Frame#" naming one
// marker per X/Y/Z column triple, a sub-header line of component
// labels, then one row per frame. Missing coordinates read as NaN.
func ReadTRC(fsys fsutil.FileSystem, path string) (*Trial, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open marker trial: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0

	// Skip metadata until the Frame# header.
	var header []string
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "Frame#") {
			header = strings.Split(line, "\t")
			break
		}
	}
	if header == nil {
		return nil, &orientations.FormatError{Path: path, Msg: "missing Frame# header line"}
	}

	var labels []string
	for _, h := range header[2:] {
		h = strings.TrimSpace(h)
		if h != "" {
			labels = append(labels, h)
		}
	}
	if len(labels) == 0 {
		return nil, &orientations.FormatError{Path: path, Msg: "header names no markers"}
	}

	// Component sub-header (X1 Y1 Z1 ...) follows the marker names.
	if !scanner.Scan() {
		return nil, &orientations.EmptySourceError{Path: path}
	}
	lineNo++

	var times []float64
	var rows [][]r3.Vec
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, &orientations.FormatError{Path: path,
				Msg: fmt.Sprintf("line %d has no frame and time columns", lineNo)}
		}

		tv, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, &orientations.ParseError{Path: path, Line: lineNo, Msg: "invalid time value", Err: err}
		}

		row := make([]r3.Vec, len(labels))
		for m := range labels {
			base := 2 + 3*m
			row[m] = r3.Vec{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
			if base+2 >= len(fields) {
				continue
			}
			var v [3]float64
			ok := true
			for c := 0; c < 3; c++ {
				s := strings.TrimSpace(fields[base+c])
				if s == "" {
					ok = false
					break
				}
				f, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, &orientations.ParseError{Path: path, Line: lineNo,
						Msg: fmt.Sprintf("invalid coordinate for marker %q", labels[m]), Err: err}
				}
				v[c] = f
			}
			if ok {
				row[m] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
			}
		}
		times = append(times, tv)
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read marker trial %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, &orientations.EmptySourceError{Path: path}
	}

	name := trialName(path)
	trial, err := New(name, labels, times, rows)
	if err != nil {
		return nil, &orientations.FormatError{Path: path, Msg: err.Error()}
	}
	return trial, nil
}

func trialName(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}
