// Package orientations defines the time-indexed table of per-sensor
// orientations that every pipeline stage exchanges, and its on-disk
// .sto interchange format.
package orientations

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"

	"github.com/moveshelf/opensense/internal/rotation"
)

// Table is an ordered, time-indexed sequence of per-sensor orientations.
// Timestamps are strictly increasing, every row carries one unit
// quaternion per sensor label. Tables are not mutated after
// construction; transformations return a new table.
type Table struct {
	labels []string
	times  []float64
	rows   [][]quat.Number
}

// New builds a table from sensor labels, timestamps and quaternion rows,
// and validates the table invariants.
func New(labels []string, times []float64, rows [][]quat.Number) (*Table, error) {
	t := &Table{labels: labels, times: times, rows: rows}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) validate() error {
	if len(t.labels) == 0 {
		return fmt.Errorf("table has no sensor labels")
	}
	seen := make(map[string]bool, len(t.labels))
	for _, label := range t.labels {
		if label == "" {
			return fmt.Errorf("empty sensor label")
		}
		if seen[label] {
			return fmt.Errorf("duplicate sensor label %q", label)
		}
		seen[label] = true
	}

	if len(t.times) == 0 {
		return fmt.Errorf("table has no rows")
	}
	if len(t.times) != len(t.rows) {
		return fmt.Errorf("have %d timestamps but %d rows", len(t.times), len(t.rows))
	}

	for i, row := range t.rows {
		if i > 0 && t.times[i] <= t.times[i-1] {
			return fmt.Errorf("timestamps must be strictly increasing: t[%d]=%v, t[%d]=%v",
				i-1, t.times[i-1], i, t.times[i])
		}
		if len(row) != len(t.labels) {
			return fmt.Errorf("row %d has %d orientations, want %d", i, len(row), len(t.labels))
		}
		for j, q := range row {
			if !rotation.IsUnit(q) {
				return fmt.Errorf("orientation at row %d sensor %q is not a unit quaternion (norm %v)",
					i, t.labels[j], quat.Abs(q))
			}
		}
	}
	return nil
}

// NumRows returns the number of time samples.
func (t *Table) NumRows() int { return len(t.times) }

// Labels returns the sensor labels in column order.
func (t *Table) Labels() []string { return t.labels }

// Times returns the timestamps in row order.
func (t *Table) Times() []float64 { return t.times }

// Time returns the timestamp of row i.
func (t *Table) Time(i int) float64 { return t.times[i] }

// Row returns the orientations of row i, one per sensor label.
func (t *Table) Row(i int) []quat.Number { return t.rows[i] }

// ColumnIndex returns the column position of a sensor label.
func (t *Table) ColumnIndex(label string) (int, bool) {
	for i, l := range t.labels {
		if l == label {
			return i, true
		}
	}
	return 0, false
}

// HasColumn reports whether the table carries the sensor label.
func (t *Table) HasColumn(label string) bool {
	_, ok := t.ColumnIndex(label)
	return ok
}

// At returns the orientation of sensor column j at row i.
func (t *Table) At(i, j int) quat.Number { return t.rows[i][j] }

// Rotated returns a new table with every orientation premultiplied by q,
// i.e. the whole table re-expressed after rotating the world frame by q.
func (t *Table) Rotated(q quat.Number) *Table {
	rows := make([][]quat.Number, len(t.rows))
	for i, row := range t.rows {
		out := make([]quat.Number, len(row))
		for j, r := range row {
			out[j] = rotation.Normalize(quat.Mul(q, r))
		}
		rows[i] = out
	}
	return &Table{labels: t.labels, times: t.times, rows: rows}
}
