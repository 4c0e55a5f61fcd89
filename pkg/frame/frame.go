// Package frame provides the tabular data model consumed by the
// reconciliation engine. A Frame holds string-typed dimension columns plus a
// single numeric value column, with column names normalized to upper case on
// construction so rule predicates can assume a canonical case.
package frame

import (
	"fmt"
	"strings"
)

// DefaultValueColumn is the conventional name of the numeric value column in
// banking-statistics submissions.
const DefaultValueColumn = "VALUE"

// keySep separates key parts when a grouping tuple is flattened into a
// single map key. Unit separator does not occur in statistical code lists.
const keySep = "\x1f"

// Frame is a column-ordered table of dimension cells plus one numeric value
// per row. Frames are immutable through the public API: Select and WithColumn
// return new frames, never modify the receiver.
//
// A frame produced by Select remembers each row's position in the frame it
// was derived from (see RowIndex); the quality tagger relies on this to map
// aggregated groups back to source rows.
type Frame struct {
	cols     []string
	colIdx   map[string]int
	cells    [][]string
	values   []float64
	index    []int
	valueCol string
}

// Option configures frame construction.
type Option func(*Frame)

// WithValueColumn overrides the name of the numeric value column.
func WithValueColumn(name string) Option {
	return func(f *Frame) {
		f.valueCol = strings.ToUpper(name)
	}
}

// New creates an empty frame with the given dimension columns. Column names
// are upper-cased; the value column is VALUE unless overridden. Column names
// that collide after upper-casing are rejected: cell lookup is by name, so a
// duplicate would silently shadow the earlier column.
func New(columns []string, opts ...Option) (*Frame, error) {
	f := &Frame{
		cols:     make([]string, len(columns)),
		colIdx:   make(map[string]int, len(columns)),
		valueCol: DefaultValueColumn,
	}
	for i, c := range columns {
		name := strings.ToUpper(c)
		if _, dup := f.colIdx[name]; dup {
			return nil, fmt.Errorf("frame: duplicate column %s", name)
		}
		f.cols[i] = name
		f.colIdx[name] = i
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FromRecords builds a frame from generic records, one map per row. columns
// fixes the dimension order; each record supplies the dimension cells plus
// the numeric value under the value column's key. Missing dimensions become
// empty cells.
func FromRecords(columns []string, records []map[string]any, opts ...Option) (*Frame, error) {
	f, err := New(columns, opts...)
	if err != nil {
		return nil, err
	}
	cells := make([]string, len(f.cols))
	for i, rec := range records {
		for j, c := range f.cols {
			cells[j] = ""
			if v, ok := rec[c]; ok {
				cells[j] = fmt.Sprintf("%v", v)
			}
		}
		value, err := recordValue(rec, f.valueCol)
		if err != nil {
			return nil, fmt.Errorf("frame: record %d: %w", i, err)
		}
		if err := f.Append(cells, value); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func recordValue(rec map[string]any, valueCol string) (float64, error) {
	v, ok := rec[valueCol]
	if !ok {
		return 0, fmt.Errorf("missing %s", valueCol)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%s is %T, want a number", valueCol, v)
	}
}

// Append adds a row. Cells must be positional, one per dimension column.
func (f *Frame) Append(cells []string, value float64) error {
	if len(cells) != len(f.cols) {
		return fmt.Errorf("frame: row has %d cells, want %d", len(cells), len(f.cols))
	}
	row := make([]string, len(cells))
	copy(row, cells)
	f.cells = append(f.cells, row)
	f.values = append(f.values, value)
	f.index = append(f.index, len(f.index))
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.cells) }

// Columns returns the dimension column names in order. The returned slice
// must not be modified.
func (f *Frame) Columns() []string { return f.cols }

// ValueColumn returns the name of the numeric value column.
func (f *Frame) ValueColumn() string { return f.valueCol }

// HasColumn reports whether the frame has the named dimension column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.colIdx[strings.ToUpper(name)]
	return ok
}

// Cell returns the dimension cell at (row, col). Unknown columns yield "".
func (f *Frame) Cell(row int, col string) string {
	i, ok := f.colIdx[strings.ToUpper(col)]
	if !ok {
		return ""
	}
	return f.cells[row][i]
}

// Value returns the numeric value of the given row.
func (f *Frame) Value(row int) float64 { return f.values[row] }

// RowIndex returns the row's position in the frame this one was derived
// from. For a frame built with New/Append it is the row number itself.
func (f *Frame) RowIndex(row int) int { return f.index[row] }

// Select returns a new frame containing the rows for which keep returns
// true. Row data is shared with the receiver; original row indices are
// preserved.
func (f *Frame) Select(keep func(row int) bool) *Frame {
	out := &Frame{
		cols:     f.cols,
		colIdx:   f.colIdx,
		valueCol: f.valueCol,
	}
	for i := range f.cells {
		if keep(i) {
			out.cells = append(out.cells, f.cells[i])
			out.values = append(out.values, f.values[i])
			out.index = append(out.index, f.index[i])
		}
	}
	return out
}

// WithColumn returns a copy of the frame with an extra dimension column
// appended. cells must have one entry per row.
func (f *Frame) WithColumn(name string, cells []string) (*Frame, error) {
	if len(cells) != f.Len() {
		return nil, fmt.Errorf("frame: column %s has %d cells, want %d", name, len(cells), f.Len())
	}
	name = strings.ToUpper(name)
	if f.HasColumn(name) {
		return nil, fmt.Errorf("frame: column %s already exists", name)
	}
	out, err := New(append(append([]string{}, f.cols...), name), WithValueColumn(f.valueCol))
	if err != nil {
		return nil, err
	}
	for i := range f.cells {
		row := make([]string, 0, len(f.cols)+1)
		row = append(row, f.cells[i]...)
		row = append(row, cells[i])
		out.cells = append(out.cells, row)
		out.values = append(out.values, f.values[i])
		out.index = append(out.index, f.index[i])
	}
	return out, nil
}

// Aggregate is one group produced by GroupSum: the grouping-key tuple, the
// summed value, and the original indices of the contributing rows.
type Aggregate struct {
	Key  []string
	Sum  float64
	Rows []int
}

// GroupSum groups rows by the tuple of the given dimension values and sums
// the value column per group. Groups are returned in first-appearance order.
// Referencing a dimension the frame does not have is a configuration error.
func (f *Frame) GroupSum(dims []string) ([]Aggregate, error) {
	idx := make([]int, len(dims))
	for i, d := range dims {
		j, ok := f.colIdx[strings.ToUpper(d)]
		if !ok {
			return nil, fmt.Errorf("frame: grouping dimension %s not present", strings.ToUpper(d))
		}
		idx[i] = j
	}

	byKey := make(map[string]int)
	var groups []Aggregate
	for row := range f.cells {
		parts := make([]string, len(idx))
		for i, j := range idx {
			parts[i] = f.cells[row][j]
		}
		key := strings.Join(parts, keySep)
		g, ok := byKey[key]
		if !ok {
			g = len(groups)
			byKey[key] = g
			groups = append(groups, Aggregate{Key: parts})
		}
		groups[g].Sum += f.values[row]
		groups[g].Rows = append(groups[g].Rows, f.index[row])
	}
	return groups, nil
}

// Joined is one key of a full outer join between two aggregate sets. A side
// that does not have the key contributes a zero sum and no rows.
type Joined struct {
	Key     []string
	LHS     float64
	RHS     float64
	LHSRows []int
	RHSRows []int
}

// OuterJoin joins two aggregate sets on their key tuples with full outer
// semantics. Both sides must have been grouped on the same dimensions. Keys
// present on the left come first in left order, then right-only keys in
// right order.
func OuterJoin(lhs, rhs []Aggregate) []Joined {
	out := make([]Joined, 0, len(lhs))
	pos := make(map[string]int, len(lhs))
	for _, a := range lhs {
		key := strings.Join(a.Key, keySep)
		pos[key] = len(out)
		out = append(out, Joined{Key: a.Key, LHS: a.Sum, LHSRows: a.Rows})
	}
	for _, a := range rhs {
		key := strings.Join(a.Key, keySep)
		if i, ok := pos[key]; ok {
			out[i].RHS = a.Sum
			out[i].RHSRows = a.Rows
			continue
		}
		out = append(out, Joined{Key: a.Key, RHS: a.Sum, RHSRows: a.Rows})
	}
	return out
}
