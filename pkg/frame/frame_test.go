package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFrame(t *testing.T) *Frame {
	t.Helper()

	f, err := New([]string{"position", "cp_sector", "cp_country"})
	require.NoError(t, err)
	rows := []struct {
		cells []string
		value float64
	}{
		{[]string{"C", "B", "US"}, 100},
		{[]string{"C", "B", "GB"}, 50},
		{[]string{"C", "N", "US"}, 25},
		{[]string{"L", "B", "US"}, 10},
	}
	for _, r := range rows {
		require.NoError(t, f.Append(r.cells, r.value))
	}
	return f
}

func TestNew_UppercasesColumns(t *testing.T) {
	f, err := New([]string{"position", "Cp_Sector"})
	require.NoError(t, err)

	assert.Equal(t, []string{"POSITION", "CP_SECTOR"}, f.Columns())
	assert.True(t, f.HasColumn("cp_sector"))
	assert.Equal(t, "VALUE", f.ValueColumn())
}

func TestNew_DuplicateColumns(t *testing.T) {
	// Headers that collide after upper-casing would shadow each other in
	// cell lookup, so construction must refuse them.
	_, err := New([]string{"curr", "CURR"})
	assert.ErrorContains(t, err, "duplicate column CURR")

	_, err = FromRecords([]string{"POSITION", "position"}, nil)
	assert.ErrorContains(t, err, "duplicate column POSITION")
}

func TestWithValueColumn(t *testing.T) {
	f, err := New([]string{"A"}, WithValueColumn("amount"))
	require.NoError(t, err)
	assert.Equal(t, "AMOUNT", f.ValueColumn())
}

func TestAppend_CellCountMismatch(t *testing.T) {
	f, err := New([]string{"A", "B"})
	require.NoError(t, err)
	err = f.Append([]string{"x"}, 1)
	assert.Error(t, err)
}

func TestSelect_PreservesOriginalIndices(t *testing.T) {
	f := newTestFrame(t)

	sub := f.Select(func(row int) bool { return f.Cell(row, "CP_COUNTRY") == "US" })

	require.Equal(t, 3, sub.Len())
	assert.Equal(t, 0, sub.RowIndex(0))
	assert.Equal(t, 2, sub.RowIndex(1))
	assert.Equal(t, 3, sub.RowIndex(2))
	// Receiver untouched
	assert.Equal(t, 4, f.Len())
}

func TestGroupSum(t *testing.T) {
	f := newTestFrame(t)

	groups, err := f.GroupSum([]string{"POSITION", "CP_SECTOR"})
	require.NoError(t, err)

	require.Len(t, groups, 3)
	// First-appearance order
	assert.Equal(t, []string{"C", "B"}, groups[0].Key)
	assert.Equal(t, 150.0, groups[0].Sum)
	assert.Equal(t, []int{0, 1}, groups[0].Rows)
	assert.Equal(t, []string{"C", "N"}, groups[1].Key)
	assert.Equal(t, 25.0, groups[1].Sum)
	assert.Equal(t, []string{"L", "B"}, groups[2].Key)
	assert.Equal(t, 10.0, groups[2].Sum)
}

func TestGroupSum_MissingDimension(t *testing.T) {
	f := newTestFrame(t)

	_, err := f.GroupSum([]string{"NOPE"})
	assert.ErrorContains(t, err, "NOPE")
}

func TestOuterJoin(t *testing.T) {
	lhs := []Aggregate{
		{Key: []string{"US"}, Sum: 100, Rows: []int{0}},
		{Key: []string{"GB"}, Sum: 50, Rows: []int{1}},
	}
	rhs := []Aggregate{
		{Key: []string{"US"}, Sum: 90, Rows: []int{5}},
		{Key: []string{"FR"}, Sum: 7, Rows: []int{6}},
	}

	joined := OuterJoin(lhs, rhs)

	require.Len(t, joined, 3)
	assert.Equal(t, Joined{Key: []string{"US"}, LHS: 100, RHS: 90, LHSRows: []int{0}, RHSRows: []int{5}}, joined[0])
	// Key only on the left: right side defaults to zero
	assert.Equal(t, Joined{Key: []string{"GB"}, LHS: 50, LHSRows: []int{1}}, joined[1])
	// Key only on the right: left side defaults to zero
	assert.Equal(t, Joined{Key: []string{"FR"}, RHS: 7, RHSRows: []int{6}}, joined[2])
}

func TestWithColumn(t *testing.T) {
	f := newTestFrame(t)

	out, err := f.WithColumn("status", []string{"P", "P", "F", "P"})
	require.NoError(t, err)

	assert.Equal(t, 4, out.Len())
	assert.Equal(t, "F", out.Cell(2, "STATUS"))
	assert.Equal(t, 25.0, out.Value(2))
	assert.False(t, f.HasColumn("STATUS"))

	_, err = out.WithColumn("status", []string{"P", "P", "P", "P"})
	assert.Error(t, err, "duplicate column must be rejected")

	_, err = f.WithColumn("short", []string{"P"})
	assert.Error(t, err)
}

func TestFromRecords(t *testing.T) {
	f, err := FromRecords([]string{"POSITION", "CP_COUNTRY"}, []map[string]any{
		{"POSITION": "C", "CP_COUNTRY": "US", "VALUE": 100.5},
		{"POSITION": "L", "VALUE": 3},
	})
	require.NoError(t, err)

	require.Equal(t, 2, f.Len())
	assert.Equal(t, "US", f.Cell(0, "CP_COUNTRY"))
	assert.Equal(t, 100.5, f.Value(0))
	assert.Equal(t, "", f.Cell(1, "CP_COUNTRY"), "missing dimension becomes an empty cell")
	assert.Equal(t, 3.0, f.Value(1))
}

func TestFromRecords_BadValue(t *testing.T) {
	_, err := FromRecords([]string{"POSITION"}, []map[string]any{
		{"POSITION": "C"},
	})
	assert.ErrorContains(t, err, "missing VALUE")

	_, err = FromRecords([]string{"POSITION"}, []map[string]any{
		{"POSITION": "C", "VALUE": "lots"},
	})
	assert.ErrorContains(t, err, "want a number")
}
