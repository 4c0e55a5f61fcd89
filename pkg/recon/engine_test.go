package recon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statglass/ibsrecon/pkg/frame"
)

var testCtx = Context{ReportingCountry: "CA", CurrencyCode: "CAD", Quarter: "2025-Q3"}

// buildFrame creates a frame with POSITION / CP_SECTOR / CP_COUNTRY
// dimensions from (position, sector, country, value) tuples.
func buildFrame(t *testing.T, rows ...[4]any) *frame.Frame {
	t.Helper()

	f, err := frame.New([]string{"POSITION", "CP_SECTOR", "CP_COUNTRY"})
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, f.Append(
			[]string{r[0].(string), r[1].(string), r[2].(string)},
			r[3].(float64),
		))
	}
	return f
}

func totalVsSectorsRule(op Operator, tolerance float64) Rule {
	return Rule{
		ID:          "T01",
		Description: "All sectors (A) vs components (B,N)",
		LHS:         Where(Eq("CP_SECTOR", "A")),
		RHS:         Where(In("CP_SECTOR", "B", "N")),
		Dims:        []string{"POSITION", "CP_COUNTRY"},
		Op:          op,
		Tolerance:   tolerance,
	}
}

func TestValidate_EqualityWithinTolerancePasses(t *testing.T) {
	lhs := buildFrame(t, [4]any{"C", "A", "US", 100.0})
	rhs := buildFrame(t, [4]any{"C", "B", "US", 60.0}, [4]any{"C", "N", "US", 40.5})

	v := New(testCtx)
	require.NoError(t, v.Validate(context.Background(), lhs, rhs, []Rule{totalVsSectorsRule(OpEq, 1.0)}))

	assert.Empty(t, v.Failures())
	assert.Empty(t, v.Issues())
}

func TestValidate_EqualityBeyondToleranceFails(t *testing.T) {
	lhs := buildFrame(t, [4]any{"C", "A", "US", 100.0})
	rhs := buildFrame(t, [4]any{"C", "B", "US", 90.0})

	v := New(testCtx)
	require.NoError(t, v.Validate(context.Background(), lhs, rhs, []Rule{totalVsSectorsRule(OpEq, 1.0)}))

	failures := v.Failures()
	require.Len(t, failures, 1)
	rec := failures[0]
	assert.Equal(t, "T01", rec.RuleID)
	assert.Equal(t, "=", rec.Operator)
	assert.Equal(t, 100.0, rec.LHS)
	assert.Equal(t, 90.0, rec.RHS)
	assert.Equal(t, 10.0, rec.Diff)
	assert.Equal(t, map[string]string{"POSITION": "C", "CP_COUNTRY": "US"}, rec.Key)
	assert.Equal(t, []string{"POSITION", "CP_COUNTRY"}, rec.Dims)
}

func TestValidate_MissingSideTreatedAsZero(t *testing.T) {
	// Key present only on the left: right sum defaults to 0, so the
	// equality must fail whenever |lhs| exceeds tolerance.
	lhs := buildFrame(t, [4]any{"C", "A", "GB", 42.0})
	rhs := buildFrame(t, [4]any{"C", "B", "US", 42.0})

	v := New(testCtx)
	require.NoError(t, v.Validate(context.Background(), lhs, rhs, []Rule{totalVsSectorsRule(OpEq, 1.0)}))

	failures := v.Failures()
	require.Len(t, failures, 2)

	byCountry := map[string]FailureRecord{}
	for _, rec := range failures {
		byCountry[rec.Key["CP_COUNTRY"]] = rec
	}
	assert.Equal(t, 42.0, byCountry["GB"].LHS)
	assert.Equal(t, 0.0, byCountry["GB"].RHS)
	assert.Equal(t, 0.0, byCountry["US"].LHS)
	assert.Equal(t, -42.0, byCountry["US"].Diff)
}

func TestValidate_LteViolated(t *testing.T) {
	// 500 > 400 + 2.0 violates "left <= right".
	lhs := buildFrame(t, [4]any{"C", "A", "US", 500.0})
	rhs := buildFrame(t, [4]any{"F", "B", "US", 400.0})

	rule := Rule{
		ID:          "T11",
		Description: "Total claims <= total assets",
		LHS:         Where(Eq("POSITION", "C")),
		RHS:         Where(Eq("POSITION", "F")),
		Dims:        []string{"CP_COUNTRY"},
		Op:          OpLte,
		Tolerance:   2.0,
	}

	v := New(testCtx)
	require.NoError(t, v.Validate(context.Background(), lhs, rhs, []Rule{rule}))

	failures := v.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "<=", failures[0].Operator)
	assert.Equal(t, 100.0, failures[0].Diff)
}

func TestValidate_GteAllowsLeftAboveRight(t *testing.T) {
	lhs := buildFrame(t, [4]any{"C", "A", "US", 500.0})
	rhs := buildFrame(t, [4]any{"C", "B", "US", 400.0})

	rule := totalVsSectorsRule(OpGte, 2.0)
	v := New(testCtx)
	require.NoError(t, v.Validate(context.Background(), lhs, rhs, []Rule{rule}))
	assert.Empty(t, v.Failures())

	// Flip the sides: now left is strictly below right beyond tolerance.
	v2 := New(testCtx)
	require.NoError(t, v2.Validate(context.Background(), rhs, lhs, []Rule{Rule{
		ID:        rule.ID,
		LHS:       rule.RHS,
		RHS:       rule.LHS,
		Dims:      rule.Dims,
		Op:        OpGte,
		Tolerance: 2.0,
	}}))
	require.Len(t, v2.Failures(), 1)
	assert.Equal(t, ">=", v2.Failures()[0].Operator)
}

func TestValidate_VacuousWhenBothSidesEmpty(t *testing.T) {
	lhs := buildFrame(t, [4]any{"L", "X", "US", 5.0})
	rhs := buildFrame(t, [4]any{"L", "X", "US", 5.0})

	v := New(testCtx)
	require.NoError(t, v.Validate(context.Background(), lhs, rhs, []Rule{totalVsSectorsRule(OpEq, 1.0)}))

	assert.Empty(t, v.Failures())
	assert.Empty(t, v.Issues(), "empty selection is not an error")
}

func TestValidate_FilterErrorIsIsolated(t *testing.T) {
	lhs := buildFrame(t, [4]any{"C", "A", "US", 100.0})
	rhs := buildFrame(t, [4]any{"C", "B", "US", 90.0})

	broken := Rule{
		ID:        "BROKEN",
		LHS:       Where(Eq("NO_SUCH_COLUMN", "X")),
		RHS:       Where(Eq("CP_SECTOR", "B")),
		Dims:      []string{"CP_COUNTRY"},
		Op:        OpEq,
		Tolerance: 1.0,
	}

	v := New(testCtx)
	require.NoError(t, v.Validate(context.Background(), lhs, rhs, []Rule{broken, totalVsSectorsRule(OpEq, 1.0)}))

	issues := v.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "BROKEN", issues[0].RuleID)
	assert.ErrorIs(t, issues[0].Err, ErrFilter)

	// The healthy rule still ran.
	require.Len(t, v.Failures(), 1)
	assert.Equal(t, "T01", v.Failures()[0].RuleID)
}

// stallFilter sleeps before matching every row, standing in for a filter
// over a pathologically large selection.
type stallFilter struct{ delay time.Duration }

func (s stallFilter) Apply(f *frame.Frame, _ Context) (*frame.Frame, error) {
	time.Sleep(s.delay)
	return f, nil
}

func (s stallFilter) String() string { return "stall" }

func TestValidate_RuleTimeoutIsIsolated(t *testing.T) {
	lhs := buildFrame(t, [4]any{"C", "A", "US", 100.0})
	rhs := buildFrame(t, [4]any{"C", "B", "US", 50.0})

	slow := Rule{
		ID:        "SLOW",
		LHS:       stallFilter{delay: 2 * time.Second},
		RHS:       Where(Eq("CP_SECTOR", "B")),
		Dims:      []string{"CP_COUNTRY"},
		Op:        OpEq,
		Tolerance: 1.0,
	}

	v := New(testCtx, WithRuleTimeout(25*time.Millisecond))
	require.NoError(t, v.Validate(context.Background(), lhs, rhs,
		[]Rule{slow, totalVsSectorsRule(OpEq, 1.0)}))

	issues := v.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "SLOW", issues[0].RuleID)
	assert.ErrorIs(t, issues[0].Err, ErrRuleTimeout)

	// The fast sibling rule still produced its failure.
	require.Len(t, v.Failures(), 1)
	assert.Equal(t, "T01", v.Failures()[0].RuleID)
}

func TestValidate_MissingGroupingDimensionIsConfigIssue(t *testing.T) {
	lhs := buildFrame(t, [4]any{"C", "A", "US", 100.0})

	rule := totalVsSectorsRule(OpEq, 1.0)
	rule.Dims = []string{"POSITION", "NOT_A_DIM"}

	v := New(testCtx)
	require.NoError(t, v.Validate(context.Background(), lhs, lhs, []Rule{rule}))

	issues := v.Issues()
	require.Len(t, issues, 1)
	assert.ErrorIs(t, issues[0].Err, ErrRuleConfig)
}

func TestValidate_Idempotent(t *testing.T) {
	lhs := buildFrame(t,
		[4]any{"C", "A", "US", 100.0},
		[4]any{"C", "A", "GB", 30.0},
	)
	rhs := buildFrame(t,
		[4]any{"C", "B", "US", 90.0},
		[4]any{"C", "N", "GB", 30.0},
	)
	rules := []Rule{totalVsSectorsRule(OpEq, 1.0)}

	v1 := New(testCtx)
	require.NoError(t, v1.Validate(context.Background(), lhs, rhs, rules))
	v2 := New(testCtx)
	require.NoError(t, v2.Validate(context.Background(), lhs, rhs, rules))

	assert.Equal(t, v1.Failures(), v2.Failures())
}

func TestValidate_ParallelPreservesBatchOrder(t *testing.T) {
	lhs := buildFrame(t, [4]any{"C", "A", "US", 100.0})
	rhs := buildFrame(t, [4]any{"C", "B", "US", 50.0})

	// Many copies of the same failing shape with distinct IDs: batch order
	// must follow rule order regardless of scheduling.
	var rules []Rule
	for _, id := range []string{"R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8"} {
		r := totalVsSectorsRule(OpEq, 1.0)
		r.ID = id
		rules = append(rules, r)
	}

	v := New(testCtx, WithParallelism(4))
	require.NoError(t, v.Validate(context.Background(), lhs, rhs, rules))

	failures := v.Failures()
	require.Len(t, failures, len(rules))
	for i, rec := range failures {
		assert.Equal(t, rules[i].ID, rec.RuleID)
	}
}

func TestValidate_SummationBeforeCompare(t *testing.T) {
	// Duplicated contributing rows sum before comparison.
	lhs := buildFrame(t,
		[4]any{"C", "A", "US", 60.0},
		[4]any{"C", "A", "US", 40.0},
	)
	rhs := buildFrame(t, [4]any{"C", "B", "US", 100.0})

	v := New(testCtx)
	require.NoError(t, v.Validate(context.Background(), lhs, rhs, []Rule{totalVsSectorsRule(OpEq, 1.0)}))
	assert.Empty(t, v.Failures())
}

func TestRuleValidate(t *testing.T) {
	columns := []string{"POSITION", "CP_SECTOR", "CP_COUNTRY"}

	tests := []struct {
		name    string
		mutate  func(*Rule)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *Rule) {}, wantErr: false},
		{name: "empty id", mutate: func(r *Rule) { r.ID = "" }, wantErr: true},
		{name: "nil side", mutate: func(r *Rule) { r.RHS = nil }, wantErr: true},
		{name: "no dims", mutate: func(r *Rule) { r.Dims = nil }, wantErr: true},
		{name: "unknown dim", mutate: func(r *Rule) { r.Dims = []string{"WHAT"} }, wantErr: true},
		{name: "negative tolerance", mutate: func(r *Rule) { r.Tolerance = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := totalVsSectorsRule(OpEq, 1.0)
			tt.mutate(&r)
			err := r.Validate(columns)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRuleConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOperatorSymbols(t *testing.T) {
	assert.Equal(t, "=", OpEq.Symbol())
	assert.Equal(t, ">=", OpGte.Symbol())
	assert.Equal(t, "<=", OpLte.Symbol())
}
