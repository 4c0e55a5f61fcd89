// Package recon implements the reconciliation engine for banking-statistics
// submissions. It evaluates named comparison rules against tabular frames:
// each rule selects two row subsets, aggregates both by a set of grouping
// dimensions, outer-joins the aggregates and reports every grouping-key
// combination whose values violate the rule's operator within tolerance.
package recon

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/statglass/ibsrecon/pkg/frame"
)

// Sentinel errors distinguishing runtime selection failures from rule
// definition mistakes.
var (
	// ErrFilter marks a rule whose row selection could not execute, e.g. a
	// referenced column is absent from the input. Isolated to the rule.
	ErrFilter = errors.New("filter error")

	// ErrRuleConfig marks a rule that is mis-defined, e.g. a grouping
	// dimension missing from the selected data.
	ErrRuleConfig = errors.New("rule configuration error")

	// ErrRuleTimeout marks a rule whose evaluation exceeded the configured
	// per-rule timeout and was skipped.
	ErrRuleTimeout = errors.New("rule evaluation timed out")
)

// Context carries the run-wide reporting parameters every rule filter may
// depend on. It is immutable for the duration of a validation run, which is
// what keeps the rule catalogs jurisdiction-agnostic: the same rule adapts
// to any reporter by substituting these codes inside its filters.
type Context struct {
	// ReportingCountry is the ISO code of the reporting jurisdiction, e.g. "CA".
	ReportingCountry string
	// CurrencyCode is the reporter's domestic currency, e.g. "CAD".
	CurrencyCode string
	// Quarter identifies the reporting period, e.g. "2025-Q3".
	Quarter string
}

// Operator is the comparison a rule asserts between its aggregated sides.
type Operator int

const (
	// OpEq asserts LHS = RHS within tolerance.
	OpEq Operator = iota
	// OpGte asserts LHS >= RHS - tolerance.
	OpGte
	// OpLte asserts LHS <= RHS + tolerance.
	OpLte
)

// Symbol returns the operator's rendering in failure records and reports.
func (op Operator) Symbol() string {
	switch op {
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	default:
		return "="
	}
}

// fails reports whether diff = lhs - rhs violates the operator within tol.
func (op Operator) fails(diff, tol float64) bool {
	switch op {
	case OpGte:
		return diff < -tol
	case OpLte:
		return diff > tol
	default:
		return math.Abs(diff) > tol
	}
}

// Rule is a single named consistency check. Rules are immutable value
// objects, typically built once by a catalog and reused across runs; they
// must be pure and must not mutate the frames they select from.
type Rule struct {
	// ID uniquely identifies the rule, e.g. "LBSR_CC14".
	ID string
	// Description is the human-readable statement of the identity checked.
	Description string
	// LHS and RHS select the rows entering each side of the comparison.
	LHS Filter
	RHS Filter
	// Dims are the grouping dimensions defining the cell granularity that
	// must align between the two sides.
	Dims []string
	// Op is the asserted comparison between the aggregated sides.
	Op Operator
	// Tolerance is the allowed absolute difference, covering rounding in
	// source reports. Must be non-negative.
	Tolerance float64
}

// Validate reports definition mistakes against a column universe. This is
// the construction-time counterpart of the runtime filter error: a rule
// whose grouping dimensions cannot exist in the data is mis-configured, not
// merely inapplicable.
func (r Rule) Validate(columns []string) error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty rule ID", ErrRuleConfig)
	}
	if r.LHS == nil || r.RHS == nil {
		return fmt.Errorf("%w: rule %s is missing a side filter", ErrRuleConfig, r.ID)
	}
	if len(r.Dims) == 0 {
		return fmt.Errorf("%w: rule %s has no grouping dimensions", ErrRuleConfig, r.ID)
	}
	if r.Tolerance < 0 {
		return fmt.Errorf("%w: rule %s has negative tolerance", ErrRuleConfig, r.ID)
	}
	universe := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		universe[strings.ToUpper(c)] = struct{}{}
	}
	for _, d := range r.Dims {
		if _, ok := universe[strings.ToUpper(d)]; !ok {
			return fmt.Errorf("%w: rule %s groups by %s which is not a known column",
				ErrRuleConfig, r.ID, strings.ToUpper(d))
		}
	}
	return nil
}

// FailureRecord is one violating grouping-key combination. Records are
// immutable once created and are consumed only by rendering.
type FailureRecord struct {
	RuleID      string
	Description string
	Operator    string
	// Dims lists the grouping dimensions in rule order; Key holds the
	// stringified value of each.
	Dims []string
	Key  map[string]string
	LHS  float64
	RHS  float64
	Diff float64
}

// Issue is a rule-level evaluation problem (filter error, configuration
// error, timeout). Issues never abort the remaining rules.
type Issue struct {
	RuleID string
	Err    error
}

// Filter selects the rows relevant to one side of a rule's comparison,
// parameterized by the active reporting context. Implementations must be
// total over well-formed input and must not mutate the frame.
type Filter interface {
	Apply(f *frame.Frame, ctx Context) (*frame.Frame, error)
	String() string
}
