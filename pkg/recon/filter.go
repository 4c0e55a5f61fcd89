package recon

import (
	"fmt"
	"strings"

	"github.com/statglass/ibsrecon/pkg/frame"
)

// The standard Filter implementation is a declarative predicate expression:
// pure data that renders to an auditable string instead of an opaque
// closure. Dimensions are AND-combined with And; alternatives within a
// dimension are OR-combined via In or Or. Context-dependent comparisons
// reference a CtxField and are resolved against the run Context at
// evaluation time, never captured.

// CtxField names a Context attribute a predicate may reference.
type CtxField int

const (
	// CtxCountry resolves to Context.ReportingCountry.
	CtxCountry CtxField = iota
	// CtxCurrency resolves to Context.CurrencyCode.
	CtxCurrency
)

func (f CtxField) resolve(ctx Context) string {
	switch f {
	case CtxCurrency:
		return ctx.CurrencyCode
	default:
		return ctx.ReportingCountry
	}
}

func (f CtxField) String() string {
	switch f {
	case CtxCurrency:
		return "$CURRENCY"
	default:
		return "$COUNTRY"
	}
}

// Expr is a row predicate over a frame. Expressions are pure data; String
// renders the auditable form shown by the rules command.
type Expr interface {
	eval(f *frame.Frame, row int, ctx Context) bool
	columns(set map[string]struct{})
	String() string
}

// Where adapts an expression into a rule side Filter. Apply verifies every
// referenced column exists before evaluating, so a predicate against a
// malformed submission surfaces as a filter error rather than matching
// nothing.
func Where(e Expr) Filter {
	return whereFilter{expr: e}
}

type whereFilter struct {
	expr Expr
}

func (w whereFilter) Apply(f *frame.Frame, ctx Context) (*frame.Frame, error) {
	need := make(map[string]struct{})
	w.expr.columns(need)
	for col := range need {
		if !f.HasColumn(col) {
			return nil, fmt.Errorf("%w: column %s not present in input", ErrFilter, col)
		}
	}
	return f.Select(func(row int) bool {
		return w.expr.eval(f, row, ctx)
	}), nil
}

func (w whereFilter) String() string { return w.expr.String() }

type eqExpr struct {
	col   string
	lit   string
	ctx   CtxField
	isCtx bool
	neg   bool
}

// Eq matches rows whose column equals the literal value.
func Eq(col, value string) Expr {
	return eqExpr{col: strings.ToUpper(col), lit: value}
}

// Neq matches rows whose column differs from the literal value.
func Neq(col, value string) Expr {
	return eqExpr{col: strings.ToUpper(col), lit: value, neg: true}
}

// EqCtx matches rows whose column equals the referenced context attribute.
func EqCtx(col string, field CtxField) Expr {
	return eqExpr{col: strings.ToUpper(col), ctx: field, isCtx: true}
}

func (e eqExpr) eval(f *frame.Frame, row int, ctx Context) bool {
	want := e.lit
	if e.isCtx {
		want = e.ctx.resolve(ctx)
	}
	return (f.Cell(row, e.col) == want) != e.neg
}

func (e eqExpr) columns(set map[string]struct{}) { set[e.col] = struct{}{} }

func (e eqExpr) String() string {
	op := "="
	if e.neg {
		op = "!="
	}
	if e.isCtx {
		return fmt.Sprintf("%s %s %s", e.col, op, e.ctx)
	}
	return fmt.Sprintf("%s %s %s", e.col, op, e.lit)
}

type inExpr struct {
	col    string
	lits   []string
	fields []CtxField
	neg    bool
}

// In matches rows whose column equals any of the literal values.
func In(col string, values ...string) Expr {
	return inExpr{col: strings.ToUpper(col), lits: values}
}

// NotIn matches rows whose column equals none of the literal values.
func NotIn(col string, values ...string) Expr {
	return inExpr{col: strings.ToUpper(col), lits: values, neg: true}
}

// InCtx is In with one or more context attributes added to the value set.
func InCtx(col string, field CtxField, values ...string) Expr {
	return inExpr{col: strings.ToUpper(col), lits: values, fields: []CtxField{field}}
}

// NotInCtx is NotIn with one or more context attributes added to the value set.
func NotInCtx(col string, field CtxField, values ...string) Expr {
	return inExpr{col: strings.ToUpper(col), lits: values, fields: []CtxField{field}, neg: true}
}

func (e inExpr) eval(f *frame.Frame, row int, ctx Context) bool {
	got := f.Cell(row, e.col)
	for _, v := range e.lits {
		if got == v {
			return !e.neg
		}
	}
	for _, fld := range e.fields {
		if got == fld.resolve(ctx) {
			return !e.neg
		}
	}
	return e.neg
}

func (e inExpr) columns(set map[string]struct{}) { set[e.col] = struct{}{} }

func (e inExpr) String() string {
	parts := make([]string, 0, len(e.fields)+len(e.lits))
	for _, fld := range e.fields {
		parts = append(parts, fld.String())
	}
	parts = append(parts, e.lits...)
	op := "IN"
	if e.neg {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", e.col, op, strings.Join(parts, ","))
}

type andExpr struct {
	exprs []Expr
}

// And matches rows satisfying every sub-expression.
func And(exprs ...Expr) Expr { return andExpr{exprs: exprs} }

func (e andExpr) eval(f *frame.Frame, row int, ctx Context) bool {
	for _, sub := range e.exprs {
		if !sub.eval(f, row, ctx) {
			return false
		}
	}
	return true
}

func (e andExpr) columns(set map[string]struct{}) {
	for _, sub := range e.exprs {
		sub.columns(set)
	}
}

func (e andExpr) String() string { return joinExprs(e.exprs, " AND ") }

type orExpr struct {
	exprs []Expr
}

// Or matches rows satisfying at least one sub-expression.
func Or(exprs ...Expr) Expr { return orExpr{exprs: exprs} }

func (e orExpr) eval(f *frame.Frame, row int, ctx Context) bool {
	for _, sub := range e.exprs {
		if sub.eval(f, row, ctx) {
			return true
		}
	}
	return false
}

func (e orExpr) columns(set map[string]struct{}) {
	for _, sub := range e.exprs {
		sub.columns(set)
	}
}

func (e orExpr) String() string { return joinExprs(e.exprs, " OR ") }

type notExpr struct {
	expr Expr
}

// Not inverts an expression.
func Not(expr Expr) Expr { return notExpr{expr: expr} }

func (e notExpr) eval(f *frame.Frame, row int, ctx Context) bool {
	return !e.expr.eval(f, row, ctx)
}

func (e notExpr) columns(set map[string]struct{}) { e.expr.columns(set) }

func (e notExpr) String() string { return fmt.Sprintf("NOT (%s)", e.expr) }

func joinExprs(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		s := e.String()
		switch e.(type) {
		case andExpr, orExpr:
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, sep)
}
