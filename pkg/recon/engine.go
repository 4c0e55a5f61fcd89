package recon

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/statglass/ibsrecon/pkg/frame"
)

// Validator evaluates rule lists against frame pairs and accumulates the
// resulting failures. A validator is scoped to one reporting context;
// construct a fresh one per run. Rule evaluations are mutually independent
// and may run concurrently; the accumulator append is serialized and batch
// order always follows rule order.
type Validator struct {
	ctx      Context
	logger   *slog.Logger
	parallel int
	timeout  time.Duration

	mu      sync.Mutex
	batches [][]FailureRecord
	issues  []Issue
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the structured logger. A nil logger discards.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithParallelism caps the number of rules evaluated concurrently.
// Zero or negative means GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(v *Validator) { v.parallel = n }
}

// WithRuleTimeout sets a best-effort per-rule evaluation timeout. A rule
// exceeding it is skipped and recorded as an issue; remaining rules still
// run. Zero disables the timeout.
func WithRuleTimeout(d time.Duration) Option {
	return func(v *Validator) { v.timeout = d }
}

// New creates a validator for one reporting context.
func New(ctx Context, opts ...Option) *Validator {
	v := &Validator{
		ctx:    ctx,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.parallel <= 0 {
		v.parallel = runtime.GOMAXPROCS(0)
	}
	return v
}

// Context returns the reporting context the validator was built with.
func (v *Validator) Context() Context { return v.ctx }

// Validate evaluates every rule against the two frames and appends the
// resulting failure batches to the accumulator. For internal-consistency
// checks lhs and rhs may be the same frame. A rule whose filters error is
// recorded as an issue and never aborts the remaining rules; the returned
// error is non-nil only when ctx is cancelled.
func (v *Validator) Validate(ctx context.Context, lhs, rhs *frame.Frame, rules []Rule) error {
	type result struct {
		failures []FailureRecord
		issue    *Issue
	}
	results := make([]result, len(rules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.parallel)
	for i, rule := range rules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			joined, issue := v.runRule(rule, lhs, rhs)
			if issue != nil {
				results[i] = result{issue: issue}
				return nil
			}
			results[i] = result{failures: v.materialize(rule, joined)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for i, res := range results {
		if res.issue != nil {
			v.logger.Warn("rule skipped",
				"rule_id", rules[i].ID, "error", res.issue.Err)
			v.issues = append(v.issues, *res.issue)
			continue
		}
		if len(res.failures) > 0 {
			v.logger.Debug("rule failed",
				"rule_id", rules[i].ID, "cells", len(res.failures))
			v.batches = append(v.batches, res.failures)
		}
	}
	return nil
}

// runRule executes the filter -> aggregate -> outer-join -> compare pipeline
// for one rule and returns the violating joined keys.
func (v *Validator) runRule(rule Rule, lhs, rhs *frame.Frame) ([]frame.Joined, *Issue) {
	if v.timeout <= 0 {
		return v.runRulePipeline(rule, lhs, rhs)
	}

	type outcome struct {
		joined []frame.Joined
		issue  *Issue
	}
	done := make(chan outcome, 1)
	go func() {
		j, iss := v.runRulePipeline(rule, lhs, rhs)
		done <- outcome{joined: j, issue: iss}
	}()
	select {
	case out := <-done:
		return out.joined, out.issue
	case <-time.After(v.timeout):
		return nil, &Issue{RuleID: rule.ID, Err: ErrRuleTimeout}
	}
}

func (v *Validator) runRulePipeline(rule Rule, lhs, rhs *frame.Frame) ([]frame.Joined, *Issue) {
	lhsData, err := rule.LHS.Apply(lhs, v.ctx)
	if err != nil {
		return nil, &Issue{RuleID: rule.ID, Err: fmt.Errorf("lhs: %w", err)}
	}
	rhsData, err := rule.RHS.Apply(rhs, v.ctx)
	if err != nil {
		return nil, &Issue{RuleID: rule.ID, Err: fmt.Errorf("rhs: %w", err)}
	}

	// Nothing selected on either side: the rule has nothing to reconcile.
	if lhsData.Len() == 0 && rhsData.Len() == 0 {
		return nil, nil
	}

	lhsAgg, err := lhsData.GroupSum(rule.Dims)
	if err != nil {
		return nil, &Issue{RuleID: rule.ID, Err: fmt.Errorf("%w: lhs: %v", ErrRuleConfig, err)}
	}
	rhsAgg, err := rhsData.GroupSum(rule.Dims)
	if err != nil {
		return nil, &Issue{RuleID: rule.ID, Err: fmt.Errorf("%w: rhs: %v", ErrRuleConfig, err)}
	}

	// Full outer join: a key reported on only one side compares against an
	// implicit zero. A breakdown that should exist but was never reported is
	// exactly as wrong as one reported with a mismatching number.
	var failed []frame.Joined
	for _, j := range frame.OuterJoin(lhsAgg, rhsAgg) {
		if rule.Op.fails(j.LHS-j.RHS, rule.Tolerance) {
			failed = append(failed, j)
		}
	}
	return failed, nil
}

// materialize turns violating joined keys into failure records.
func (v *Validator) materialize(rule Rule, failed []frame.Joined) []FailureRecord {
	if len(failed) == 0 {
		return nil
	}
	dims := make([]string, len(rule.Dims))
	for i, d := range rule.Dims {
		dims[i] = strings.ToUpper(d)
	}
	records := make([]FailureRecord, 0, len(failed))
	for _, j := range failed {
		key := make(map[string]string, len(dims))
		for i, d := range dims {
			key[d] = j.Key[i]
		}
		records = append(records, FailureRecord{
			RuleID:      rule.ID,
			Description: rule.Description,
			Operator:    rule.Op.Symbol(),
			Dims:        dims,
			Key:         key,
			LHS:         j.LHS,
			RHS:         j.RHS,
			Diff:        j.LHS - j.RHS,
		})
	}
	return records
}

// Failures returns every accumulated failure record, in batch order.
func (v *Validator) Failures() []FailureRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []FailureRecord
	for _, batch := range v.batches {
		out = append(out, batch...)
	}
	return out
}

// Issues returns the rule-level problems recorded so far.
func (v *Validator) Issues() []Issue {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Issue, len(v.issues))
	copy(out, v.issues)
	return out
}
