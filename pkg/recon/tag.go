package recon

import (
	"context"

	"github.com/statglass/ibsrecon/pkg/frame"
)

// Values of the quality status column added by Tag.
const (
	// QualityColumn is the status column Tag appends.
	QualityColumn = "QUALITY_STATUS"
	// StatusPass marks a row that participates in no violated rule.
	StatusPass = "P"
	// StatusFail marks a row that contributed to a violated group key.
	StatusFail = "F"
)

// Tag runs the rule set against a single frame used as both sides and
// annotates every row with a pass/fail quality status instead of
// accumulating failures. The result has the same row count and order as the
// input plus the QUALITY_STATUS column; rows default to passing.
//
// Attribution policy: a row is marked failing when it contributed to either
// side's aggregate of any violated group key. The tagging variant compares a
// report against itself, so a row feeding either aggregate of a broken
// identity is part of the inconsistency; when a group sums several rows, all
// of them are marked, not a representative one.
//
// Rule-level issues (filter errors, timeouts) are recorded on the validator
// exactly as in Validate and do not fail the call.
func (v *Validator) Tag(ctx context.Context, df *frame.Frame, rules []Rule) (*frame.Frame, error) {
	statuses := make([]string, df.Len())
	pos := make(map[int]int, df.Len())
	for i := range statuses {
		statuses[i] = StatusPass
		pos[df.RowIndex(i)] = i
	}

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		joined, issue := v.runRule(rule, df, df)
		if issue != nil {
			v.mu.Lock()
			v.issues = append(v.issues, *issue)
			v.mu.Unlock()
			v.logger.Warn("rule skipped during tagging",
				"rule_id", rule.ID, "error", issue.Err)
			continue
		}
		// Group rows carry indices into the frame df was derived from, so a
		// Select-derived input needs mapping back to positions in df.
		for _, j := range joined {
			for _, row := range j.LHSRows {
				if i, ok := pos[row]; ok {
					statuses[i] = StatusFail
				}
			}
			for _, row := range j.RHSRows {
				if i, ok := pos[row]; ok {
					statuses[i] = StatusFail
				}
			}
		}
	}

	return df.WithColumn(QualityColumn, statuses)
}
