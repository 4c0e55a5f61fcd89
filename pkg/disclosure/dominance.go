// Package disclosure implements confidentiality marking for publishable
// statistics. The dominance rule flags a statistic as not free to publish
// when one contributor represents too large a share of its aggregation
// group: publishing the aggregate would effectively disclose that
// contributor's position.
package disclosure

import (
	"fmt"
	"strings"

	"github.com/statglass/ibsrecon/pkg/frame"
)

// StatusColumn is the column Apply appends to the input frame.
const StatusColumn = "CONFIDENTIALITY_STATUS"

// Status values written to StatusColumn.
const (
	// StatusConfidential marks a dominant contribution, not free to publish.
	StatusConfidential = "N"
	// StatusFree marks a publishable contribution.
	StatusFree = "F"
)

// DefaultThreshold is the dominance share above which a contribution is
// confidential.
const DefaultThreshold = 0.60

// Option configures Apply.
type Option func(*config)

type config struct {
	threshold float64
}

// WithThreshold overrides the dominance threshold fraction.
func WithThreshold(t float64) Option {
	return func(c *config) { c.threshold = t }
}

// Apply computes each row's share of its group total and classifies the row
// confidential when the share strictly exceeds the threshold. The input
// must be at contributor granularity: one row per reporting entity per
// group. The result is a copy of the input with StatusColumn appended; row
// count and order are preserved.
//
// A group total of zero yields an undefined share and is defined as
// non-dominant: every row of such a group is publishable. A share exactly
// at the threshold is likewise non-dominant.
func Apply(df *frame.Frame, valueCol string, groupCols []string, contributorCol string, opts ...Option) (*frame.Frame, error) {
	cfg := config{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}

	if strings.ToUpper(valueCol) != df.ValueColumn() {
		return nil, fmt.Errorf("disclosure: value column %s not present (frame carries %s)",
			strings.ToUpper(valueCol), df.ValueColumn())
	}
	if !df.HasColumn(contributorCol) {
		return nil, fmt.Errorf("disclosure: contributor column %s not present", strings.ToUpper(contributorCol))
	}

	groups, err := df.GroupSum(groupCols)
	if err != nil {
		return nil, fmt.Errorf("disclosure: %w", err)
	}

	totals := make(map[int]float64, df.Len())
	for _, g := range groups {
		for _, row := range g.Rows {
			totals[row] = g.Sum
		}
	}

	statuses := make([]string, df.Len())
	for i := range statuses {
		status := StatusFree
		if total := totals[df.RowIndex(i)]; total != 0 {
			if df.Value(i)/total > cfg.threshold {
				status = StatusConfidential
			}
		}
		statuses[i] = status
	}

	return df.WithColumn(StatusColumn, statuses)
}
