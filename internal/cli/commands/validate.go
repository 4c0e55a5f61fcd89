package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statglass/ibsrecon/internal/report"
	"github.com/statglass/ibsrecon/internal/state"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	ReportPath string
	NoState    bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <submission> [counterpart]",
		Short: "Validate a submission against the configured rule catalogs",
		Long: `Evaluate consistency rules against one or two submission files.

With a single file, every rule compares the submission against itself:
internal catalogs (lbsr, lbsn, cbsi, cbsg) check aggregation identities
within one report. With two files, the first is the left-hand side and
the second the right-hand side: cross catalogs (lbs_cross, cbs_cross)
check that independently compiled reports agree cell by cell.

Each failing grouping-key combination is reported with both aggregated
values and their difference. The command exits non-zero when any rule
fails.`,
		Example: `  # Check a locational-by-residency submission against itself
  ibsrecon validate lbsr.csv --catalogs lbsr --country CA --currency CAD

  # Cross-check residency against nationality
  ibsrecon validate lbsr.csv lbsn.csv --catalogs lbs_cross

  # Machine-readable output with an HTML report
  ibsrecon validate cbs.parquet --catalogs cbsi,cbsg -o json --report report.html`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "Write an HTML report to this path")
	cmd.Flags().BoolVar(&opts.NoState, "no-state", false, "Skip recording the run in the state database")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string, opts *ValidateOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	ctx := cmd.Context()

	rules, err := selectedRules(cfg)
	if err != nil {
		return err
	}

	lhs, err := loadFrame(ctx, cfg, cmdCtx.Logger, args[0])
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}
	rhs := lhs
	if len(args) == 2 {
		rhs, err = loadFrame(ctx, cfg, cmdCtx.Logger, args[1])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[1], err)
		}
	}

	var store *state.Store
	var runID string
	if !opts.NoState {
		store, err = openStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		defer func() { _ = store.Close() }()

		run, err := store.CreateRun(cfg.Context.ReportingCountry, cfg.Context.CurrencyCode, cfg.Context.Quarter)
		if err != nil {
			return err
		}
		runID = run.ID
	}

	v := newValidator(cfg, cmdCtx.Logger)
	if err := v.Validate(ctx, lhs, rhs, rules); err != nil {
		if store != nil {
			_ = store.FinishRun(runID, state.RunStatusFailed, 0, 0)
		}
		return err
	}

	failures := v.Failures()
	issues := v.Issues()

	if store != nil {
		summaries := report.Summarize(failures)
		for _, s := range summaries {
			if err := store.RecordRuleResult(runID, s.RuleID, s.FailCount); err != nil {
				return err
			}
		}
		if err := store.FinishRun(runID, state.RunStatusCompleted, len(failures), len(issues)); err != nil {
			return err
		}
	}

	if err := report.RenderFailures(cmd.OutOrStdout(), failures, cfg.OutputFormat); err != nil {
		return err
	}
	for _, issue := range issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "rule %s skipped: %v\n", issue.RuleID, issue.Err)
	}

	reportPath := opts.ReportPath
	if reportPath == "" {
		reportPath = cfg.ReportPath
	}
	if reportPath != "" {
		f, err := os.Create(reportPath)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		if err := report.WriteHTML(f, v.Context(), len(rules), failures, issues); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		cmdCtx.Logger.Info("wrote report", "path", reportPath)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d failing combinations across %d rules", len(failures), len(report.Summarize(failures)))
	}
	return nil
}
