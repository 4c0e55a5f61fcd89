package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/statglass/ibsrecon/internal/state"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
	JSON  bool
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent validation runs",
		Long: `List recent validation runs from the state database, newest first,
with their reporting context and failure counts.`,
		Example: `  # Show the last 20 runs
  ibsrecon runs

  # Show the last 5 runs as JSON
  ibsrecon runs --limit 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions) error {
	cmdCtx := NewCommandContext(cmd)

	store, err := openStore(cmdCtx.Cfg)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	if opts.JSON {
		if runs == nil {
			runs = []*state.Run{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no runs recorded)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Country", "Currency", "Quarter", "Status", "Failures", "Issues", "Started"})

	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID[:8],
			run.ReportingCountry,
			run.CurrencyCode,
			run.Quarter,
			run.Status,
			run.FailureCount,
			run.IssueCount,
			run.StartedAt.Format("2006-01-02 15:04:05"),
		})
	}

	t.Render()
	return nil
}
