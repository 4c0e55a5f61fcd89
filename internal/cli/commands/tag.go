package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statglass/ibsrecon/internal/report"
	"github.com/statglass/ibsrecon/pkg/recon"
)

// TagOptions holds options for the tag command.
type TagOptions struct {
	OutPath string
}

// NewTagCommand creates the tag command.
func NewTagCommand() *cobra.Command {
	opts := &TagOptions{}

	cmd := &cobra.Command{
		Use:   "tag <submission>",
		Short: "Tag every row with a quality status",
		Long: `Evaluate the configured rule catalogs against a submission and append a
` + recon.QualityColumn + ` column: "` + recon.StatusFail + `" for rows that contributed to
any failing combination, "` + recon.StatusPass + `" otherwise. The tagged submission is
written as CSV.`,
		Example: `  # Tag and write to stdout
  ibsrecon tag lbsr.csv --catalogs lbsr

  # Tag into a file
  ibsrecon tag lbsr.csv --catalogs lbsr --out lbsr_tagged.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.OutPath, "out", "", "Write the tagged submission to this path (default: stdout)")

	return cmd
}

func runTag(cmd *cobra.Command, path string, opts *TagOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	ctx := cmd.Context()

	rules, err := selectedRules(cfg)
	if err != nil {
		return err
	}

	df, err := loadFrame(ctx, cfg, cmdCtx.Logger, path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	v := newValidator(cfg, cmdCtx.Logger)
	tagged, err := v.Tag(ctx, df, rules)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.OutPath != "" {
		f, err := os.Create(opts.OutPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := report.WriteFrameCSV(out, tagged); err != nil {
		return err
	}

	failing := 0
	for i := 0; i < tagged.Len(); i++ {
		if tagged.Cell(i, recon.QualityColumn) == recon.StatusFail {
			failing++
		}
	}
	cmdCtx.Logger.Info("tagged submission", "rows", tagged.Len(), "failing", failing)
	return nil
}
