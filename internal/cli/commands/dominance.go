package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statglass/ibsrecon/internal/report"
	"github.com/statglass/ibsrecon/pkg/disclosure"
)

// DominanceOptions holds options for the dominance command.
type DominanceOptions struct {
	GroupColumns   []string
	ContributorCol string
	Threshold      float64
	OutPath        string
}

// NewDominanceCommand creates the dominance command.
func NewDominanceCommand() *cobra.Command {
	opts := &DominanceOptions{}

	cmd := &cobra.Command{
		Use:   "dominance <submission>",
		Short: "Screen cells for disclosure by dominance",
		Long: `Append a ` + disclosure.StatusColumn + ` column marking cells where a single
contributor dominates the published total: "` + disclosure.StatusConfidential + `" when one
contributor's share of its group total strictly exceeds the threshold,
"` + disclosure.StatusFree + `" otherwise. Cells in groups with a zero total are always
publishable.`,
		Example: `  # Screen with the default threshold
  ibsrecon dominance cells.csv --group CP_COUNTRY,POSITION --contributor REP_BANK

  # Stricter threshold, written to a file
  ibsrecon dominance cells.csv --group CP_COUNTRY --contributor REP_BANK \
    --threshold 0.5 --out screened.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDominance(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.GroupColumns, "group", nil, "Columns identifying the published cell")
	cmd.Flags().StringVar(&opts.ContributorCol, "contributor", "", "Column identifying the contributor")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", 0, "Dominance share threshold in (0,1)")
	cmd.Flags().StringVar(&opts.OutPath, "out", "", "Write the screened submission to this path (default: stdout)")
	_ = cmd.MarkFlagRequired("contributor")

	return cmd
}

func runDominance(cmd *cobra.Command, path string, opts *DominanceOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	ctx := cmd.Context()

	// Flags override the disclosure section of the config file.
	groupCols := opts.GroupColumns
	contributor := opts.ContributorCol
	threshold := opts.Threshold
	if cfg.Disclosure != nil {
		if len(groupCols) == 0 {
			groupCols = cfg.Disclosure.GroupColumns
		}
		if contributor == "" {
			contributor = cfg.Disclosure.ContributorCol
		}
		if threshold == 0 {
			threshold = cfg.Disclosure.Threshold
		}
	}
	if len(groupCols) == 0 {
		return fmt.Errorf("no group columns configured (use --group)")
	}
	if contributor == "" {
		return fmt.Errorf("no contributor column configured (use --contributor)")
	}

	df, err := loadFrame(ctx, cfg, cmdCtx.Logger, path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	var dopts []disclosure.Option
	if threshold > 0 {
		dopts = append(dopts, disclosure.WithThreshold(threshold))
	}
	screened, err := disclosure.Apply(df, cfg.ValueColumn, groupCols, contributor, dopts...)
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

	if err := report.WriteFrameCSV(out, screened); err != nil {
		return err
	}

	confidential := 0
	for i := 0; i < screened.Len(); i++ {
		if screened.Cell(i, disclosure.StatusColumn) == disclosure.StatusConfidential {
			confidential++
		}
	}
	cmdCtx.Logger.Info("screened submission", "rows", screened.Len(), "confidential", confidential)
	return nil
}
