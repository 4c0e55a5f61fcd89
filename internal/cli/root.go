// Package cli provides the command-line interface for ibsrecon.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statglass/ibsrecon/internal/cli/commands"
	"github.com/statglass/ibsrecon/internal/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ibsrecon",
		Short: "ibsrecon - International Banking Statistics Reconciliation",
		Long: `ibsrecon validates international banking statistics submissions before
they are sent on: it checks locational (LBS) and consolidated (CBS)
reports against the consistency identities the collecting authority
enforces, tags rows by quality, and screens cells for disclosure.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cfg.Verbose)
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if cfg.Verbose {
				if configFile := config.ConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Banking statistics reconciliation built with Go and DuckDB
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ibsrecon.yaml)")
	rootCmd.PersistentFlags().String("country", "", "Reporting country code (e.g. CA)")
	rootCmd.PersistentFlags().String("currency", "", "Domestic currency code (e.g. CAD)")
	rootCmd.PersistentFlags().String("quarter", "", "Reporting quarter (e.g. 2025-Q3)")
	rootCmd.PersistentFlags().StringSlice("catalogs", nil, "Rule catalogs to apply")
	rootCmd.PersistentFlags().StringSlice("disable", nil, "Rule IDs to skip")
	rootCmd.PersistentFlags().Float64("tolerance-scale", 1.0, "Multiplier applied to every rule tolerance")
	rootCmd.PersistentFlags().String("value-column", "", "Name of the value column in submissions")
	rootCmd.PersistentFlags().String("state", "", "Path to run-history database")
	rootCmd.PersistentFlags().Int("parallelism", 0, "Rules evaluated concurrently (0 = number of CPUs)")
	rootCmd.PersistentFlags().Duration("rule-timeout", 0, "Per-rule evaluation timeout (0 = none)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|json|csv)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewTagCommand())
	rootCmd.AddCommand(commands.NewDominanceCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for ibsrecon.

To load completions:

Bash:
  $ source <(ibsrecon completion bash)

Zsh:
  $ ibsrecon completion zsh > "${fpath[1]}/_ibsrecon"

Fish:
  $ ibsrecon completion fish | source

PowerShell:
  PS> ibsrecon completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
