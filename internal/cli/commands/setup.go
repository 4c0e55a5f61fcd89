// Package commands implements the ibsrecon subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/statglass/ibsrecon/internal/cli/output"
	"github.com/statglass/ibsrecon/internal/config"
	"github.com/statglass/ibsrecon/internal/loader"
	"github.com/statglass/ibsrecon/internal/state"
	"github.com/statglass/ibsrecon/pkg/frame"
	"github.com/statglass/ibsrecon/pkg/recon"
	_ "github.com/statglass/ibsrecon/pkg/recon/catalogs" // register rule catalogs
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds the shared command dependencies.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:      getConfig(),
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}
}

// getConfig returns the current configuration.
// It uses config.Current() if available, otherwise falls back to environment
// variables with defaults.
func getConfig() *config.Config {
	if cfg := config.Current(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	scale := 1.0
	if v := os.Getenv("IBSRECON_TOLERANCE_SCALE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			scale = f
		}
	}

	return &config.Config{
		Context: config.ContextConfig{
			ReportingCountry: os.Getenv("IBSRECON_CONTEXT__REPORTING_COUNTRY"),
			CurrencyCode:     os.Getenv("IBSRECON_CONTEXT__CURRENCY_CODE"),
			Quarter:          os.Getenv("IBSRECON_CONTEXT__QUARTER"),
		},
		Catalogs:       config.DefaultCatalogs,
		ToleranceScale: scale,
		ValueColumn:    getEnvOrDefault("IBSRECON_VALUE_COLUMN", config.DefaultValueColumn),
		StatePath:      getEnvOrDefault("IBSRECON_STATE_PATH", config.DefaultStateFile),
		OutputFormat:   getEnvOrDefault("IBSRECON_OUTPUT", config.DefaultOutput),
		Verbose:        os.Getenv("IBSRECON_VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// reconContext converts the configured reporting parameters.
func reconContext(cfg *config.Config) recon.Context {
	return recon.Context{
		ReportingCountry: strings.ToUpper(cfg.Context.ReportingCountry),
		CurrencyCode:     strings.ToUpper(cfg.Context.CurrencyCode),
		Quarter:          cfg.Context.Quarter,
	}
}

// selectedRules resolves the configured catalogs into a rule set.
func selectedRules(cfg *config.Config) ([]recon.Rule, error) {
	return recon.SelectRules(cfg.Catalogs, cfg.DisabledRules, cfg.ToleranceScale)
}

// newValidator builds a validator from the configuration.
func newValidator(cfg *config.Config, logger *slog.Logger) *recon.Validator {
	opts := []recon.Option{recon.WithLogger(logger)}
	if cfg.Parallelism > 0 {
		opts = append(opts, recon.WithParallelism(cfg.Parallelism))
	}
	if cfg.RuleTimeout > 0 {
		opts = append(opts, recon.WithRuleTimeout(cfg.RuleTimeout))
	}
	return recon.New(reconContext(cfg), opts...)
}

// loadFrame ingests one submission file through DuckDB.
func loadFrame(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) (*frame.Frame, error) {
	l, err := loader.Open(ctx, "", loader.WithLogger(logger), loader.WithValueColumn(cfg.ValueColumn))
	if err != nil {
		return nil, err
	}
	defer func() { _ = l.Close() }()

	return l.LoadFile(ctx, path)
}

// openStore opens the run-history store, creating its directory if needed.
func openStore(cfg *config.Config) (*state.Store, error) {
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, err
		}
	}
	s := state.NewStore()
	if err := s.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	return s, nil
}
