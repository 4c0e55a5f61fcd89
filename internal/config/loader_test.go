package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultCatalogs, cfg.Catalogs)
	assert.Equal(t, 1.0, cfg.ToleranceScale)
	assert.Equal(t, DefaultValueColumn, cfg.ValueColumn)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, ConfigFileUsed())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
context:
  reporting_country: CA
  currency_code: CAD
  quarter: 2025-Q3
catalogs:
  - lbsr
  - lbsn
disabled_rules:
  - LBSR_CC14
tolerance_scale: 2.5
rule_timeout: 30s
verbose: true
`
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "CA", cfg.Context.ReportingCountry)
	assert.Equal(t, "CAD", cfg.Context.CurrencyCode)
	assert.Equal(t, "2025-Q3", cfg.Context.Quarter)
	assert.Equal(t, []string{"lbsr", "lbsn"}, cfg.Catalogs)
	assert.Equal(t, []string{"LBSR_CC14"}, cfg.DisabledRules)
	assert.Equal(t, 2.5, cfg.ToleranceScale)
	assert.Equal(t, 30*time.Second, cfg.RuleTimeout)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, path, ConfigFileUsed())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "context:\n  quarter: 2025-Q1\nstate_path: from-file.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
	chdir(t, dir)

	t.Setenv("IBSRECON_CONTEXT__QUARTER", "2025-Q4")
	t.Setenv("IBSRECON_STATE_PATH", "from-env.db")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "2025-Q4", cfg.Context.Quarter)
	assert.Equal(t, "from-env.db", cfg.StatePath)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("IBSRECON_CONTEXT__REPORTING_COUNTRY", "US")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("country", "", "")
	flags.String("state", "", "")
	flags.Float64("tolerance-scale", 1.0, "")
	require.NoError(t, flags.Parse([]string{
		"--country", "CA",
		"--state", "runs.db",
		"--tolerance-scale", "3",
	}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "CA", cfg.Context.ReportingCountry)
	assert.Equal(t, "runs.db", cfg.StatePath)
	assert.Equal(t, 3.0, cfg.ToleranceScale)
}

func TestLoad_UnchangedFlagsIgnored(t *testing.T) {
	chdir(t, t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "flag-default.db", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	// Flag defaults must not override config defaults.
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		errSubstr string
	}{
		{"zero tolerance scale", "tolerance_scale: 0\n", "tolerance_scale must be positive"},
		{"negative parallelism", "parallelism: -2\n", "parallelism must not be negative"},
		{"negative timeout", "rule_timeout: -5s\n", "rule_timeout must not be negative"},
		{"bad output", "output: yaml\n", "unknown output format"},
		{"bad threshold", "disclosure:\n  threshold: 1.5\n", "disclosure threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(tt.yaml), 0o644))
			chdir(t, dir)

			_, err := Load("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load("nope.yaml", nil)
	require.Error(t, err)
}
