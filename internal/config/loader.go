package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, searched in order.
const (
	ConfigFileName    = "ibsrecon.yaml"
	ConfigFileNameAlt = "ibsrecon.yml"
)

// Default configuration values.
const (
	DefaultStateFile   = ".ibsrecon/state.db"
	DefaultOutput      = "table"
	DefaultValueColumn = "VALUE"
)

// DefaultCatalogs are the rule catalogs applied when none are configured.
var DefaultCatalogs = []string{"lbsr", "lbsn", "lbs_cross", "cbsi", "cbsg", "cbs_cross"}

// flagKeyMap maps CLI flag names to config keys where they differ. Flags not
// listed map by replacing dashes with underscores.
var flagKeyMap = map[string]string{
	"country":  "context.reporting_country",
	"currency": "context.currency_code",
	"quarter":  "context.quarter",
	"state":    "state_path",
	"report":   "report_path",
	"disable":  "disabled_rules",
}

// Package-level config file tracking and loaded config, for access by
// commands without an import cycle with the cli package.
var (
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > ibsrecon.yaml > ibsrecon.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"catalogs":        DefaultCatalogs,
		"tolerance_scale": 1.0,
		"value_column":    DefaultValueColumn,
		"state_path":      DefaultStateFile,
		"output":          DefaultOutput,
		"verbose":         false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (IBSRECON_ prefix)
	// Transform: IBSRECON_STATE_PATH -> state_path, IBSRECON_CONTEXT__QUARTER -> context.quarter
	if err := k.Load(env.Provider("IBSRECON_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "IBSRECON_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeyMap[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	currentConfig = &cfg
	return &cfg, nil
}

// ConfigFileUsed returns the path to the config file being used, if any.
func ConfigFileUsed() string {
	return configFileUsed
}

// Current returns the most recently loaded configuration, or nil if Load
// has not been called.
func Current() *Config {
	return currentConfig
}

// Reset clears the loaded config and tracked config file. Used for testing.
func Reset() {
	configFileUsed = ""
	currentConfig = nil
}

func validate(cfg *Config) error {
	if cfg.ToleranceScale <= 0 {
		return fmt.Errorf("tolerance_scale must be positive, got %v", cfg.ToleranceScale)
	}
	if cfg.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative, got %d", cfg.Parallelism)
	}
	if cfg.RuleTimeout < 0 {
		return fmt.Errorf("rule_timeout must not be negative, got %v", cfg.RuleTimeout)
	}
	switch cfg.OutputFormat {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown output format %q (expected table, json, or csv)", cfg.OutputFormat)
	}
	if cfg.Disclosure != nil && cfg.Disclosure.Threshold != 0 &&
		(cfg.Disclosure.Threshold <= 0 || cfg.Disclosure.Threshold >= 1) {
		return fmt.Errorf("disclosure threshold must be in (0,1), got %v", cfg.Disclosure.Threshold)
	}
	return nil
}
