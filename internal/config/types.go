// Package config provides configuration management for the ibsrecon CLI.
//
// Configuration is layered: defaults, then the ibsrecon.yaml config file,
// then IBSRECON_-prefixed environment variables, then CLI flags.
package config

import "time"

// ContextConfig holds the reporting context a submission is validated under.
type ContextConfig struct {
	ReportingCountry string `koanf:"reporting_country"`
	CurrencyCode     string `koanf:"currency_code"`
	Quarter          string `koanf:"quarter"`
}

// DisclosureConfig holds dominance-screening options.
type DisclosureConfig struct {
	Threshold      float64  `koanf:"threshold"`
	GroupColumns   []string `koanf:"group_columns"`
	ContributorCol string   `koanf:"contributor_column"`
}

// Config holds all CLI configuration options.
type Config struct {
	Context        ContextConfig     `koanf:"context"`
	Catalogs       []string          `koanf:"catalogs"`
	DisabledRules  []string          `koanf:"disabled_rules"`
	ToleranceScale float64           `koanf:"tolerance_scale"`
	ValueColumn    string            `koanf:"value_column"`
	StatePath      string            `koanf:"state_path"`
	ReportPath     string            `koanf:"report_path"`
	OutputFormat   string            `koanf:"output"`
	Parallelism    int               `koanf:"parallelism"`
	RuleTimeout    time.Duration     `koanf:"rule_timeout"`
	Verbose        bool              `koanf:"verbose"`
	Disclosure     *DisclosureConfig `koanf:"disclosure"`
}
