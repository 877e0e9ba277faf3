package routecard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration. Loaded from a YAML file; a missing
// file yields the defaults so a bare binary works against a local sqlite
// database.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Search    SearchConfig    `yaml:"search"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// DatabaseConfig selects the persistent medium.
type DatabaseConfig struct {
	// Driver is sqlite, postgres, or mysql.
	Driver string `yaml:"driver"`
	// DSN is the file path for sqlite or the connection string otherwise.
	DSN string `yaml:"dsn"`
}

// WorkflowConfig selects the completion policy.
type WorkflowConfig struct {
	Policy Policy `yaml:"policy"`
}

// SearchConfig tunes substring search.
type SearchConfig struct {
	CaseSensitive bool `yaml:"case_sensitive"`
}

// ReportingConfig tunes the reporting engine.
type ReportingConfig struct {
	TopN int `yaml:"top_n"`
}

// DefaultConfig returns the default configuration: local sqlite file,
// pre-provisioned workflow, case-insensitive search, top-10 tables.
func DefaultConfig() *Config {
	return &Config{
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "route_cards.db"},
		Workflow:  WorkflowConfig{Policy: PolicyPreProvisioned},
		Search:    SearchConfig{CaseSensitive: false},
		Reporting: ReportingConfig{TopN: defaultTopN},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file returns
// the defaults; a malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum fields and fills blanks with defaults.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "", "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Workflow.Policy {
	case "", PolicyPreProvisioned, PolicyAutoProvision:
	default:
		return fmt.Errorf("unknown workflow policy %q", c.Workflow.Policy)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "route_cards.db"
	}
	if c.Workflow.Policy == "" {
		c.Workflow.Policy = PolicyPreProvisioned
	}
	if c.Reporting.TopN <= 0 {
		c.Reporting.TopN = defaultTopN
	}
	return nil
}
