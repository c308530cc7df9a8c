package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SuiteConfig describes one suite class a tenant can offer.
type SuiteConfig struct {
	Type        string `yaml:"type"`         // enum value, e.g. VIP_SUITE
	DisplayName string `yaml:"display_name"` // staff-facing label
	NamePrefix  string `yaml:"name_prefix"`  // prefix for auto-provisioned resources
}

// SuiteCatalog is the root of suites.yaml.
type SuiteCatalog struct {
	Suites []SuiteConfig `yaml:"suites"`
}

// DefaultSuiteCatalog returns the compiled-in catalog used when no
// suites.yaml is configured.
func DefaultSuiteCatalog() *SuiteCatalog {
	return &SuiteCatalog{
		Suites: []SuiteConfig{
			{Type: "VIP_SUITE", DisplayName: "VIP Suite", NamePrefix: "VIP"},
			{Type: "STANDARD_PLUS_SUITE", DisplayName: "Standard Plus Suite", NamePrefix: "Plus"},
			{Type: "STANDARD_SUITE", DisplayName: "Standard Suite", NamePrefix: "Std"},
			{Type: "PLAY_AREA", DisplayName: "Play Area", NamePrefix: "Play"},
		},
	}
}

// LoadSuiteCatalog loads and validates the suite catalog from a YAML file.
// An empty path yields the default catalog.
func LoadSuiteCatalog(path string) (*SuiteCatalog, error) {
	if path == "" {
		return DefaultSuiteCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite catalog: %w", err)
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cat SuiteCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse suite catalog: %w", err)
	}

	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("validate suite catalog: %w", err)
	}

	return &cat, nil
}

// Validate checks the catalog for errors.
func (c *SuiteCatalog) Validate() error {
	if len(c.Suites) == 0 {
		return fmt.Errorf("no suites defined")
	}

	types := make(map[string]bool)
	for i, s := range c.Suites {
		if s.Type == "" {
			return fmt.Errorf("suite[%d]: type is required", i)
		}
		if types[s.Type] {
			return fmt.Errorf("suite[%d]: duplicate type %q", i, s.Type)
		}
		types[s.Type] = true

		if s.DisplayName == "" {
			return fmt.Errorf("suite[%d]: display_name is required", i)
		}
		if s.NamePrefix == "" {
			return fmt.Errorf("suite[%d]: name_prefix is required", i)
		}
	}

	return nil
}

// Get returns the config for a suite type, or nil when unknown.
func (c *SuiteCatalog) Get(suiteType string) *SuiteConfig {
	for i := range c.Suites {
		if c.Suites[i].Type == suiteType {
			return &c.Suites[i]
		}
	}
	return nil
}

// Types returns the suite type values in catalog order.
func (c *SuiteCatalog) Types() []string {
	out := make([]string, len(c.Suites))
	for i, s := range c.Suites {
		out[i] = s.Type
	}
	return out
}
