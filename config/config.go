// Package config loads the ingestion configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/flanksource/scanhub/ingest"
)

// DefaultFileName is the configuration file looked up in the working
// directory when no path is given.
const DefaultFileName = "scanhub.yaml"

// Config is the scanhub configuration.
type Config struct {
	// WarehouseDir is where the warehouse database lives. Defaults to
	// ~/.cache/scanhub.
	WarehouseDir string `yaml:"warehouse_dir,omitempty"`

	// Excludes are doublestar globs; matching records are skipped at
	// resolve time and matching paths at layout scan time.
	Excludes []string `yaml:"excludes,omitempty"`

	// Tools holds per-tool overrides keyed by tool name.
	Tools map[string]ToolConfig `yaml:"tools,omitempty"`
}

// ToolConfig is one tool's overrides.
type ToolConfig struct {
	// Enabled defaults to true; false removes the tool's strategy.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Rules are extra quality rules as CEL expressions over the `row` map.
	Rules []RuleConfig `yaml:"rules,omitempty"`
}

// RuleConfig is one configured quality rule.
type RuleConfig struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Excludes: []string{"vendor/**", "node_modules/**", ".git/**"},
	}
}

// Load reads a configuration file. An empty path tries DefaultFileName and
// falls back to Default when it does not exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// WarehousePath resolves the warehouse directory, defaulting to
// ~/.cache/scanhub.
func (c *Config) WarehousePath() (string, error) {
	if c.WarehouseDir != "" {
		return c.WarehouseDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "scanhub"), nil
}

// Enabled reports whether a tool's strategy should be registered.
func (c *Config) Enabled(tool string) bool {
	tc, ok := c.Tools[tool]
	if !ok || tc.Enabled == nil {
		return true
	}
	return *tc.Enabled
}

// ExtraRules compiles the configured CEL rules into per-tool rule sets.
func (c *Config) ExtraRules() (map[string]ingest.RuleSet, error) {
	extra := make(map[string]ingest.RuleSet)
	for tool, tc := range c.Tools {
		for _, rc := range tc.Rules {
			if rc.Expr == "" {
				return nil, fmt.Errorf("tool %s: rule %q has no expression", tool, rc.Name)
			}
			name := rc.Name
			if name == "" {
				name = "cel-rule"
			}
			rule, err := ingest.CELRule(name, rc.Expr)
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", tool, err)
			}
			extra[tool] = append(extra[tool], rule)
		}
	}
	return extra, nil
}
