// Package config provides configuration loading and management for volstack.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"volstack/pkg/stack"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Assembly parameters controlling stack geometry resolution
	Assembly struct {
		// SpacingMultiplierLimit is the gap-to-smallest-gap ratio above
		// which inter-slice spacing is declared irregular
		SpacingMultiplierLimit float64 `yaml:"spacingMultiplierLimit"`

		// RoundingDecimals is the precision used for resolved spacings
		// and slice positions
		RoundingDecimals int `yaml:"roundingDecimals"`

		// SpacingTolerance is the tolerance for comparing resolved
		// against nominal slice spacing
		SpacingTolerance float64 `yaml:"spacingTolerance"`
	} `yaml:"assembly"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// SlicesDir is the directory used for extracted slice images
		SlicesDir string `yaml:"slicesDir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	policy := stack.DefaultPolicy()
	cfg.Assembly.SpacingMultiplierLimit = policy.SpacingMultiplierLimit
	cfg.Assembly.RoundingDecimals = policy.RoundingDecimals
	cfg.Assembly.SpacingTolerance = policy.SpacingTolerance

	cfg.Output.Verbose = true
	cfg.Output.SlicesDir = "extracted_slices"

	return cfg
}

// Policy maps the assembly section onto a stack.Policy
func (c *Config) Policy() stack.Policy {
	return stack.Policy{
		SpacingMultiplierLimit: c.Assembly.SpacingMultiplierLimit,
		RoundingDecimals:       c.Assembly.RoundingDecimals,
		SpacingTolerance:       c.Assembly.SpacingTolerance,
	}
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Policy().Validate(); err != nil {
		return nil, fmt.Errorf("invalid assembly configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
