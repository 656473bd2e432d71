package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the palmbench driver's configuration: worker count, batch
// shape, and workload parameters (spec.md §6's driver contract,
// SPEC_FULL.md §A.3). Adapted from the teacher's pkg/config/config.go
// Config struct, repurposed from store/security settings to
// benchmark-driver settings; the Security section has no analogue
// here since the core has no persisted state to protect.
type Config struct {
	Threads    int     `yaml:"threads"`
	BatchSize  int     `yaml:"batch_size"`
	NumBatches int     `yaml:"num_batches"`
	KeyRange   int     `yaml:"key_range"`
	Metrics    Metrics `yaml:"metrics"`
	Logging    Logging `yaml:"logging"`
}

// Metrics controls the Prometheus exposition endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
}

// Logging controls the driver's stdlib log output: Level "debug" adds
// one log line per batch; any other value adds none.
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig mirrors original_source/tests/tree.rs's S1 scenario
// parameters (8 workers, batch 8192, 512 batches, key range 10000).
func DefaultConfig() *Config {
	return &Config{
		Threads:    8,
		BatchSize:  8192,
		NumBatches: 512,
		KeyRange:   10000,
		Metrics: Metrics{
			Enabled: false,
			Bind:    "127.0.0.1:2112",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig loads a driver configuration from the given path,
// starting from DefaultConfig so an incomplete file still produces
// sane values for the fields it omits.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Resolve a relative path to an absolute one; the path is not
	// otherwise checked.
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig writes config to configPath, creating parent directories
// as needed, with restrictive file permissions.
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigExists reports whether a configuration file exists at configPath.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
