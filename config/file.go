package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the structure of ~/.announcements/config.yaml. It has
// the same shape as Config; absent keys stay zero and are ignored by Merge.
type FileConfig Config

// LoadConfigFile loads configuration from ~/.announcements/config.yaml.
// Returns nil if the file doesn't exist (not an error). Returns error if the
// file exists but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	return LoadConfigFileFrom(filepath.Join(homeDir, ".announcements", "config.yaml"))
}

// LoadConfigFileFrom loads configuration from path with the same rules as
// LoadConfigFile.
func LoadConfigFileFrom(path string) (*FileConfig, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Load returns the defaults overlaid with the config file at path, or with
// ~/.announcements/config.yaml when path is empty.
func Load(path string) (*Config, error) {
	var (
		file *FileConfig
		err  error
	)
	if path == "" {
		file, err = LoadConfigFile()
	} else {
		file, err = LoadConfigFileFrom(path)
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Merge(file)
	return cfg, nil
}
