package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-runewidth"
	"github.com/pevans/announcements"
	"github.com/pevans/announcements/config"
	"github.com/pevans/announcements/logging"
	"go.uber.org/zap"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseFlags parses args into fs. It reports false when the command should
// stop without error, as after -h.
func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	err := fs.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// isFlagSet reports whether name was given on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// loadConfig loads configuration with precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file (~/.announcements/config.yaml or -config)
// 3. Default values (lowest priority)
// Command line flags are applied on top by each command.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config file: %v\n", err)
		fmt.Fprintf(os.Stderr, "Continuing with defaults and environment variables...\n\n")
		cfg = config.Default()
	}

	cfg.Site.BaseURL = getEnv("ANNOUNCEMENTS_BASE_URL", cfg.Site.BaseURL)
	cfg.Log.Level = getEnv("ANNOUNCEMENTS_LOG_LEVEL", cfg.Log.Level)
	cfg.Snapshot.DSN = getEnv("ANNOUNCEMENTS_SNAPSHOT_DSN", cfg.Snapshot.DSN)

	return cfg
}

// newService validates cfg and builds the logger and service for a command.
// Callers must Sync the logger.
func newService(cfg *config.Config) (*announcements.Service, *zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	service, err := announcements.NewService(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}

	return service, logger, nil
}

// truncate shortens s to width terminal columns, marking the cut with "...".
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
