package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal errors with "did you mean?"
// suggestions.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	logger.Debug("config file loaded",
		slog.String("path", path),
		slog.Int("keys", len(md.Keys())),
	)

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values. Users can start without
// creating a config file.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("no config file, using defaults", slog.String("path", path))
		return DefaultConfig(), nil
	}

	return Load(path, logger)
}

// Resolve loads configuration and applies the four-layer override chain:
// defaults -> config file -> environment variables -> CLI flags.
// It returns fully parsed and validated settings.
func Resolve(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*Resolved, error) {
	// 1. Resolve config path: CLI > env > default
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	// 2. Load config file (returns defaults if no file exists)
	cfg, err := LoadOrDefault(cfgPath, logger)
	if err != nil {
		return nil, err
	}

	// 3. Apply env overrides
	if env.PublisherID != "" {
		cfg.PublisherID = env.PublisherID
	}

	if env.ItemID != "" {
		cfg.ItemID = env.ItemID
	}

	// 4. Apply CLI overrides
	if cli.PublisherID != "" {
		cfg.PublisherID = cli.PublisherID
	}

	if cli.ItemID != "" {
		cfg.ItemID = cli.ItemID
	}

	// 5. Parse into the effective form and check cross-field constraints
	resolved, err := resolveConfig(cfg, cfgPath)
	if err != nil {
		return nil, err
	}

	if err := ValidateResolved(resolved); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return resolved, nil
}

// resolveConfig converts a validated Config into Resolved. Durations were
// checked by Validate, so parse failures here are unexpected.
func resolveConfig(cfg *Config, cfgPath string) (*Resolved, error) {
	var errs []error

	parse := func(field, value string) time.Duration {
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q: %w", field, value, err))
		}

		return d
	}

	r := &Resolved{
		ConfigPath:      cfgPath,
		PublisherID:     cfg.PublisherID,
		ItemID:          cfg.ItemID,
		APIBaseURL:      cfg.APIBaseURL,
		TokenURL:        cfg.TokenURL,
		CredentialsFile: resolveFile(cfg.CredentialsFile, DefaultCredentialsPath()),
		HistoryFile:     resolveFile(cfg.HistoryFile, DefaultHistoryPath()),
		History:         cfg.History,
		MaxWait:         parse("max_wait", cfg.MaxWait),
		WatchInterval:   parse("watch_interval", cfg.WatchInterval),
		LogLevel:        cfg.LogLevel,
		LogFormat:       cfg.LogFormat,
		ConnectTimeout:  parse("connect_timeout", cfg.ConnectTimeout),
		DataTimeout:     parse("data_timeout", cfg.DataTimeout),
		UserAgent:       cfg.UserAgent,
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}

	return r, nil
}

// resolveFile applies the default for an unset path and expands "~/".
func resolveFile(configured, fallback string) string {
	if configured == "" {
		return fallback
	}

	return filepath.Clean(expandTilde(configured))
}
