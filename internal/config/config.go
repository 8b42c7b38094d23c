// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for webstore-go. It supports a four-layer
// override chain (defaults -> config file -> environment -> CLI flags). All
// keys are flat top-level keys; the sub-structs below only group them in code.
package config

import "time"

// Config is the top-level configuration structure parsed from a TOML file.
// Embedded sub-structs have no TOML table of their own, so every key lives
// at the top level of the file.
type Config struct {
	StoreConfig
	FilesConfig
	PollingConfig
	LoggingConfig
	NetworkConfig
}

// StoreConfig identifies the publisher account, the default item, and the
// remote endpoints.
type StoreConfig struct {
	PublisherID string `toml:"publisher_id"`
	ItemID      string `toml:"item_id"`
	APIBaseURL  string `toml:"api_base_url"`
	TokenURL    string `toml:"token_url"`
}

// FilesConfig locates local state. Empty paths resolve under the data dir.
type FilesConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	HistoryFile     string `toml:"history_file"`
	History         bool   `toml:"history"`
}

// PollingConfig bounds upload waits and sets the status watch cadence.
type PollingConfig struct {
	MaxWait       string `toml:"max_wait"`
	WatchInterval string `toml:"watch_interval"`
}

// LoggingConfig controls log output level and format.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls HTTP client behavior: timeouts and user agent.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	DataTimeout    string `toml:"data_timeout"`
	UserAgent      string `toml:"user_agent"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Empty strings mean "not specified".
type CLIOverrides struct {
	ConfigPath  string // --config
	PublisherID string // --publisher
	ItemID      string // --item
}

// Resolved is the effective configuration after all four layers have been
// applied. Durations are parsed and file paths are absolute.
type Resolved struct {
	ConfigPath string

	PublisherID string
	ItemID      string
	APIBaseURL  string
	TokenURL    string

	CredentialsFile string
	HistoryFile     string
	History         bool

	MaxWait       time.Duration
	WatchInterval time.Duration

	LogLevel  string
	LogFormat string

	ConnectTimeout time.Duration
	DataTimeout    time.Duration
	UserAgent      string
}
