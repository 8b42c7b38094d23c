package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invalidEnumStr = "invalid-value"

func validConfig() *Config {
	return DefaultConfig()
}

func TestValidate_ValidDefaults(t *testing.T) {
	err := Validate(validConfig())
	assert.NoError(t, err)
}

func TestValidate_Durations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"max_wait not a duration", func(c *Config) { c.MaxWait = "soon" }, "max_wait"},
		{"max_wait too small", func(c *Config) { c.MaxWait = "0s" }, "max_wait"},
		{"watch_interval too small", func(c *Config) { c.WatchInterval = "1s" }, "watch_interval"},
		{"connect_timeout too small", func(c *Config) { c.ConnectTimeout = "500ms" }, "connect_timeout"},
		{"data_timeout too small", func(c *Config) { c.DataTimeout = "2s" }, "data_timeout"},
		{"data_timeout invalid", func(c *Config) { c.DataTimeout = "" }, "data_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_WatchIntervalAtMinimum(t *testing.T) {
	cfg := validConfig()
	cfg.WatchInterval = "5s"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_URLs(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"no scheme", "chromewebstore.googleapis.com"},
		{"wrong scheme", "ftp://example.com"},
		{"no host", "https://"},
		{"unparseable", "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.APIBaseURL = tt.value

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "api_base_url")
		})
	}
}

func TestValidate_LocalHTTPAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.APIBaseURL = "http://127.0.0.1:8080"
	cfg.TokenURL = "http://127.0.0.1:8080/token"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_LogLevel_Invalid(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = invalidEnumStr
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestValidate_LogFormat_Invalid(t *testing.T) {
	cfg := validConfig()
	cfg.LogFormat = invalidEnumStr
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = invalidEnumStr
	cfg.LogFormat = invalidEnumStr
	cfg.MaxWait = "x"
	cfg.TokenURL = "nope"

	err := Validate(cfg)
	require.Error(t, err)

	for _, field := range []string{"log_level", "log_format", "max_wait", "token_url"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidateResolved_RelativePaths(t *testing.T) {
	r := &Resolved{CredentialsFile: "creds.json", HistoryFile: "history.db", History: true}

	err := ValidateResolved(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials_file")
	assert.Contains(t, err.Error(), "history_file")
}

func TestValidateResolved_HistoryDisabledIgnoresPath(t *testing.T) {
	r := &Resolved{CredentialsFile: "/abs/creds.json", HistoryFile: "history.db", History: false}
	assert.NoError(t, ValidateResolved(r))
}
