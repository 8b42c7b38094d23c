package config

import (
	"fmt"
	"io"
	"strconv"
)

// Setting is one effective key/value pair for display.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Settings lists the effective values in config-file key order.
func (r *Resolved) Settings() []Setting {
	return []Setting{
		{"publisher_id", r.PublisherID},
		{"item_id", r.ItemID},
		{"api_base_url", r.APIBaseURL},
		{"token_url", r.TokenURL},
		{"credentials_file", r.CredentialsFile},
		{"history_file", r.HistoryFile},
		{"history", strconv.FormatBool(r.History)},
		{"max_wait", r.MaxWait.String()},
		{"watch_interval", r.WatchInterval.String()},
		{"log_level", r.LogLevel},
		{"log_format", r.LogFormat},
		{"connect_timeout", r.ConnectTimeout.String()},
		{"data_timeout", r.DataTimeout.String()},
		{"user_agent", r.UserAgent},
	}
}

// RenderEffective writes the resolved configuration as TOML-style text to w.
// This powers the "config show" command, giving users visibility into the
// effective values after all four override layers have been applied.
func RenderEffective(r *Resolved, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration (file: %s)\n\n", r.ConfigPath)

	for _, s := range r.Settings() {
		if s.Key == "history" {
			ew.printf("%-16s = %s\n", s.Key, s.Value)
			continue
		}

		ew.printf("%-16s = %q\n", s.Key, s.Value)
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain
// printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
