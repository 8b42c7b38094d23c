package config

import (
	"log/slog"
	"os"
)

// Environment variable names for overrides.
const (
	EnvConfig       = "WEBSTORE_GO_CONFIG"
	EnvPublisher    = "WEBSTORE_GO_PUBLISHER"
	EnvItem         = "WEBSTORE_GO_ITEM"
	EnvClientID     = "WEBSTORE_GO_CLIENT_ID"
	EnvClientSecret = "WEBSTORE_GO_CLIENT_SECRET"
	EnvRefreshToken = "WEBSTORE_GO_REFRESH_TOKEN"
)

// EnvOverrides holds values derived from environment variables.
// The credential fields are not part of Config; callers overlay them on the
// credentials file.
type EnvOverrides struct {
	ConfigPath   string // WEBSTORE_GO_CONFIG: override config file path
	PublisherID  string // WEBSTORE_GO_PUBLISHER
	ItemID       string // WEBSTORE_GO_ITEM
	ClientID     string // WEBSTORE_GO_CLIENT_ID
	ClientSecret string // WEBSTORE_GO_CLIENT_SECRET
	RefreshToken string // WEBSTORE_GO_REFRESH_TOKEN
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// Only variable names are logged, never values.
func ReadEnvOverrides(logger *slog.Logger) EnvOverrides {
	env := EnvOverrides{
		ConfigPath:   os.Getenv(EnvConfig),
		PublisherID:  os.Getenv(EnvPublisher),
		ItemID:       os.Getenv(EnvItem),
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
		RefreshToken: os.Getenv(EnvRefreshToken),
	}

	for name, value := range map[string]string{
		EnvConfig:       env.ConfigPath,
		EnvPublisher:    env.PublisherID,
		EnvItem:         env.ItemID,
		EnvClientID:     env.ClientID,
		EnvClientSecret: env.ClientSecret,
		EnvRefreshToken: env.RefreshToken,
	} {
		if value != "" {
			logger.Debug("environment override present", slog.String("var", name))
		}
	}

	return env
}

// HasCredentials reports whether any credential variable is set.
func (e EnvOverrides) HasCredentials() bool {
	return e.ClientID != "" || e.ClientSecret != "" || e.RefreshToken != ""
}
