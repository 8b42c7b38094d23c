package config

// Default values for configuration options. These represent the "layer 0"
// of the four-layer override chain and work without any config file.
const (
	defaultAPIBaseURL     = "https://chromewebstore.googleapis.com"
	defaultTokenURL       = "https://oauth2.googleapis.com/token"
	defaultMaxWait        = "5m"
	defaultWatchInterval  = "30s"
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
	defaultConnectTimeout = "10s"
	defaultDataTimeout    = "60s"
)

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		StoreConfig:   defaultStoreConfig(),
		FilesConfig:   defaultFilesConfig(),
		PollingConfig: defaultPollingConfig(),
		LoggingConfig: defaultLoggingConfig(),
		NetworkConfig: defaultNetworkConfig(),
	}
}

func defaultStoreConfig() StoreConfig {
	return StoreConfig{
		APIBaseURL: defaultAPIBaseURL,
		TokenURL:   defaultTokenURL,
	}
}

func defaultFilesConfig() FilesConfig {
	return FilesConfig{
		History: true,
	}
}

func defaultPollingConfig() PollingConfig {
	return PollingConfig{
		MaxWait:       defaultMaxWait,
		WatchInterval: defaultWatchInterval,
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

func defaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		ConnectTimeout: defaultConnectTimeout,
		DataTimeout:    defaultDataTimeout,
	}
}
