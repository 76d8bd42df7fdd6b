// Package config loads daemon configuration from the environment.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all daemon configuration loaded from environment variables.
type Config struct {
	App    AppConfig
	Remote RemoteConfig
	Sync   SyncConfig
}

// AppConfig holds process-level settings.
type AppConfig struct {
	DataDir  string `envconfig:"QUITSYNC_DATA_DIR" default:"./data"`
	LogLevel string `envconfig:"QUITSYNC_LOG_LEVEL" default:"info"`
}

// RemoteConfig holds the remote document store connection settings.
// An empty BaseURL runs the daemon against an in-memory store.
type RemoteConfig struct {
	BaseURL string        `envconfig:"QUITSYNC_REMOTE_URL" default:""`
	APIKey  string        `envconfig:"QUITSYNC_REMOTE_API_KEY" default:""`
	UserID  string        `envconfig:"QUITSYNC_USER_ID" default:""`
	Timeout time.Duration `envconfig:"QUITSYNC_REMOTE_TIMEOUT" default:"20s"`
}

// SyncConfig holds the sync core's timing knobs.
type SyncConfig struct {
	ReconnectDelay time.Duration `envconfig:"QUITSYNC_RECONNECT_DELAY" default:"2s"`
	ProbeInterval  time.Duration `envconfig:"QUITSYNC_PROBE_INTERVAL" default:"30s"`
	DrainInterval  time.Duration `envconfig:"QUITSYNC_DRAIN_INTERVAL" default:"1m"`
	StaleAfter     time.Duration `envconfig:"QUITSYNC_STALE_AFTER" default:"168h"`
	ItemTimeout    time.Duration `envconfig:"QUITSYNC_ITEM_TIMEOUT" default:"30s"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
