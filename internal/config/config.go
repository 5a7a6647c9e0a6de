package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"
)

// CloudConfig holds the connection settings for the central attendance
// service. APIKey is sent as a Bearer token on every authenticated call.
type CloudConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	// HTTP timeout for one request, in seconds.
	Timeout uint `mapstructure:"timeout"`
	// URL of the operator dashboard, shown as a QR code on the status page.
	// Defaults to BaseURL when empty.
	DashboardURL string `mapstructure:"dashboard_url"`
}

// SyncConfig holds the retry and batching knobs for the upload engine.
// Constructed once at startup and passed down; never re-read at runtime.
type SyncConfig struct {
	BatchSize   int `mapstructure:"batch_size"`
	MaxAttempts int `mapstructure:"max_attempts"`
	// Base backoff delay in seconds. Delay doubles per attempt.
	BaseDelay uint `mapstructure:"base_delay"`
	// Background sync interval in seconds.
	Interval uint `mapstructure:"interval"`
	// Run a sync when no scan happened for this many seconds. 0 disables.
	IdleAfter uint `mapstructure:"idle_after"`
	// Cap on batches per drain cycle. 0 means unlimited.
	MaxBatches int `mapstructure:"max_batches"`
}

// HeartbeatConfig controls the station liveness reporting tick. The clear
// epoch reconciliation runs on the same tick.
type HeartbeatConfig struct {
	Interval uint `mapstructure:"interval"`
}

// EmailConfig configures the optional operator notifier. Notifications are
// off when Host or To are empty.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
	// Minimum interval between failure notifications in seconds.
	MinInterval uint `mapstructure:"min_interval"`
}

type Config struct {
	// Secret key for signing station IDs and local admin tokens. Must be set in production.
	Secret   string `mapstructure:"secret"`
	LogLevel string `mapstructure:"log_level"`

	// Bind address for the local kiosk API. Loopback by default: the
	// capture front end and the status display run on the same machine.
	Listen string `mapstructure:"listen"`

	// Station name override. Normally the name lives in the meta store,
	// written once by first-run setup; this wins when non-empty.
	StationName string `mapstructure:"station_name"`

	// TTL for local admin tokens in minutes.
	AdminTokenTTL uint `mapstructure:"admin_token_ttl"`

	// Optional roster file (YAML or CSV) for badge identity metadata.
	RosterFile string `mapstructure:"roster_file"`

	Cloud     CloudConfig     `mapstructure:"cloud"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
	Email     EmailConfig     `mapstructure:"email"`

	Storage Storage `mapstructure:"storage"`
}

// Check if running in Docker container by checking for the presence of /.dockerenv file
func runningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getConfigPath() string {
	if runningInDocker() {
		return "/app/instance"
	}
	return "./instance"
}

// LoadConfig reads configuration from an optional config file and
// environment variables and returns a Config struct.
func LoadConfig(configFile ...string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(getConfigPath())
	v.AddConfigPath(".")
	v.SetEnvPrefix("")

	if len(configFile) > 0 {
		for _, path := range configFile {
			v.SetConfigFile(path)
		}
	}

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from
		// defaults and environment variables. A named file that fails to
		// load is not.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && len(configFile) > 0 {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// Load configuration from environment variables
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if cfg.Sync.BatchSize <= 0 {
		slog.Warn("SYNC.BATCH_SIZE must be positive, using default", slog.Int("actual", cfg.Sync.BatchSize))
		cfg.Sync.BatchSize = 50
	}
	if cfg.Sync.MaxAttempts < 1 {
		// Retries disabled still means one attempt.
		cfg.Sync.MaxAttempts = 1
	}

	// Convert relative sqlite path to the instance folder
	if cfg.Storage.SQLite != nil {
		if cfg.Storage.SQLite.Path == ":memory:" {
			// In-memory database, do nothing
		} else if !os.IsPathSeparator(cfg.Storage.SQLite.Path[0]) {
			cfg.Storage.SQLite.Path = fmt.Sprintf("%s/%s", getConfigPath(), cfg.Storage.SQLite.Path)
		}
	}

	// Warn if secret is missing - this is a critical security setting for production
	if cfg.Secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("SECRET configuration variable is required in production")
		} else {
			slog.Warn("Secret is not set. Do not use in production.")
		}
	}

	return &cfg, nil
}

// CloudTimeout returns the per-request HTTP timeout as a duration.
func (c *CloudConfig) CloudTimeout() time.Duration {
	if c.Timeout == 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// BaseDelayDuration returns the backoff base as a duration.
func (s *SyncConfig) BaseDelayDuration() time.Duration {
	return time.Duration(s.BaseDelay) * time.Second
}
