// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/daily-supplications/internal/kv/gcs"
	"github.com/JakeFAU/daily-supplications/internal/kv/local"
	"github.com/JakeFAU/daily-supplications/internal/kv/postgres"
	"github.com/JakeFAU/daily-supplications/internal/kv/redis"
	"github.com/JakeFAU/daily-supplications/internal/kv/sqlite"
	"github.com/JakeFAU/daily-supplications/internal/policy/ratelimit"
	"github.com/JakeFAU/daily-supplications/internal/publisher/pubsub"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendLocal    = "local"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendGCS      = "gcs"
)

// Reminder publishers.
const (
	PublisherLog    = "log"
	PublisherMemory = "memory"
	PublisherPubSub = "pubsub"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server          ServerConfig    `mapstructure:"server"`
	Auth            AuthConfig      `mapstructure:"auth"`
	Logging         LoggingConfig   `mapstructure:"logging"`
	Storage         StorageConfig   `mapstructure:"storage"`
	Progress        ProgressConfig  `mapstructure:"progress"`
	Advice          AdviceConfig    `mapstructure:"advice"`
	Reminders       RemindersConfig `mapstructure:"reminders"`
	DefaultLanguage string          `mapstructure:"default_language"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int              `mapstructure:"port"`
	ShutdownTimeout time.Duration    `mapstructure:"shutdown_timeout"`
	RateLimit       ratelimit.Config `mapstructure:"rate_limit"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// StorageConfig selects the key-value backend and carries each backend's settings.
type StorageConfig struct {
	Backend  string          `mapstructure:"backend"`
	Local    local.Config    `mapstructure:"local"`
	SQLite   sqlite.Config   `mapstructure:"sqlite"`
	Postgres postgres.Config `mapstructure:"postgres"`
	Redis    redis.Config    `mapstructure:"redis"`
	GCS      gcs.Config      `mapstructure:"gcs"`
}

// ProgressConfig tunes the mutation event hub.
type ProgressConfig struct {
	BufferSize     int           `mapstructure:"buffer_size"`
	MaxBatchEvents int           `mapstructure:"max_batch_events"`
	MaxBatchWait   time.Duration `mapstructure:"max_batch_wait"`
	Prometheus     bool          `mapstructure:"prometheus"`
	// PublishTopic, when set, publishes per-language digests of each batch
	// through the reminder publisher.
	PublishTopic string `mapstructure:"publish_topic"`
}

// AdviceConfig controls the advice rotator.
type AdviceConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// RemindersConfig controls the reminder scheduler.
type RemindersConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Publisher string        `mapstructure:"publisher"`
	Topic     string        `mapstructure:"topic"`
	Timezone  string        `mapstructure:"timezone"`
	Recheck   time.Duration `mapstructure:"recheck"`
	PubSub    pubsub.Config `mapstructure:"pubsub"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SUPPLICATIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit.rps", 0)
	v.SetDefault("server.rate_limit.burst", 20)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.local.base_dir", "data/state")
	v.SetDefault("storage.sqlite.path", "data/supplications.db")
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.postgres.table", "kv_store")
	v.SetDefault("storage.postgres.max_conns", 4)
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.username", "")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "supplications:")
	v.SetDefault("storage.gcs.bucket", "")
	v.SetDefault("storage.gcs.prefix", "state/")
	v.SetDefault("progress.buffer_size", 256)
	v.SetDefault("progress.max_batch_events", 64)
	v.SetDefault("progress.max_batch_wait", "250ms")
	v.SetDefault("progress.prometheus", true)
	v.SetDefault("progress.publish_topic", "")
	v.SetDefault("advice.interval", "20s")
	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.publisher", PublisherLog)
	v.SetDefault("reminders.topic", "supplication-reminders")
	v.SetDefault("reminders.timezone", "Local")
	v.SetDefault("reminders.recheck", "1m")
	v.SetDefault("reminders.pubsub.project_id", "")
	v.SetDefault("reminders.pubsub.topic_name", "")
	v.SetDefault("default_language", "en")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RateLimit.RPS < 0 {
		return fmt.Errorf("server.rate_limit.rps must be >= 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendLocal:
		if c.Storage.Local.BaseDir == "" {
			return fmt.Errorf("storage.local.base_dir is required for the local backend")
		}
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for the postgres backend")
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr is required for the redis backend")
		}
	case BackendGCS:
		if c.Storage.GCS.Bucket == "" {
			return fmt.Errorf("storage.gcs.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	if c.Advice.Interval <= 0 {
		return fmt.Errorf("advice.interval must be > 0")
	}
	if c.Reminders.Enabled {
		switch c.Reminders.Publisher {
		case PublisherLog, PublisherMemory:
		case PublisherPubSub:
			if c.Reminders.PubSub.ProjectID == "" || c.Reminders.PubSub.TopicName == "" {
				return fmt.Errorf("reminders.pubsub.project_id and topic_name are required for the pubsub publisher")
			}
		default:
			return fmt.Errorf("reminders.publisher %q is not supported", c.Reminders.Publisher)
		}
		if _, err := c.Location(); err != nil {
			return err
		}
	}
	return nil
}

// Location resolves reminders.timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Reminders.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return nil, fmt.Errorf("reminders.timezone: %w", err)
	}
	return loc, nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
