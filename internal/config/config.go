// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. FXRATES_SERVER_PORT.
const EnvPrefix = "FXRATES"

// Scheduler dispatch modes.
const (
	DispatchInline = "inline"
	DispatchQueue  = "queue"
)

// Config holds the complete application configuration.
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Feed      FeedConfig
	Scheduler SchedulerConfig
	Worker    WorkerConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string   `mapstructure:"host"`
	Port               int      `mapstructure:"port"`
	ServeSwagger       bool     `mapstructure:"serve_swagger"`
	ServeAsynqmon      bool     `mapstructure:"serve_asynqmon"`
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig holds connection URLs for the snapshot cache and the task queue.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	AsynqURL string `mapstructure:"asynq_url"` // defaults to URL
}

// CacheConfig holds snapshot storage settings.
type CacheConfig struct {
	KeyPrefix string `mapstructure:"key_prefix"`
}

// FeedConfig holds upstream rates feed settings.
type FeedConfig struct {
	URL          string `mapstructure:"url"`
	TimeoutSec   int    `mapstructure:"timeout_sec"`
	BaseCurrency string `mapstructure:"base_currency"`
}

// SchedulerConfig holds update schedule settings.
type SchedulerConfig struct {
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
	Dispatch   string `mapstructure:"dispatch"`
}

// WorkerConfig holds task queue worker settings, used in queue dispatch mode.
type WorkerConfig struct {
	Concurrency  int `mapstructure:"concurrency"`
	TimeoutSec   int `mapstructure:"timeout_sec"`
	UniqueTTLSec int `mapstructure:"unique_ttl_sec"`
}

// DatabaseConfig holds PostgreSQL settings for the update-run journal.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	ConnectTimeoutSec  int    `mapstructure:"connect_timeout_sec"`
	DSN                string `mapstructure:"dsn"` // overrides the discrete fields when set
}

// KafkaConfig holds snapshot event publishing settings.
type KafkaConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Brokers         []string `mapstructure:"brokers"`
	Topic           string   `mapstructure:"topic"`
	WriteTimeoutSec int      `mapstructure:"write_timeout_sec"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config search paths
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.serve_swagger", true)
	v.SetDefault("server.serve_asynqmon", false)
	v.SetDefault("server.shutdown_timeout_sec", 10)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("redis.asynq_url", "")
	v.SetDefault("cache.key_prefix", "exchange:rates")
	v.SetDefault("feed.url", "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml")
	v.SetDefault("feed.timeout_sec", 30)
	v.SetDefault("feed.base_currency", "EUR")
	v.SetDefault("scheduler.cron", "0 0 15 * * *")
	v.SetDefault("scheduler.run_on_start", true)
	v.SetDefault("scheduler.dispatch", DispatchInline)
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("worker.timeout_sec", 60)
	v.SetDefault("worker.unique_ttl_sec", 300)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "fxrates")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime_sec", 300)
	v.SetDefault("database.connect_timeout_sec", 5)
	v.SetDefault("database.dsn", "")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "fxrates.snapshots")
	v.SetDefault("kafka.write_timeout_sec", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

func (c *Config) normalize() {
	if c.Redis.AsynqURL == "" {
		c.Redis.AsynqURL = c.Redis.URL
	}
	c.Feed.BaseCurrency = strings.ToUpper(strings.TrimSpace(c.Feed.BaseCurrency))
	c.Scheduler.Dispatch = strings.ToLower(strings.TrimSpace(c.Scheduler.Dispatch))

	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 5
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 2
	}
	if c.Database.ConnMaxLifetimeSec <= 0 {
		c.Database.ConnMaxLifetimeSec = 300
	}
	if c.Database.DSN == "" {
		c.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			url.QueryEscape(c.Database.User), url.QueryEscape(c.Database.Password),
			c.Database.Host, c.Database.Port,
			c.Database.Name, c.Database.SSLMode)
	}
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout_sec must be positive, got %d", c.Server.ShutdownTimeoutSec))
	}

	if c.Redis.URL == "" {
		errs = append(errs, fmt.Errorf("redis.url is required (set %s_REDIS_URL)", EnvPrefix))
	}
	if c.Cache.KeyPrefix == "" {
		errs = append(errs, fmt.Errorf("cache.key_prefix is required"))
	}

	if c.Feed.URL == "" {
		errs = append(errs, fmt.Errorf("feed.url is required"))
	} else if u, err := url.Parse(c.Feed.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("feed.url must be an http(s) URL, got %q", c.Feed.URL))
	}
	if c.Feed.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("feed.timeout_sec must be positive, got %d", c.Feed.TimeoutSec))
	}
	if len(c.Feed.BaseCurrency) != 3 {
		errs = append(errs, fmt.Errorf("feed.base_currency must be a three-letter code, got %q", c.Feed.BaseCurrency))
	}

	if c.Scheduler.Cron == "" {
		errs = append(errs, fmt.Errorf("scheduler.cron is required"))
	}
	if c.Scheduler.Dispatch != DispatchInline && c.Scheduler.Dispatch != DispatchQueue {
		errs = append(errs, fmt.Errorf("scheduler.dispatch must be %q or %q, got %q", DispatchInline, DispatchQueue, c.Scheduler.Dispatch))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	if c.Worker.UniqueTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.unique_ttl_sec must be positive, got %d", c.Worker.UniqueTTLSec))
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required when database.enabled"))
		}
		if c.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required when database.enabled"))
		}
		if c.Database.ConnectTimeoutSec <= 0 {
			errs = append(errs, fmt.Errorf("database.connect_timeout_sec must be positive, got %d", c.Database.ConnectTimeoutSec))
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, fmt.Errorf("kafka.brokers is required when kafka.enabled"))
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, fmt.Errorf("kafka.topic is required when kafka.enabled"))
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level))
	}

	return errors.Join(errs...)
}
