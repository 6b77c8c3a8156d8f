// Package config provides configuration management for skilltheme using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SKILLTHEME"

// Default configuration values.
const (
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxBodySize     = 256 * KB
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 30 * time.Minute
	defaultCacheTTL        = 30 * time.Minute
	defaultSessionTTL      = 10 * time.Minute
	defaultLoadTimeout     = 5 * time.Second
	defaultWatchDebounce   = 250 * time.Millisecond
	defaultImportWorkers   = 4
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Themes   ThemesConfig   `mapstructure:"themes" yaml:"themes"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	// MaxBodySize caps theme documents accepted over HTTP.
	// Supports human-readable values like "256KB" or raw byte counts.
	MaxBodySize ByteSize `mapstructure:"max_body_size" yaml:"max_body_size"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn" yaml:"dsn" masq:"secret"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"` // silent, error, warn, info
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"`
}

// ThemesConfig holds theme compilation and storage configuration.
type ThemesConfig struct {
	// Dir holds file-backed project themes (<project>.json|.yaml). Empty disables them.
	Dir           string        `mapstructure:"dir" yaml:"dir"`
	Watch         bool          `mapstructure:"watch" yaml:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce" yaml:"watch_debounce"`
	ImportWorkers int           `mapstructure:"import_workers" yaml:"import_workers"`
	// ResyncSchedule is a cron expression for rescanning Dir, e.g. "*/15 * * * *"
	// or "@every 10m". Empty disables periodic rescans.
	ResyncSchedule string `mapstructure:"resync_schedule" yaml:"resync_schedule"`
	// CacheTTL bounds how long compiled project CSS is kept without a reload.
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	// SessionTTL bounds how long an idle display session is kept.
	SessionTTL  time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	LoadTimeout time.Duration `mapstructure:"load_timeout" yaml:"load_timeout"`
	DarkMode    bool          `mapstructure:"dark_mode" yaml:"dark_mode"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with SKILLTHEME_ and use underscores for nesting.
// Example: SKILLTHEME_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/skilltheme")
		v.AddConfigPath("$HOME/.skilltheme")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(DecodeHook())); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// DecodeHook extends viper's default hooks with text unmarshaling so
// ByteSize values accept "256KB".
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_body_size", defaultMaxBodySize.String())

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "skilltheme.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Theme defaults
	v.SetDefault("themes.dir", "")
	v.SetDefault("themes.watch", true)
	v.SetDefault("themes.watch_debounce", defaultWatchDebounce)
	v.SetDefault("themes.import_workers", defaultImportWorkers)
	v.SetDefault("themes.resync_schedule", "")
	v.SetDefault("themes.cache_ttl", defaultCacheTTL)
	v.SetDefault("themes.session_ttl", defaultSessionTTL)
	v.SetDefault("themes.load_timeout", defaultLoadTimeout)
	v.SetDefault("themes.dark_mode", false)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}
	if c.Server.MaxBodySize < 0 {
		return fmt.Errorf("server.max_body_size must not be negative")
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Themes.CacheTTL < 0 || c.Themes.SessionTTL < 0 {
		return fmt.Errorf("themes.cache_ttl and themes.session_ttl must not be negative")
	}
	if c.Themes.ImportWorkers < 1 {
		return fmt.Errorf("themes.import_workers must be at least 1")
	}
	if c.Themes.ResyncSchedule != "" && c.Themes.Dir == "" {
		return fmt.Errorf("themes.resync_schedule requires themes.dir")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
