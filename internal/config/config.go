// Package config provides configuration management for supervideo using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/jmylchreest/supervideo/internal/embed"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SUPERVIDEO"

// Default configuration values.
const (
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 30 * time.Minute
	defaultPlayerControls  = "play-large,play,progress,current-time,mute,volume,settings,pip,fullscreen"
	defaultPlayerSpeed     = "0.5,0.75,1,1.25,1.5,2"
	defaultRetentionCron   = "0 3 * * *"
	defaultRetentionMaxAge = "180d"
	defaultProbeTimeout    = 15 * time.Second
	defaultProbeRetries    = 2
	defaultProbeMaxSize    = "4MiB"
)

// cronParser accepts standard 5-field cron expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Player     PlayerConfig     `mapstructure:"player"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Templates  TemplatesConfig  `mapstructure:"templates"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Probe      ProbeConfig      `mapstructure:"probe"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
	// Redact masks signed URL query values and credential fields in log output.
	Redact bool `mapstructure:"redact"`
}

// PlayerConfig holds the defaults handed to the generic resource player.
type PlayerConfig struct {
	// Controls is the comma-separated list of player controls to show.
	Controls string `mapstructure:"controls"`
	// Speed is the comma-separated list of selectable playback rates.
	Speed string `mapstructure:"speed"`
}

// PlayerDefaults exposes the player section to the embed selector.
func (c *Config) PlayerDefaults() embed.PlayerDefaults {
	return embed.PlayerDefaults{
		Controls: c.Player.Controls,
		Speed:    c.Player.Speed,
	}
}

// ClassifierConfig holds URL classification options.
type ClassifierConfig struct {
	// Strict disables the generic http(s) fallback.
	Strict bool `mapstructure:"strict"`
}

// TemplatesConfig holds embed template options.
type TemplatesConfig struct {
	// Dir optionally holds embed_div.html, embed_vimeo.html or mapa.html
	// overriding the built-in templates.
	Dir string `mapstructure:"dir"`
}

// RetentionConfig holds view record retention settings.
type RetentionConfig struct {
	// Schedule is a 5-field cron expression. Empty disables pruning.
	Schedule string `mapstructure:"schedule"`
	// MaxAge is how long a view may go unseen before it is pruned.
	MaxAge Duration `mapstructure:"max_age"`
}

// ProbeConfig holds HLS manifest probe settings.
type ProbeConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	MaxManifestSize ByteSize      `mapstructure:"max_manifest_size"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with SUPERVIDEO_ and use underscores
// for nesting, e.g. SUPERVIDEO_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/supervideo")
		v.AddConfigPath("/etc/supervideo")
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
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "supervideo.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)
	v.SetDefault("logging.redact", true)

	v.SetDefault("player.controls", defaultPlayerControls)
	v.SetDefault("player.speed", defaultPlayerSpeed)

	v.SetDefault("classifier.strict", false)

	v.SetDefault("templates.dir", "")

	v.SetDefault("retention.schedule", defaultRetentionCron)
	v.SetDefault("retention.max_age", defaultRetentionMaxAge)

	v.SetDefault("probe.enabled", true)
	v.SetDefault("probe.timeout", defaultProbeTimeout)
	v.SetDefault("probe.retry_attempts", defaultProbeRetries)
	v.SetDefault("probe.max_manifest_size", defaultProbeMaxSize)
	v.SetDefault("probe.user_agent", "")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
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

	if _, err := ParseSpeeds(c.Player.Speed); err != nil {
		return fmt.Errorf("player.speed: %w", err)
	}

	if c.Retention.Schedule != "" {
		if _, err := cronParser.Parse(c.Retention.Schedule); err != nil {
			return fmt.Errorf("retention.schedule is not a valid cron expression: %w", err)
		}
		if c.Retention.MaxAge.Duration() <= 0 {
			return fmt.Errorf("retention.max_age must be positive when retention.schedule is set")
		}
	}

	if c.Probe.Timeout < 0 {
		return fmt.Errorf("probe.timeout must not be negative")
	}
	if c.Probe.RetryAttempts < 0 {
		return fmt.Errorf("probe.retry_attempts must not be negative")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ParseSpeeds parses a comma-separated list of positive playback rates.
// An empty list is valid.
func ParseSpeeds(s string) ([]float64, error) {
	var speeds []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid playback rate %q", part)
		}
		if f <= 0 {
			return nil, fmt.Errorf("playback rate %q must be positive", part)
		}
		speeds = append(speeds, f)
	}
	return speeds, nil
}
