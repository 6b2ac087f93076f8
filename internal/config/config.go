// Package config loads Cadence settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/cadence/internal/datekit"
)

// EnvPrefix prefixes every environment override, e.g. CADENCE_LISTEN.
const EnvPrefix = "CADENCE"

// Config holds all configuration for the application.
type Config struct {
	DBPath           string        `mapstructure:"db_path" yaml:"db_path" validate:"required"`
	Listen           string        `mapstructure:"listen" yaml:"listen" validate:"required,hostname_port"`
	WeekStart        string        `mapstructure:"week_start" yaml:"week_start" validate:"oneof=sunday monday"`
	UpcomingDays     int           `mapstructure:"upcoming_days" yaml:"upcoming_days" validate:"min=1,max=366"`
	TimelineDays     int           `mapstructure:"timeline_days" yaml:"timeline_days" validate:"min=1,max=366"`
	RolloverInterval time.Duration `mapstructure:"rollover_interval" yaml:"rollover_interval" validate:"gt=0"`
	RateLimit        float64       `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	Log              LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics          MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Dir returns the Cadence home directory (~/.cadence).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cadence"
	}
	return filepath.Join(home, ".cadence")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:           filepath.Join(Dir(), "cadence.db"),
		Listen:           "127.0.0.1:7466",
		WeekStart:        "sunday",
		UpcomingDays:     7,
		TimelineDays:     30,
		RolloverInterval: time.Minute,
		RateLimit:        0,
		Log:              LogConfig{Level: "info", Format: "console", Output: "stderr"},
		Metrics:          MetricsConfig{Enabled: true},
	}
}

// Load reads configuration. Precedence, highest first: CADENCE_* environment
// variables (a .env file in the working directory is loaded into the
// environment first), the YAML file at path, built-in defaults. An empty path
// means DefaultPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.DBPath = ExpandHome(cfg.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("listen", d.Listen)
	v.SetDefault("week_start", d.WeekStart)
	v.SetDefault("upcoming_days", d.UpcomingDays)
	v.SetDefault("timeline_days", d.TimelineDays)
	v.SetDefault("rollover_interval", d.RolloverInterval.String())
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// WeekStartDay converts the configured week start to a datekit value.
func (c *Config) WeekStartDay() datekit.WeekStart {
	if strings.EqualFold(c.WeekStart, "monday") {
		return datekit.WeekStartMonday
	}
	return datekit.WeekStartSunday
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Encode renders cfg in the YAML file format.
func Encode(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(fileForm(cfg))
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// fileForm renders durations as strings so the file stays hand-editable.
func fileForm(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"db_path":           cfg.DBPath,
		"listen":            cfg.Listen,
		"week_start":        cfg.WeekStart,
		"upcoming_days":     cfg.UpcomingDays,
		"timeline_days":     cfg.TimelineDays,
		"rollover_interval": cfg.RolloverInterval.String(),
		"rate_limit":        cfg.RateLimit,
		"log": map[string]interface{}{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
			"output": cfg.Log.Output,
		},
		"metrics": map[string]interface{}{
			"enabled": cfg.Metrics.Enabled,
		},
	}
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
