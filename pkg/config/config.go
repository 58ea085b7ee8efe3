// Package config loads pagestore's server configuration from defaults, a
// YAML file, and environment variables, in that order of increasing
// precedence, the way pkg/config does in the codebase this package is
// modeled on.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/dittokv/pagestore/internal/bytesize"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/natefinch/atomic"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is pagestore's static server configuration.
//
// Configuration sources, highest precedence first:
//  1. Environment variables (PAGESTORE_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Environment variables are read only when a configuration file is found,
// and then only for keys that the file sets; when no file is found, the
// result is built from defaults alone.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Page configures the backing page file itself.
	Page PageConfig `mapstructure:"page" yaml:"page"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Driver configures the single-owner message-loop driver that
	// serializes concurrent access to the page.
	Driver DriverConfig `mapstructure:"driver" yaml:"driver"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// PageConfig configures the backing page file.
type PageConfig struct {
	// Path is the page file location. Created on first Open if it does
	// not exist.
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// Capacity is the fixed page size. Supports human-readable formats:
	// "4Mi", "512Ki", or a raw byte count.
	Capacity bytesize.ByteSize `mapstructure:"capacity" yaml:"capacity"`

	// SeedsPath, if set, is a newline-delimited host:port list that
	// `pagestore serve` loads at startup and logs; the peers are not passed
	// to the driver or any networking layer.
	SeedsPath string `mapstructure:"seeds_path" yaml:"seeds_path,omitempty"`
}

// MetricsConfig gates Prometheus instrumentation of the page store. When
// Enabled is false, no metrics are collected: zero overhead.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ListenPort is the bind port for the whole HTTP API `pagestore serve`
	// exposes (/v1/entries, /v1/defrag, /v1/stats, /health), not just
	// /metrics — it applies regardless of Enabled. Named under Metrics
	// because historically metrics-gating was the only reason this port
	// was configurable; a future server-wide section could host it
	// instead, but nothing else needs its own port yet.
	ListenPort int `mapstructure:"listen_port" validate:"omitempty,min=1,max=65535" yaml:"listen_port"`
}

// DriverConfig configures the channel-based driver that linearizes
// Insert/Get/Delete/Defrag calls against a single Store.
type DriverConfig struct {
	// QueueDepth is the buffer size of the driver's request channel.
	// Default: 64.
	QueueDepth int `mapstructure:"queue_depth" validate:"omitempty,min=1" yaml:"queue_depth"`

	// AutoDefragInterval, if nonzero, runs one Defrag step on this
	// cadence whenever gaps are queued. Zero disables automatic defrag;
	// callers must invoke it explicitly.
	AutoDefragInterval time.Duration `mapstructure:"auto_defrag_interval" yaml:"auto_defrag_interval,omitempty"`
}

// Load reads configuration from configPath (or the default location if
// empty), applies environment overrides for the keys the file sets, fills
// the remaining fields with defaults, and validates the result. Without a
// config file, no environment variables are applied.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks a Config against its struct validation tags.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// SaveConfig writes cfg to path as YAML, creating parent directories as
// needed. The write is atomic: a concurrent reader of path never observes
// a partially-written file, since atomic.WriteFile writes to a temporary
// file in the same directory and renames it into place.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("PAGESTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pagestore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "pagestore")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	return FileExists(GetDefaultConfigPath())
}

// FileExists reports whether a config file exists at path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
