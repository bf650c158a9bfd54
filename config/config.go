// Package config loads the layered configuration for a bufqueue-demo
// process: queue sizing, telemetry, metrics, and the debug API, all from a
// single YAML/env-overridable tree, grounded on the teacher's
// pkg/config/config.go viper+mapstructure loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/vellumgfx/bufferqueue/internal/logger"
	"github.com/vellumgfx/bufferqueue/internal/telemetry"
)

// envPrefix is the environment variable prefix for overrides, e.g.
// BUFQUEUE_QUEUE_SIZE overrides queue.size.
const envPrefix = "BUFQUEUE"

// QueueConfig configures the BufferQueue instance the demo constructs.
type QueueConfig struct {
	ID             string `mapstructure:"id" yaml:"id"`
	Size           int    `mapstructure:"size" yaml:"size"`
	MaxSize        int    `mapstructure:"max_size" yaml:"max_size"`
	NonBlocking    bool   `mapstructure:"non_blocking" yaml:"non_blocking"`
	DropFrameLevel int    `mapstructure:"drop_frame_level" yaml:"drop_frame_level"`
}

// MetricsConfig configures the Prometheus recorder and its HTTP exposition.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DebugAPIConfig configures the chi-based introspection server (read-only
// apart from its POST /debug/queue/clean route).
type DebugAPIConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// Config is the full configuration tree for cmd/bufqueue-demo.
type Config struct {
	Logging         logger.Config    `mapstructure:"logging" yaml:"logging"`
	Telemetry       telemetry.Config `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics         MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	DebugAPI        DebugAPIConfig   `mapstructure:"debug_api" yaml:"debug_api"`
	Queue           QueueConfig      `mapstructure:"queue" yaml:"queue"`
	ShutdownTimeout time.Duration    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Load reads configPath (if non-empty) and environment overrides into a
// Config, applying defaults and validating the result. An empty configPath
// is not an error — the demo runs on defaults plus env vars alone, matching
// the teacher's MustLoad fallback behavior.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}

	return &cfg, nil
}

// MustLoad calls Load and panics on error, for use at process startup
// before a logger exists to report the failure through.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

// setupViper wires environment variable overrides and, when configPath is
// set, the config file to read from.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.SetConfigName("bufqueue")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "bufqueue"))
	}
	v.AddConfigPath(".")
}
