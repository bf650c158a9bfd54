package config

import (
	"strings"
	"time"

	"github.com/vellumgfx/bufferqueue/internal/logger"
	"github.com/vellumgfx/bufferqueue/internal/telemetry"
)

// ApplyDefaults fills zero-value fields with sensible defaults, dispatching
// per-section the way the teacher's pkg/config/defaults.go's ApplyDefaults
// does.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyDebugAPIDefaults(&cfg.DebugAPI)
	applyQueueDefaults(&cfg.Queue)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

func applyLoggingDefaults(c *logger.Config) {
	if c.Level == "" {
		c.Level = "INFO"
	} else {
		c.Level = normalizeLevel(c.Level)
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

func applyQueueDefaults(c *QueueConfig) {
	if c.ID == "" {
		c.ID = "bufqueue-demo"
	}
	if c.Size == 0 {
		c.Size = 2
	}
	if c.MaxSize == 0 {
		c.MaxSize = 8
	}
}

func applyTelemetryDefaults(c *telemetry.Config) {
	if c.ServiceName == "" {
		c.ServiceName = "bufqueue-demo"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

func applyDebugAPIDefaults(c *DebugAPIConfig) {
	if c.Port == 0 {
		c.Port = 8089
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// normalizeLevel upper-cases a log level string, matching the teacher's
// convention of storing levels as "INFO"/"DEBUG"/etc.
func normalizeLevel(level string) string {
	return strings.ToUpper(strings.TrimSpace(level))
}
