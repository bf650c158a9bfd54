package config

import (
	"fmt"

	"github.com/vellumgfx/bufferqueue/internal/telemetry"
)

// Validate checks a fully-defaulted Config for out-of-range values, the
// same plain conditional-check style as the teacher's pkg/config
// validators (e.g. pkg/metadata/acl's ACL validation) rather than
// struct-tag validation: every field here is a plain int/string/duration
// bound, not the kind of cross-field identity/format check
// go-playground/validator earns its keep on elsewhere in the teacher's
// stack.
func Validate(cfg *Config) error {
	if err := validateQueue(cfg.Queue); err != nil {
		return err
	}
	if err := validateTelemetry(cfg.Telemetry); err != nil {
		return err
	}
	if err := validateDebugAPI(cfg.DebugAPI); err != nil {
		return err
	}
	if err := validateLogging(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}
	return nil
}

func validateQueue(q QueueConfig) error {
	if q.Size < 1 || q.Size > 64 {
		return fmt.Errorf("queue.size must be in [1,64], got %d", q.Size)
	}
	if q.MaxSize != 0 && q.MaxSize < q.Size {
		return fmt.Errorf("queue.max_size (%d) must be >= queue.size (%d)", q.MaxSize, q.Size)
	}
	if q.MaxSize > 64 {
		return fmt.Errorf("queue.max_size must be <= 64, got %d", q.MaxSize)
	}
	if q.ID == "" {
		return fmt.Errorf("queue.id must not be empty")
	}
	return nil
}

func validateTelemetry(t telemetry.Config) error {
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be in [0,1], got %f", t.SampleRate)
	}
	if t.Enabled && t.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint must be set when telemetry.enabled is true")
	}
	return nil
}

func validateDebugAPI(d DebugAPIConfig) error {
	if d.Enabled && (d.Port < 1 || d.Port > 65535) {
		return fmt.Errorf("debug_api.port must be in [1,65535], got %d", d.Port)
	}
	return nil
}

func validateLogging(level, format string) error {
	switch normalizeLevel(level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("logging.level must be one of DEBUG, INFO, WARN, ERROR, got %q", level)
	}
	switch format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", format)
	}
	return nil
}
