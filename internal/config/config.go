// Package config loads and validates the watcher configuration.
//
// DESIGN: Every setting ships with a production default, because the watcher
// historically ran on environment variables alone. Resolution order:
// defaults, then the YAML file (with ${VAR:-default} expansion), then
// process-environment overrides, then validation.
//
// FILES:
//   - config.go:     Root Config struct, defaults, Load(), Validate()
//   - watch.go:      Tail source and detector settings
//   - notify.go:     Alert sink settings
//   - monitoring.go: Logging and telemetry settings (re-exported)
//   - statusapi.go:  Status API settings (re-exported)
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the pool watcher.
type Config struct {
	Log       LogConfig       `yaml:"log"`        // Logger settings
	Watch     WatchConfig     `yaml:"watch"`      // Tail source settings
	Alerts    AlertsConfig    `yaml:"alerts"`     // Detector thresholds
	Notify    NotifyConfig    `yaml:"notify"`     // Alert sinks
	StatusAPI StatusAPIConfig `yaml:"status_api"` // Local HTTP surface
	Telemetry TelemetryConfig `yaml:"telemetry"`  // JSONL decision/delivery logs
}

// Default returns the configuration the watcher runs with when the YAML
// file provides nothing.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
			Output: "stdout",
		},
		Watch: WatchConfig{
			LogFile:   "/var/log/nginx/access_detailed.log",
			LogFormat: "auto",
			FromStart: true,
		},
		Alerts: AlertsConfig{
			ErrorRateThreshold: 2.0,
			WindowSize:         200,
			Cooldown:           5 * time.Minute,
		},
		Notify: NotifyConfig{
			WebhookTemplate: `{"text":""}`,
			QueueSize:       16,
			HistorySize:     100,
			Timeout:         10 * time.Second,
		},
		StatusAPI: StatusAPIConfig{
			Enabled:   false,
			Addr:      "127.0.0.1:8089",
			RateLimit: 10,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// expandEnvWithDefaults expands environment variables with support for default values.
// Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	// Pattern matches ${VAR:-default} or ${VAR}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// ExpandEnvWithDefaults expands environment variables with support for default values.
// Exported for callers that resolve paths outside the config file.
func ExpandEnvWithDefaults(s string) string {
	return expandEnvWithDefaults(s)
}

// Load reads configuration from a YAML file.
// Returns an error if the file doesn't exist or is invalid.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes on top of the
// defaults. Supports ${VAR:-default} env var expansion, env overrides, and
// validation.
func LoadFromBytes(data []byte) (*Config, error) {
	// Expand environment variables (supports ${VAR:-default} syntax)
	expanded := expandEnvWithDefaults(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// These are the variables the deployment tooling already exports for the
// watcher, so containers can retune it without editing the config file.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ERROR_RATE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ERROR_RATE_THRESHOLD=%q: %w", v, err)
		}
		c.Alerts.ErrorRateThreshold = f
	}

	if v := os.Getenv("WINDOW_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WINDOW_SIZE=%q: %w", v, err)
		}
		c.Alerts.WindowSize = n
	}

	if v := os.Getenv("ALERT_COOLDOWN_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ALERT_COOLDOWN_SEC=%q: %w", v, err)
		}
		c.Alerts.Cooldown = time.Duration(n) * time.Second
	}

	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		c.Notify.SlackWebhookURL = v
	}

	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Watch.LogFile = v
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Logger validation
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level: %q (must be debug, info, warn or error)", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console", "auto":
	default:
		return fmt.Errorf("invalid log.format: %q (must be json, console or auto)", c.Log.Format)
	}
	if c.Log.Output == "" {
		return fmt.Errorf("log.output is required")
	}

	if err := c.Watch.Validate(); err != nil {
		return err
	}

	if err := c.Alerts.Validate(); err != nil {
		return err
	}

	if err := c.Notify.Validate(); err != nil {
		return err
	}

	if err := c.validateStatusAPI(); err != nil {
		return err
	}

	if err := c.validateTelemetry(); err != nil {
		return err
	}

	return nil
}
