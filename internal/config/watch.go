// Tail source and detector settings.
//
// DESIGN: These two sections are the watcher's core knobs. Everything else
// in the config file is plumbing around them.
package config

import (
	"fmt"
	"time"
)

// WatchConfig contains tail source settings.
type WatchConfig struct {
	LogFile   string `yaml:"log_file"`   // Access log to follow
	LogFormat string `yaml:"log_format"` // kv, json, or auto
	FromStart bool   `yaml:"from_start"` // Read existing content before following
	Poll      bool   `yaml:"poll"`       // Poll the file instead of using inotify
}

// Validate checks the watch section.
func (c WatchConfig) Validate() error {
	if c.LogFile == "" {
		return fmt.Errorf("watch.log_file is required")
	}
	switch c.LogFormat {
	case "kv", "json", "auto":
	default:
		return fmt.Errorf("invalid watch.log_format: %q (must be kv, json or auto)", c.LogFormat)
	}
	return nil
}

// AlertsConfig contains detector thresholds.
type AlertsConfig struct {
	ErrorRateThreshold float64       `yaml:"error_rate_threshold"` // Percent of the window, alert strictly above
	WindowSize         int           `yaml:"window_size"`          // Rolling request count
	Cooldown           time.Duration `yaml:"cooldown"`             // Minimum spacing between alerts of one kind
}

// Validate checks the alerts section.
func (c AlertsConfig) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("alerts.window_size must be positive, got %d", c.WindowSize)
	}
	if c.ErrorRateThreshold < 0 {
		return fmt.Errorf("alerts.error_rate_threshold must not be negative, got %g", c.ErrorRateThreshold)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("alerts.cooldown must not be negative, got %s", c.Cooldown)
	}
	return nil
}
