// Package monitoring - types.go defines shared types.
//
// DESIGN: These types are used by both watcher/ and statusapi/ packages.
// Defined here ONCE to avoid duplication and circular imports.
//
// TYPES:
//   - DecisionEvent: One detector decision (fired or suppressed)
//   - DeliveryEvent: One delivery attempt against a sink
//   - Config types:  TelemetryConfig, LoggerConfig
package monitoring

import "time"

// DecisionEvent captures a detector decision. Every fired or suppressed
// alert produces one, so operators can reconstruct what the watcher saw.
type DecisionEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	EventID    string    `json:"event_id,omitempty"`
	Kind       string    `json:"kind"`
	Fired      bool      `json:"fired"`
	Suppressed bool      `json:"suppressed,omitempty"`
	Pool       string    `json:"pool,omitempty"`
	PrevPool   string    `json:"prev_pool,omitempty"`
	ErrorRate  float64   `json:"error_rate,omitempty"`
	ErrorCount int       `json:"error_count,omitempty"`
	WindowSize int       `json:"window_size,omitempty"`
	Threshold  float64   `json:"threshold,omitempty"`
}

// DeliveryEvent captures one delivery attempt to a notification sink.
type DeliveryEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventID   string    `json:"event_id"`
	Kind      string    `json:"kind"`
	Sink      string    `json:"sink"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
}

// TelemetryConfig contains telemetry configuration.
type TelemetryConfig struct {
	Enabled         bool   `yaml:"enabled"`
	DecisionLogPath string `yaml:"decision_log_path"`
	DeliveryLogPath string `yaml:"delivery_log_path"`
	LogToStdout     bool   `yaml:"log_to_stdout"`
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// AlertConfig contains thresholds for the watcher's own anomaly flags.
type AlertConfig struct {
	SlowDispatchThreshold time.Duration `yaml:"slow_dispatch_threshold"`
}
