// Monitoring configuration re-exports - logging and telemetry settings.
//
// DESIGN: Separates logging (zerolog) from telemetry (JSONL files).
// Logging is for operators, telemetry is for analytics/debugging.
// The types live in internal/monitoring next to the code that consumes
// them; this file re-exports them for use by the main Config struct.
package config

import (
	"fmt"

	"github.com/upstreamlab/poolwatch/internal/monitoring"
)

// LogConfig is an alias for monitoring.LoggerConfig for use in the main Config struct.
type LogConfig = monitoring.LoggerConfig

// TelemetryConfig is an alias for monitoring.TelemetryConfig.
type TelemetryConfig = monitoring.TelemetryConfig

// validateTelemetry checks the telemetry section.
func (c *Config) validateTelemetry() error {
	if !c.Telemetry.Enabled {
		return nil
	}
	if c.Telemetry.DecisionLogPath == "" && c.Telemetry.DeliveryLogPath == "" && !c.Telemetry.LogToStdout {
		return fmt.Errorf("telemetry.enabled requires decision_log_path, delivery_log_path or log_to_stdout")
	}
	return nil
}
