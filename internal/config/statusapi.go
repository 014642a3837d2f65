// Status API configuration re-exports.
//
// DESIGN: The status API owns its configuration in internal/statusapi.
// This file re-exports the type for use by the main Config struct.
package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/upstreamlab/poolwatch/internal/statusapi"
)

// StatusAPIConfig is an alias for statusapi.Config for use in the main Config struct.
type StatusAPIConfig = statusapi.Config

// validateStatusAPI checks the status_api section.
func (c *Config) validateStatusAPI() error {
	if !c.StatusAPI.Enabled {
		return nil
	}
	_, port, err := net.SplitHostPort(c.StatusAPI.Addr)
	if err != nil {
		return fmt.Errorf("invalid status_api.addr %q: %w", c.StatusAPI.Addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid status_api.addr port: %q (must be 1-65535)", port)
	}
	if c.StatusAPI.RateLimit <= 0 {
		return fmt.Errorf("status_api.rate_limit must be positive, got %d", c.StatusAPI.RateLimit)
	}
	return nil
}
