package commitment

import (
	"fmt"
	"time"
)

// Config defines solver and formulation settings.
type Config struct {
	TimeoutSeconds       float64 `json:"timeout_seconds"`
	Tolerance            float64 `json:"tolerance"`
	IntegralityTolerance float64 `json:"integrality_tolerance"`
	MaxNodes             int     `json:"max_nodes"`
	// VerifyTolerance bounds the power balance and capacity violations
	// accepted on an optimal result.
	VerifyTolerance  float64 `json:"verify_tolerance"`
	StartupMode      string  `json:"startup_mode"`
	EnforceMinUpDown bool    `json:"enforce_min_up_down"`
	InitialStatus    []int   `json:"initial_status"`
}

// SetDefaults applies fallback values for optional fields.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
	if c.Tolerance == 0 {
		c.Tolerance = 1e-9
	}
	if c.IntegralityTolerance == 0 {
		c.IntegralityTolerance = 1e-6
	}
	if c.MaxNodes == 0 {
		c.MaxNodes = 100000
	}
	if c.VerifyTolerance == 0 {
		c.VerifyTolerance = 1e-6
	}
	if c.StartupMode == "" {
		c.StartupMode = StartupPerPeriod.String()
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	if c.Tolerance < 0 || c.IntegralityTolerance < 0 || c.VerifyTolerance < 0 {
		return fmt.Errorf("tolerances must be positive")
	}
	if c.IntegralityTolerance >= 0.5 {
		return fmt.Errorf("integrality_tolerance must be below 0.5")
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("max_nodes must be positive")
	}
	if _, err := ParseStartupMode(c.StartupMode); err != nil {
		return err
	}
	return nil
}

// Timeout returns the per-solve timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}
