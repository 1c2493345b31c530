package planner

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the generator limits.
type Config struct {
	// SessionCap is the longest single session. Long chapters are split
	// into several sessions across days. Default: 30m.
	SessionCap time.Duration

	// HorizonDays is how many calendar days, starting today, the
	// generator may schedule into. Default: 30.
	HorizonDays int
}

// DefaultSessionCap is the standard per-session cap.
const DefaultSessionCap = 30 * time.Minute

// DefaultHorizonDays is the standard scheduling horizon.
const DefaultHorizonDays = 30

// DefaultConfig returns a Config with the standard limits.
func DefaultConfig() Config {
	return Config{
		SessionCap:  DefaultSessionCap,
		HorizonDays: DefaultHorizonDays,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or unparsable values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("STUDYPLAN_SESSION_MINUTES"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			cfg.SessionCap = time.Duration(m) * time.Minute
		}
	}
	if v := os.Getenv("STUDYPLAN_HORIZON_DAYS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			cfg.HorizonDays = d
		}
	}

	return cfg
}

// Validate checks that both limits are positive.
func (c Config) Validate() error {
	if c.SessionCap <= 0 {
		return fmt.Errorf("session cap must be positive, got %s", c.SessionCap)
	}
	if c.HorizonDays <= 0 {
		return fmt.Errorf("horizon must be at least one day, got %d", c.HorizonDays)
	}
	return nil
}
