// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/axisworks/motiond/internal/cia402"
)

// MaxAxes bounds the default axis count when no descriptor is given.
// Descriptor-driven setups carry their own axis list and are not
// subject to it.
const MaxAxes = 16

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// CONTROLLER
	// ------------------------------------------------------------

	c := cfg.Controller

	if c.Descriptor == "" {
		if c.Axes < 0 {
			return fmt.Errorf("controller: axes must not be negative, got %d", c.Axes)
		}
		if c.Axes > MaxAxes {
			return fmt.Errorf("controller: axes must not exceed %d, got %d", MaxAxes, c.Axes)
		}
	}

	if c.CycleUs < 0 {
		return fmt.Errorf("controller: cycle_us must not be negative, got %d", c.CycleUs)
	}

	if c.Mode != "" {
		if _, ok := cia402.ParseMode(c.Mode); !ok {
			return fmt.Errorf("controller: unknown mode %q", c.Mode)
		}
	}

	if c.WarmupCycles != nil && *c.WarmupCycles < 0 {
		return fmt.Errorf("controller: warmup_cycles must not be negative, got %d", *c.WarmupCycles)
	}

	if c.BarrierDelayMs != nil && *c.BarrierDelayMs < 0 {
		return fmt.Errorf("controller: barrier_delay_ms must not be negative, got %d", *c.BarrierDelayMs)
	}

	if c.MaxDeltaPerCycle < 0 {
		return fmt.Errorf("controller: max_delta_per_cycle must not be negative, got %d", c.MaxDeltaPerCycle)
	}

	if c.SimSlew < 0 {
		return fmt.Errorf("controller: sim_position_slew must not be negative, got %d", c.SimSlew)
	}

	// ------------------------------------------------------------
	// HTTP
	// ------------------------------------------------------------

	if cfg.HTTP.StreamIntervalMs < 0 {
		return fmt.Errorf("http: stream_interval_ms must not be negative, got %d", cfg.HTTP.StreamIntervalMs)
	}

	// auth is opt-in, but all-or-nothing
	a := cfg.HTTP.Auth
	if a.Enabled() {
		if a.User == "" || a.PasswordHash == "" || a.Secret == "" {
			return fmt.Errorf("http: auth requires user, password_hash and secret together")
		}
	}

	// ------------------------------------------------------------
	// EXPORT (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Export.Endpoint != "" {
		if cfg.Export.IntervalMs < 0 {
			return fmt.Errorf("export: interval_ms must not be negative, got %d", cfg.Export.IntervalMs)
		}
		if cfg.Export.TimeoutMs < 0 {
			return fmt.Errorf("export: timeout_ms must not be negative, got %d", cfg.Export.TimeoutMs)
		}
	}

	// ------------------------------------------------------------
	// TELEMETRY (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Telemetry.Broker != "" {
		if cfg.Telemetry.IntervalMs < 0 {
			return fmt.Errorf("telemetry: interval_ms must not be negative, got %d", cfg.Telemetry.IntervalMs)
		}
	}

	return nil
}
