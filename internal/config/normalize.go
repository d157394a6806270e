// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultAxes           = 3
	DefaultCycleUs        = 4000
	DefaultMode           = "csp"
	DefaultWarmupCycles   = 10
	DefaultBarrierDelayMs = 1000
	DefaultMaxDelta       = 400000

	DefaultHTTPAddr         = ":8080"
	DefaultStreamIntervalMs = 500

	DefaultExportIntervalMs = 1000
	DefaultExportTimeoutMs  = 2000

	DefaultTelemetryTopic      = "motiond/diag"
	DefaultTelemetryClientID   = "motiond"
	DefaultTelemetryIntervalMs = 1000
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// CONTROLLER
	// ------------------------------------------------------------

	c := &cfg.Controller

	if c.Descriptor == "" && c.Axes == 0 {
		c.Axes = DefaultAxes
	}
	if c.CycleUs == 0 {
		c.CycleUs = DefaultCycleUs
	}
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.WarmupCycles == nil {
		v := DefaultWarmupCycles
		c.WarmupCycles = &v
	}
	if c.BarrierDelayMs == nil {
		v := DefaultBarrierDelayMs
		c.BarrierDelayMs = &v
	}
	if c.MaxDeltaPerCycle == 0 {
		c.MaxDeltaPerCycle = DefaultMaxDelta
	}

	// ------------------------------------------------------------
	// HTTP
	// ------------------------------------------------------------

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.HTTP.StreamIntervalMs == 0 {
		cfg.HTTP.StreamIntervalMs = DefaultStreamIntervalMs
	}

	// ------------------------------------------------------------
	// EXPORT (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Export.Endpoint != "" {
		if cfg.Export.IntervalMs == 0 {
			cfg.Export.IntervalMs = DefaultExportIntervalMs
		}
		if cfg.Export.TimeoutMs == 0 {
			cfg.Export.TimeoutMs = DefaultExportTimeoutMs
		}
	}

	// ------------------------------------------------------------
	// TELEMETRY (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Telemetry.Broker != "" {
		if cfg.Telemetry.Topic == "" {
			cfg.Telemetry.Topic = DefaultTelemetryTopic
		}
		if cfg.Telemetry.ClientID == "" {
			cfg.Telemetry.ClientID = DefaultTelemetryClientID
		}
		if cfg.Telemetry.IntervalMs == 0 {
			cfg.Telemetry.IntervalMs = DefaultTelemetryIntervalMs
		}
	}
}
