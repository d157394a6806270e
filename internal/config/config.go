// internal/config/config.go

// Package config loads, validates and normalizes the daemon
// configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	Controller ControllerConfig `yaml:"controller"`
	HTTP       HTTPConfig       `yaml:"http"`
	Export     ExportConfig     `yaml:"export"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Journal    JournalConfig    `yaml:"journal"`
}

// ---- CONTROLLER ----

type ControllerConfig struct {
	// Descriptor is the path of the network descriptor. Empty means no
	// descriptor, Axes identical default axes are assumed instead.
	Descriptor string `yaml:"descriptor"`
	Axes       int    `yaml:"axes"`

	// Simulate swaps the hardware master for the built-in simulator.
	Simulate    bool `yaml:"simulate"`
	MasterIndex uint `yaml:"master_index"`

	// CycleUs is the bus cycle period in microseconds.
	CycleUs int    `yaml:"cycle_us"`
	Mode    string `yaml:"mode"`

	// WarmupCycles holds a freshly enabled axis at its actual position
	// (optional, zero is a valid setting).
	WarmupCycles *int `yaml:"warmup_cycles"`
	// BarrierDelayMs is the hold between barrier arming and firing
	// (optional, zero is a valid setting).
	BarrierDelayMs *int `yaml:"barrier_delay_ms"`

	MaxDeltaPerCycle int32 `yaml:"max_delta_per_cycle"`

	// SimSlew caps simulated drive movement per cycle. Simulator only.
	SimSlew int32 `yaml:"sim_position_slew"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Addr             string     `yaml:"addr"`
	StreamIntervalMs int        `yaml:"stream_interval_ms"`
	Auth             AuthConfig `yaml:"auth"`
}

// AuthConfig guards the mutating endpoints when all fields are set.
type AuthConfig struct {
	User         string `yaml:"user"`
	PasswordHash string `yaml:"password_hash"`
	Secret       string `yaml:"secret"`
}

func (a AuthConfig) Enabled() bool {
	return a.User != "" || a.PasswordHash != "" || a.Secret != ""
}

// ---- EXPORT ----

// ExportConfig shapes the supervisory register export (optional,
// opt-in by endpoint).
type ExportConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	BaseAddr   uint16 `yaml:"base_addr"`
	IntervalMs int    `yaml:"interval_ms"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// ---- TELEMETRY ----

// TelemetryConfig shapes the MQTT publisher (optional, opt-in by
// broker).
type TelemetryConfig struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	Topic      string `yaml:"topic"`
	IntervalMs int    `yaml:"interval_ms"`
}

// ---- JOURNAL ----

// JournalConfig shapes the event store (optional, opt-in by path).
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Load reads and parses a configuration file. The result still needs
// Validate and Normalize.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ---- DURATION ACCESSORS (valid after Normalize) ----

func (c ControllerConfig) CyclePeriod() time.Duration {
	return time.Duration(c.CycleUs) * time.Microsecond
}

func (c ControllerConfig) BarrierDelay() time.Duration {
	if c.BarrierDelayMs == nil {
		return 0
	}
	return time.Duration(*c.BarrierDelayMs) * time.Millisecond
}

func (c ControllerConfig) Warmup() int {
	if c.WarmupCycles == nil {
		return 0
	}
	return *c.WarmupCycles
}

func (h HTTPConfig) StreamInterval() time.Duration {
	return time.Duration(h.StreamIntervalMs) * time.Millisecond
}

func (e ExportConfig) Interval() time.Duration {
	return time.Duration(e.IntervalMs) * time.Millisecond
}

func (e ExportConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

func (t TelemetryConfig) Interval() time.Duration {
	return time.Duration(t.IntervalMs) * time.Millisecond
}
