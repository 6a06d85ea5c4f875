// Package config loads and validates the encoder host configuration.
//
// The YAML file is the primary configuration surface; defaults and
// validation live here so the rest of the daemon can assume a
// well-formed config.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for encoderd.
type Config struct {
	Encoder   EncoderConfig   `yaml:"encoder"`
	Pins      PinsConfig      `yaml:"pins"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EncoderConfig describes the tracked encoder.
type EncoderConfig struct {
	// CountsPerRev is the number of decoded counts per shaft revolution.
	CountsPerRev uint16 `yaml:"counts_per_rev"`

	// OriginOffsetCounts displaces the starting position from the origin.
	OriginOffsetCounts int16 `yaml:"origin_offset_counts"`

	// HalfStep selects the half-step decode tables (two counts per detent).
	HalfStep bool `yaml:"half_step,omitempty"`

	// PollPeriodMS is the pin sampling period of the daemon loop.
	PollPeriodMS int `yaml:"poll_period_ms"`
}

// PinsConfig names the two encoder channels.
// Pin specs use the syntax [chip:]line with optional prefixes:
// ! inverts the signal, ^ requests pull-up bias, ~ pull-down.
type PinsConfig struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
}

// TelemetryConfig configures the status server.
type TelemetryConfig struct {
	// Addr is the HTTP listen address; empty disables the server.
	Addr string `yaml:"addr,omitempty"`

	// ReportPeriodMS is the websocket push period.
	ReportPeriodMS int `yaml:"report_period_ms"`

	// AccessLog enables combined-format HTTP request logging.
	AccessLog bool `yaml:"access_log,omitempty"`
}

// LoggingConfig configures the daemon logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format,omitempty"` // "text" or "json"
	File   string `yaml:"file,omitempty"`   // empty logs to stderr
}

// Default returns a fully-populated Config with defaults. An ES38
// style shaft encoder at 600 PPR decodes to 2400 counts/rev full-step.
func Default() Config {
	return Config{
		Encoder: EncoderConfig{
			CountsPerRev: 2400,
			PollPeriodMS: 1,
		},
		Pins: PinsConfig{
			A: "gpiochip0:17",
			B: "gpiochip0:18",
		},
		Telemetry: TelemetryConfig{
			Addr:           ":7180",
			ReportPeriodMS: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Encoder.CountsPerRev == 0 {
		return fmt.Errorf("config: encoder.counts_per_rev must be nonzero")
	}
	if c.Encoder.PollPeriodMS <= 0 {
		return fmt.Errorf("config: encoder.poll_period_ms must be positive, got %d",
			c.Encoder.PollPeriodMS)
	}
	if c.Telemetry.Addr != "" && c.Telemetry.ReportPeriodMS <= 0 {
		return fmt.Errorf("config: telemetry.report_period_ms must be positive, got %d",
			c.Telemetry.ReportPeriodMS)
	}
	if _, err := ParsePin(c.Pins.A); err != nil {
		return fmt.Errorf("config: pins.a: %w", err)
	}
	if _, err := ParsePin(c.Pins.B); err != nil {
		return fmt.Errorf("config: pins.b: %w", err)
	}
	return nil
}
