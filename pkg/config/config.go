// Package config provides the configuration for colbridge.
//
// The configuration is organized into logical sections:
//   - Conversion: strictness and the policies for ambiguous generic arrays
//   - Logging: zap level and encoding
//   - Metrics: Prometheus collection
//   - Tracing: OpenTelemetry spans
//
// Example usage:
//
//	cfg, err := config.Load("colbridge.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	col, err := dispatch.MakeColumn("a", values, dispatch.WithConfig(cfg))
package config

import (
	"fmt"

	"github.com/ajitpratap0/colbridge/pkg/errors"
)

// Policy names how the generic-array path treats input it cannot type cleanly.
type Policy string

const (
	// PolicyError fails the conversion
	PolicyError Policy = "error"
	// PolicyNull converts the offending input to nulls
	PolicyNull Policy = "null"
)

// Allocator names the Arrow memory allocator used to build columns.
type Allocator string

const (
	// AllocatorGo uses the Go garbage-collected allocator
	AllocatorGo Allocator = "go"
	// AllocatorChecked wraps the Go allocator with leak accounting
	AllocatorChecked Allocator = "checked"
)

// Config is the root configuration structure.
type Config struct {
	Conversion ConversionConfig `yaml:"conversion" mapstructure:"conversion"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing" mapstructure:"tracing"`
}

// ConversionConfig controls how host values become columns.
type ConversionConfig struct {
	// Strict turns lossy casts into errors
	Strict bool `yaml:"strict" mapstructure:"strict"`
	// EmptyPolicy applies to empty or all-null generic arrays
	EmptyPolicy Policy `yaml:"empty_policy" mapstructure:"empty_policy"`
	// MixedPolicy applies to elements whose kind differs from the sampled one
	MixedPolicy Policy `yaml:"mixed_policy" mapstructure:"mixed_policy"`
	// Allocator selects the Arrow allocator
	Allocator Allocator `yaml:"allocator" mapstructure:"allocator"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Encoding    string `yaml:"encoding" mapstructure:"encoding"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// MetricsConfig controls Prometheus collection.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	// Address is where the CLI serves /metrics; empty disables the listener
	Address string `yaml:"address" mapstructure:"address"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name"`
	SampleRate  float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Conversion: ConversionConfig{
			Strict:      false,
			EmptyPolicy: PolicyError,
			MixedPolicy: PolicyError,
			Allocator:   AllocatorGo,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "colbridge",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "colbridge",
			SampleRate:  1.0,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validatePolicy("conversion.empty_policy", c.Conversion.EmptyPolicy); err != nil {
		return err
	}
	if err := validatePolicy("conversion.mixed_policy", c.Conversion.MixedPolicy); err != nil {
		return err
	}
	switch c.Conversion.Allocator {
	case AllocatorGo, AllocatorChecked:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "conversion.allocator must be %q or %q, got %q",
			AllocatorGo, AllocatorChecked, c.Conversion.Allocator)
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "logging.encoding must be json or console, got %q", c.Logging.Encoding)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("tracing.sample_rate must be within [0, 1], got %v", c.Tracing.SampleRate))
	}
	return nil
}

func validatePolicy(key string, p Policy) error {
	switch p {
	case PolicyError, PolicyNull:
		return nil
	default:
		return errors.Newf(errors.ErrorTypeConfig, "%s must be %q or %q, got %q", key, PolicyError, PolicyNull, p)
	}
}
