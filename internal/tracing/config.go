// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import "fmt"

// Config holds tracing configuration.
type Config struct {
	// Enabled controls whether tracing is active.
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this service in traces.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is the application version.
	ServiceVersion string `yaml:"service_version"`

	// SampleRate is the fraction of root traces to record (0.0 - 1.0).
	SampleRate float64 `yaml:"sample_rate"`

	// Exporters configures export destinations.
	Exporters []ExporterConfig `yaml:"exporters"`
}

// ExporterConfig defines an export destination.
type ExporterConfig struct {
	// Type is the exporter type: "console", "otlp", "otlp-http" or "none".
	Type string `yaml:"type"`

	// Endpoint is the OTLP receiver address (host:port).
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for OTLP exporters.
	Insecure bool `yaml:"insecure"`

	// Headers are sent with every export request.
	Headers map[string]string `yaml:"headers"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "remoteldr",
		ServiceVersion: "unknown",
		SampleRate:     1.0,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be between 0 and 1, got %v", c.SampleRate)
	}
	for i, exp := range c.Exporters {
		switch exp.Type {
		case "none", "console", "stdout":
		case "otlp", "otlp-http", "otlp_http":
			if exp.Endpoint == "" {
				return fmt.Errorf("exporters[%d]: endpoint is required for %s", i, exp.Type)
			}
		default:
			return fmt.Errorf("exporters[%d]: unknown exporter type: %s", i, exp.Type)
		}
	}
	return nil
}
