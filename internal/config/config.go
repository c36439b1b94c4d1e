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

// Package config loads agent configuration from defaults, an optional YAML
// file and REMOTELDR_* environment variables.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tombee/remoteldr/internal/log"
	"github.com/tombee/remoteldr/internal/tracing"
	ldrerrors "github.com/tombee/remoteldr/pkg/errors"
)

// Config is the complete agent configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Sandbox SandboxConfig  `yaml:"sandbox"`
	Process ProcessConfig  `yaml:"process"`
	Log     LogConfig      `yaml:"log"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Tracing tracing.Config `yaml:"tracing"`
}

// ServerConfig controls the RPC listener.
type ServerConfig struct {
	// ListenHost is the interface to bind. Loopback by default.
	ListenHost string `yaml:"listen_host"`

	// Port is the TCP port to bind. 0 picks a free port.
	Port int `yaml:"port"`

	// ShutdownTimeout bounds how long in-flight requests may drain on exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RateLimit is the sustained requests per second across all callers.
	// Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the burst size allowed above RateLimit.
	RateBurst int `yaml:"rate_burst"`

	// PIDFile, when set, is written on startup and removed on exit.
	PIDFile string `yaml:"pid_file"`
}

// SandboxConfig controls the file store.
type SandboxConfig struct {
	// Workdir is the sandbox root. Relative paths resolve against the
	// agent's working directory.
	Workdir string `yaml:"workdir"`
}

// ProcessConfig controls spawned processes.
type ProcessConfig struct {
	// InheritOutput connects child stdout/stderr to the agent's.
	InheritOutput bool `yaml:"inherit_output"`

	// Dir is the working directory for children. Empty means the agent's.
	Dir string `yaml:"dir"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Address is the HTTP listen address for /metrics. Empty disables it.
	Address string `yaml:"address"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenHost:      "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       0,
			RateBurst:       50,
		},
		Sandbox: SandboxConfig{
			Workdir: "remoteldr",
		},
		Process: ProcessConfig{
			InheritOutput: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Load loads configuration from an optional YAML file and the environment.
// Environment variables take precedence over the file. If configPath is
// empty, only defaults and environment variables are used.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &ldrerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ldrerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero values a minimal file may have left empty.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Server.ListenHost == "" {
		c.Server.ListenHost = defaults.Server.ListenHost
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = defaults.Server.RateBurst
	}
	if c.Sandbox.Workdir == "" {
		c.Sandbox.Workdir = defaults.Sandbox.Workdir
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaults.Tracing.ServiceName
	}
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = defaults.Tracing.ServiceVersion
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return ldrerrors.Wrap(err, "failed to get home directory")
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ldrerrors.Wrap(err, "failed to read config file")
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return ldrerrors.Wrapf(err, "failed to parse YAML in %s", filepath.Base(path))
	}

	return nil
}

// loadFromEnv applies REMOTELDR_* overrides. Malformed numeric or duration
// values are reported rather than ignored.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv("REMOTELDR_LISTEN_HOST"); val != "" {
		c.Server.ListenHost = val
	}
	if val := os.Getenv("REMOTELDR_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return envError("REMOTELDR_PORT", err)
		}
		c.Server.Port = port
	}
	if val := os.Getenv("REMOTELDR_SHUTDOWN_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return envError("REMOTELDR_SHUTDOWN_TIMEOUT", err)
		}
		c.Server.ShutdownTimeout = d
	}
	if val := os.Getenv("REMOTELDR_RATE_LIMIT"); val != "" {
		limit, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return envError("REMOTELDR_RATE_LIMIT", err)
		}
		c.Server.RateLimit = limit
	}
	if val := os.Getenv("REMOTELDR_PID_FILE"); val != "" {
		c.Server.PIDFile = val
	}

	if val := os.Getenv("REMOTELDR_WORKDIR"); val != "" {
		c.Sandbox.Workdir = val
	}

	if val := os.Getenv("REMOTELDR_INHERIT_OUTPUT"); val != "" {
		c.Process.InheritOutput = parseBool(val)
	}
	if val := os.Getenv("REMOTELDR_PROCESS_DIR"); val != "" {
		c.Process.Dir = val
	}

	if val := os.Getenv("REMOTELDR_LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	} else if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = parseBool(val)
	}

	if val := os.Getenv("REMOTELDR_METRICS_ADDR"); val != "" {
		c.Metrics.Address = val
	}

	if val := os.Getenv("REMOTELDR_TRACING_ENABLED"); val != "" {
		c.Tracing.Enabled = parseBool(val)
	}
	if val := os.Getenv("REMOTELDR_OTLP_ENDPOINT"); val != "" {
		c.Tracing.Exporters = append(c.Tracing.Exporters, tracing.ExporterConfig{
			Type:     "otlp",
			Endpoint: val,
			Insecure: parseBool(os.Getenv("REMOTELDR_OTLP_INSECURE")),
		})
	}

	return nil
}

func envError(key string, err error) error {
	return &ldrerrors.ConfigError{Key: key, Reason: "invalid environment value", Cause: err}
}

func parseBool(val string) bool {
	return val == "1" || strings.ToLower(val) == "true"
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be between 0 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("server.rate_limit must not be negative, got %v", c.Server.RateLimit))
	}
	if c.Sandbox.Workdir == "" {
		errs = append(errs, "sandbox.workdir must not be empty")
	}

	if !log.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, error], got %q", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, "tracing: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Address returns the RPC listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.ListenHost, strconv.Itoa(c.Server.Port))
}

// LoggerConfig converts the log settings for log.New.
func (c *Config) LoggerConfig() *log.Config {
	cfg := log.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = log.Format(c.Log.Format)
	cfg.AddSource = c.Log.AddSource
	return cfg
}
