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

// Package server implements the `remoteldr server` command.
package server

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/remoteldr/internal/commands/shared"
	"github.com/tombee/remoteldr/internal/config"
	"github.com/tombee/remoteldr/internal/daemon"
)

type flags struct {
	port          uint16
	workdir       string
	listenHost    string
	metricsAddr   string
	pidFile       string
	inheritOutput bool
	rateLimit     float64
}

// NewCommand creates the server command.
func NewCommand() *cobra.Command {
	return newCommand(&flags{})
}

func newCommand(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the agent",
		Long: `Run the agent in the foreground.

Files sent by clients are stored under --workdir, which is created if
missing. The agent listens on the loopback interface unless --listen-host
says otherwise. SIGINT or SIGTERM stops it after killing every child
process it started.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			v, c, b := shared.GetVersion()
			return daemon.Run(ctx, cfg, daemon.Options{
				Version:   v,
				Commit:    c,
				BuildDate: b,
			})
		},
	}

	defaults := config.Default()
	cmd.Flags().Uint16Var(&f.port, "port", uint16(defaults.Server.Port), "TCP port to listen on")
	cmd.Flags().StringVar(&f.workdir, "workdir", defaults.Sandbox.Workdir, "Sandbox directory for received files")
	cmd.Flags().StringVar(&f.listenHost, "listen-host", defaults.Server.ListenHost, "Interface to bind")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (disabled when empty)")
	cmd.Flags().StringVar(&f.pidFile, "pid-file", "", "Write the agent PID to this file")
	cmd.Flags().BoolVar(&f.inheritOutput, "inherit-output", defaults.Process.InheritOutput, "Connect child stdout/stderr to the agent's")
	cmd.Flags().Float64Var(&f.rateLimit, "rate-limit", 0, "Maximum requests per second (0 disables)")

	return cmd
}

// loadConfig resolves configuration: defaults, then the config file, then
// environment, then any flag given explicitly on the command line.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	path := shared.GetConfigPath()
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, shared.NewConfigError("failed to load configuration", err)
	}

	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Server.Port = int(f.port)
	}
	if changed("workdir") {
		cfg.Sandbox.Workdir = f.workdir
	}
	if changed("listen-host") {
		cfg.Server.ListenHost = f.listenHost
	}
	if changed("metrics-addr") {
		cfg.Metrics.Address = f.metricsAddr
	}
	if changed("pid-file") {
		cfg.Server.PIDFile = f.pidFile
	}
	if changed("inherit-output") {
		cfg.Process.InheritOutput = f.inheritOutput
	}
	if changed("rate-limit") {
		cfg.Server.RateLimit = f.rateLimit
	}
	if level := shared.GetLogLevel(); level != "" {
		cfg.Log.Level = level
	}
	if format := shared.GetLogFormat(); format != "" {
		cfg.Log.Format = format
	}

	if err := cfg.Validate(); err != nil {
		return nil, shared.NewConfigError("invalid configuration", err)
	}
	return cfg, nil
}
