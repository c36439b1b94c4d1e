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

package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tombee/remoteldr/internal/commands/shared"
	"github.com/tombee/remoteldr/internal/log"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for remoteldr
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remoteldr",
		Short: "remoteldr - remote program loader",
		Long: `remoteldr runs a small agent on a target machine that accepts files into
a sandboxed working directory and launches and supervises processes on
behalf of a remote caller.

Run 'remoteldr server' on the target and 'remoteldr client' to drive it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	logLevel, logFormat, json, config := shared.RegisterFlagPointers()

	cmd.PersistentFlags().StringVar(logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default from LOG_LEVEL or info)")
	cmd.PersistentFlags().StringVar(logFormat, "log-format", "", "Log format: json or text (default from LOG_FORMAT or json)")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/remoteldr/config.yaml)")

	return cmd
}

// setupLogging installs the default logger from the environment with the
// global flags layered on top.
func setupLogging() error {
	cfg := log.FromEnv()
	if level := shared.GetLogLevel(); level != "" {
		if !log.ValidLevel(level) {
			return shared.NewUsageError("invalid --log-level "+level, nil)
		}
		cfg.Level = level
	}
	switch format := shared.GetLogFormat(); format {
	case "":
	case string(log.FormatJSON), string(log.FormatText):
		cfg.Format = log.Format(format)
	default:
		return shared.NewUsageError("invalid --log-format "+format, nil)
	}

	slog.SetDefault(log.New(cfg))
	return nil
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
