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

package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/remoteldr/internal/api"
	"github.com/tombee/remoteldr/internal/commands/shared"
	"github.com/tombee/remoteldr/internal/process"
)

func newSpawnCommand(o *options) *cobra.Command {
	var envPairs []string

	cmd := &cobra.Command{
		Use:   "spawn [--env KEY=VALUE]... <binary> [-- args...]",
		Short: "Start a process on the agent",
		Long: `Start a process on the agent and print its id.

The binary path is passed to the agent's OS unchanged; relative paths resolve
against the agent's working directory, not the sandbox.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnv(envPairs)
			if err != nil {
				return err
			}

			return o.call(cmd, "spawn", true, func(ctx context.Context, c *api.Client) error {
				rsp, err := c.SpawnProcess(ctx, &api.SpawnProcessRequest{
					Process: args[0],
					Args:    args[1:],
					Env:     env,
				})
				if err != nil {
					return err
				}

				if shared.GetJSON() {
					return shared.EmitJSON(struct {
						shared.JSONResponse
						ProcessID uint32 `json:"process_id"`
					}{
						JSONResponse: shared.JSONResponse{Version: "1.0", Command: "spawn", Success: true},
						ProcessID:    rsp.ProcessID,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), rsp.ProcessID)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&envPairs, "env", "e", nil, "Environment variable KEY=VALUE (repeatable)")
	return cmd
}

func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, shared.NewUsageError(fmt.Sprintf("invalid --env %q, want KEY=VALUE", pair), nil)
		}
		env[key] = value
	}
	return env, nil
}

func parseID(arg string) (uint32, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, shared.NewUsageError(fmt.Sprintf("invalid process id %q", arg), err)
	}
	return uint32(id), nil
}

func newKillCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "kill <id>",
		Short: "Forcibly terminate a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.call(cmd, "kill", true, func(ctx context.Context, c *api.Client) error {
				if err := c.KillProcess(ctx, &api.ProcessRequest{ProcessID: id}); err != nil {
					return err
				}
				return reportOK(cmd, "kill", fmt.Sprintf("killed %d", id))
			})
		},
	}
}

func newPollCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "poll <id>",
		Short: "Check whether a process has exited without waiting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.call(cmd, "poll", true, func(ctx context.Context, c *api.Client) error {
				rsp, err := c.PollProcess(ctx, &api.ProcessRequest{ProcessID: id})
				if err != nil {
					return err
				}

				text := "running"
				if rsp.Exited {
					text = process.ExitStatus{Code: rsp.Code, Signal: rsp.Signal}.String()
				}
				if shared.GetJSON() {
					return emitStatus("poll", rsp.Exited, rsp.Code, rsp.Signal)
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}

func newWaitCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "wait <id>",
		Short: "Block until a process exits",
		Long: `Block until a process exits, print its status and exit with the
process's exit code. A process killed by a signal exits 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			bounded := cmd.Flags().Changed("timeout")
			return o.call(cmd, "wait", bounded, func(ctx context.Context, c *api.Client) error {
				rsp, err := c.WaitProcess(ctx, &api.ProcessRequest{ProcessID: id})
				if err != nil {
					return err
				}

				status := process.ExitStatus{Code: rsp.Code, Signal: rsp.Signal}
				if shared.GetJSON() {
					if err := emitStatus("wait", true, rsp.Code, rsp.Signal); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), status)
				}
				return exitErrorFor(status)
			})
		},
	}
}

// exitErrorFor mirrors a child's failure in the CLI's own exit code.
func exitErrorFor(status process.ExitStatus) error {
	if status.Success() {
		return nil
	}
	code := shared.ExitFailure
	if status.Code != nil && *status.Code > 0 && *status.Code < 256 {
		code = int(*status.Code)
	}
	return &shared.ExitError{Code: code, Message: "process " + status.String()}
}

func emitStatus(command string, exited bool, code *int32, signal string) error {
	return shared.EmitJSON(struct {
		shared.JSONResponse
		Exited bool   `json:"exited"`
		Code   *int32 `json:"code,omitempty"`
		Signal string `json:"signal,omitempty"`
	}{
		JSONResponse: shared.JSONResponse{Version: "1.0", Command: command, Success: true},
		Exited:       exited,
		Code:         code,
		Signal:       signal,
	})
}
