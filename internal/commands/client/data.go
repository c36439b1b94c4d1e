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
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/tombee/remoteldr/internal/api"
	"github.com/tombee/remoteldr/internal/cli"
	"github.com/tombee/remoteldr/internal/commands/shared"
)

func newSysInfoCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sysinfo",
		Short: "Show the agent's host name, OS and architecture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.call(cmd, "sysinfo", true, func(ctx context.Context, c *api.Client) error {
				info, err := c.SystemInfo(ctx)
				if err != nil {
					return err
				}

				if shared.GetJSON() {
					return shared.EmitJSON(struct {
						shared.JSONResponse
						ServerName   string `json:"server_name"`
						OS           string `json:"os"`
						Arch         string `json:"arch"`
						TargetTriple string `json:"target_triple"`
					}{
						JSONResponse: shared.JSONResponse{Version: "1.0", Command: "sysinfo", Success: true},
						ServerName:   info.ServerName,
						OS:           info.OS.String(),
						Arch:         info.Arch.String(),
						TargetTriple: info.TargetTriple,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "server:  %s\n", info.ServerName)
				fmt.Fprintf(out, "os:      %s\n", info.OS)
				fmt.Fprintf(out, "arch:    %s\n", info.Arch)
				fmt.Fprintf(out, "target:  %s\n", info.TargetTriple)
				return nil
			})
		},
	}
}

func newPutCommand(o *options) *cobra.Command {
	var executable bool

	cmd := &cobra.Command{
		Use:   "put <local-file|-> <remote-path>",
		Short: "Upload a file into the sandbox",
		Long: `Upload a file into the sandbox, replacing any existing file.

Use '-' to read from stdin. --exec marks the file executable on the agent.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readLocal(cmd, args[0])
			if err != nil {
				return err
			}

			return o.call(cmd, "put", true, func(ctx context.Context, c *api.Client) error {
				if err := c.SendData(ctx, &api.SendDataRequest{
					Filepath:   args[1],
					Data:       data,
					Executable: executable,
				}); err != nil {
					return err
				}
				return reportOK(cmd, "put", fmt.Sprintf("wrote %d bytes to %s", len(data), args[1]))
			})
		},
	}

	cmd.Flags().BoolVar(&executable, "exec", false, "Mark the uploaded file executable")
	return cmd
}

func readLocal(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shared.NewUsageError("cannot read "+path, err)
	}
	return data, nil
}

func newGetCommand(o *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <remote-path>",
		Short: "Download a file from the sandbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.call(cmd, "get", true, func(ctx context.Context, c *api.Client) error {
				rsp, err := c.GetData(ctx, &api.GetDataRequest{Filepath: args[0]})
				if err != nil {
					return err
				}

				if output != "" {
					if err := os.WriteFile(output, rsp.Data, 0644); err != nil {
						return fmt.Errorf("failed to write %s: %w", output, err)
					}
					return nil
				}

				out := cmd.OutOrStdout()
				if f, ok := out.(*os.File); ok && cli.IsTTY(f) && !utf8.Valid(rsp.Data) {
					return shared.NewUsageError("refusing to write binary data to a terminal; use --output", nil)
				}
				_, err = out.Write(rsp.Data)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this local file instead of stdout")
	return cmd
}

func newRemoveCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <remote-path>",
		Short: "Delete a file or directory from the sandbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.call(cmd, "rm", true, func(ctx context.Context, c *api.Client) error {
				if err := c.DeleteData(ctx, &api.GetDataRequest{Filepath: args[0]}); err != nil {
					return err
				}
				return reportOK(cmd, "rm", "removed "+args[0])
			})
		},
	}
}

func newResetCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Empty the sandbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.call(cmd, "reset", true, func(ctx context.Context, c *api.Client) error {
				if err := c.ResetData(ctx); err != nil {
					return err
				}
				return reportOK(cmd, "reset", "sandbox emptied")
			})
		},
	}
}

// reportOK prints msg, or a success envelope with --json.
func reportOK(cmd *cobra.Command, command, msg string) error {
	if shared.GetJSON() {
		return shared.EmitJSON(shared.JSONResponse{Version: "1.0", Command: command, Success: true})
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
