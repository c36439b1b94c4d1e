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

// Package client implements `remoteldr client`, a command-line driver for a
// running agent.
package client

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/remoteldr/internal/api"
	"github.com/tombee/remoteldr/internal/commands/shared"
)

type options struct {
	addr    string
	timeout time.Duration
}

// NewCommand creates the client command and its subcommands.
func NewCommand() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Call a running agent",
		Long: `Call a running agent.

Paths are relative to the agent's sandbox directory. Process ids are the
ids returned by 'spawn'.`,
	}

	cmd.PersistentFlags().StringVar(&o.addr, "addr", "127.0.0.1:8080", "Agent address (host:port)")
	cmd.PersistentFlags().DurationVar(&o.timeout, "timeout", 30*time.Second, "Per-call timeout (wait ignores it unless set explicitly)")

	cmd.AddCommand(
		newSysInfoCommand(o),
		newPutCommand(o),
		newGetCommand(o),
		newRemoveCommand(o),
		newResetCommand(o),
		newSpawnCommand(o),
		newKillCommand(o),
		newPollCommand(o),
		newWaitCommand(o),
	)

	return cmd
}

// call dials the agent, runs fn with a bounded context and closes the
// connection. Failures are classified for the exit code.
func (o *options) call(cmd *cobra.Command, op string, bounded bool, fn func(ctx context.Context, c *api.Client) error) error {
	client, err := api.Dial(o.addr)
	if err != nil {
		return shared.NewRPCError(op, err)
	}
	defer client.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if bounded && o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	if err := fn(ctx, client); err != nil {
		var exitErr *shared.ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		return shared.NewRPCError(op, err)
	}
	return nil
}
